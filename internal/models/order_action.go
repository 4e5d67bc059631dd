package models

import "github.com/google/uuid"

// OrderAction is the audit record of one workflow submit against the gateway.
type OrderAction struct {
	BaseModel
	SessionID    uuid.UUID `gorm:"type:uuid;index" json:"session_id"`
	ActorEmail   string    `json:"actor_email"`
	LeadID       string    `gorm:"index" json:"lead_id"`
	Action       string    `gorm:"index" json:"action"`
	ResultStatus string    `json:"result_status"`
	Succeeded    bool      `json:"succeeded"`
	Message      string    `json:"message"`
	Payload      string    `gorm:"type:text" json:"payload"`
}
