package models

import "time"

// AdminSession is a console login. Gateway tokens are stored sealed.
type AdminSession struct {
	BaseModel
	UserID             string         `gorm:"index" json:"user_id"`
	Email              string         `gorm:"index" json:"email"`
	Name               string         `json:"name"`
	Role               string         `json:"role"`
	Roles              []string       `gorm:"serializer:json;type:text" json:"roles"`
	Permissions        []string       `gorm:"serializer:json;type:text" json:"permissions"`
	AccessTokenSealed  string         `json:"-"`
	RefreshTokenSealed string         `json:"-"`
	GatewayExpiresAt   *time.Time     `json:"gateway_expires_at"`
	ExpiresAt          time.Time      `gorm:"index" json:"expires_at"`
	LastSeenAt         time.Time      `json:"last_seen_at"`
	RevokedAt          *time.Time     `json:"revoked_at"`
	RevokeReason       string         `json:"revoke_reason"`
}

// Active reports whether the session can still be used at now.
func (s *AdminSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
