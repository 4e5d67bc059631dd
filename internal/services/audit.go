package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/models"
	"github.com/example/materialsdesk/internal/orders"
	"github.com/example/materialsdesk/internal/session"
)

// AuditService records every workflow submit that reached the gateway and
// forwards successful ones to the operations chat.
type AuditService struct {
	db       *gorm.DB
	telegram *TelegramService
	// notify runs the Telegram send; tests replace it to stay synchronous.
	notify func(func())
}

// NewAuditService constructs AuditService. telegram may be nil.
func NewAuditService(db *gorm.DB, telegram *TelegramService) *AuditService {
	return &AuditService{db: db, telegram: telegram, notify: func(fn func()) { go fn() }}
}

// Record stores ev and notifies on success. Failures are logged, never returned:
// the mutation already happened.
func (a *AuditService) Record(ctx context.Context, sess *session.Session, ev orders.Event) {
	user := sess.CurrentUser()
	action := models.OrderAction{
		ActorEmail:   user.Email,
		LeadID:       ev.LeadID,
		Action:       ev.Action,
		ResultStatus: string(ev.Status),
		Succeeded:    ev.Err == nil,
	}
	if id, err := uuid.Parse(sess.ID()); err == nil {
		action.SessionID = id
	}
	if ev.Err != nil {
		action.Message = errorMessage(ev.Err)
	}
	if raw, err := json.Marshal(ev.Payload); err == nil {
		action.Payload = string(raw)
	}

	if err := a.db.WithContext(ctx).Create(&action).Error; err != nil {
		log.Printf("[Audit] failed to record %s on %s: %v", ev.Action, ev.LeadID, err)
	}

	if ev.Err != nil || !a.telegram.Enabled() {
		return
	}
	n := notificationFor(ev, user)
	a.notify(func() {
		if err := a.telegram.NotifyOrderEvent(n); err != nil {
			log.Printf("[Audit] telegram notification for %s failed: %v", ev.LeadID, err)
		}
	})
}

// List returns the recorded actions for leadID, newest first.
func (a *AuditService) List(ctx context.Context, leadID string, limit int) ([]models.OrderAction, error) {
	var actions []models.OrderAction
	err := a.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at desc").
		Limit(limit).
		Find(&actions).Error
	return actions, err
}

func notificationFor(ev orders.Event, user gateway.User) OrderEventNotification {
	n := OrderEventNotification{
		LeadID:   ev.LeadID,
		Action:   ev.Action,
		Status:   ev.Status,
		Customer: ev.Customer,
		Actor:    user.Name,
	}
	if n.Actor == "" {
		n.Actor = user.Email
	}
	if v, ok := ev.Payload["paidAmount"].(float64); ok {
		n.Amount = decimal.NewFromFloat(v)
	}
	if v, ok := ev.Payload["reason"].(string); ok {
		n.Reason = v
	}
	return n
}

func errorMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	return err.Error()
}
