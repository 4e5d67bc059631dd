package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/models"
	"github.com/example/materialsdesk/internal/session"
	"github.com/example/materialsdesk/internal/utils"
)

// ErrSessionNotFound is returned for unknown, revoked or expired console sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists console sessions and keeps the live ones in memory.
type SessionStore struct {
	db        *gorm.DB
	key       [32]byte
	ttl       time.Duration
	refresher session.Refresher
	now       func() time.Time

	mu    sync.Mutex
	live  map[uuid.UUID]*session.Session
	onEnd []func(id uuid.UUID)
}

// NewSessionStore constructs a SessionStore. Gateway tokens are sealed with key.
func NewSessionStore(db *gorm.DB, key [32]byte, ttl time.Duration, refresher session.Refresher) *SessionStore {
	return &SessionStore{
		db:        db,
		key:       key,
		ttl:       ttl,
		refresher: refresher,
		now:       time.Now,
		live:      make(map[uuid.UUID]*session.Session),
	}
}

// OnEnd registers fn to run when a session is revoked or expires.
func (s *SessionStore) OnEnd(fn func(id uuid.UUID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

// Create persists a session for a successful gateway login.
func (s *SessionStore) Create(ctx context.Context, login *gateway.LoginResult) (*models.AdminSession, *session.Session, error) {
	now := s.now()
	record := models.AdminSession{
		UserID:      login.User.ID,
		Email:       login.User.Email,
		Name:        login.User.Name,
		Role:        login.User.Role,
		Roles:       login.User.Roles,
		Permissions: login.User.Permissions,
		ExpiresAt:   now.Add(s.ttl),
		LastSeenAt:  now,
	}
	record.ID = uuid.New()
	if err := s.sealTokens(&record, login.Tokens); err != nil {
		return nil, nil, err
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, nil, fmt.Errorf("store session: %w", err)
	}

	sess := s.build(&record, login.User, login.Tokens)
	s.mu.Lock()
	s.live[record.ID] = sess
	s.mu.Unlock()

	log.Printf("[Session] %s logged in (session %s)", record.Email, record.ID)
	return &record, sess, nil
}

// Get returns the live session for id, loading it from the database after a
// restart.
func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	s.mu.Lock()
	sess, ok := s.live[id]
	s.mu.Unlock()
	if ok {
		if !sess.IsAuthenticated() {
			return nil, ErrSessionNotFound
		}
		return sess, nil
	}

	var record models.AdminSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !record.Active(s.now()) {
		return nil, ErrSessionNotFound
	}

	tokens, err := s.openTokens(&record)
	if err != nil {
		log.Printf("[Session] cannot unseal tokens for %s: %v", id, err)
		return nil, ErrSessionNotFound
	}
	user := gateway.User{
		ID:          record.UserID,
		Name:        record.Name,
		Email:       record.Email,
		Role:        record.Role,
		Roles:       record.Roles,
		Permissions: record.Permissions,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.live[id]; ok {
		return existing, nil
	}
	sess = s.build(&record, user, tokens)
	s.live[id] = sess
	return sess, nil
}

// Revoke ends the session.
func (s *SessionStore) Revoke(ctx context.Context, id uuid.UUID, reason string) error {
	now := s.now()
	err := s.db.WithContext(ctx).Model(&models.AdminSession{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{
			"revoked_at":           now,
			"revoke_reason":        reason,
			"access_token_sealed":  "",
			"refresh_token_sealed": "",
		}).Error
	if err != nil {
		return err
	}
	s.forget(id)
	return nil
}

// Touch records activity on the session.
func (s *SessionStore) Touch(ctx context.Context, id uuid.UUID) {
	err := s.db.WithContext(ctx).Model(&models.AdminSession{}).
		Where("id = ?", id).
		Update("last_seen_at", s.now()).Error
	if err != nil {
		log.Printf("[Session] touch %s: %v", id, err)
	}
}

func (s *SessionStore) build(record *models.AdminSession, user gateway.User, tokens gateway.Tokens) *session.Session {
	id := record.ID
	return session.New(id.String(), user, tokens, s.refresher,
		session.OnRotate(func(ctx context.Context, _ string, t gateway.Tokens) error {
			return s.saveTokens(ctx, id, t)
		}),
		session.OnExpire(func(string) {
			// the gateway rejected the refresh; the admin has to log in again
			if err := s.Revoke(context.Background(), id, "gateway session expired"); err != nil {
				log.Printf("[Session] revoke expired session %s: %v", id, err)
			}
		}),
	)
}

// forget drops the live session, expires it and runs the OnEnd hooks once.
func (s *SessionStore) forget(id uuid.UUID) {
	s.mu.Lock()
	sess, ok := s.live[id]
	delete(s.live, id)
	hooks := append([]func(uuid.UUID){}, s.onEnd...)
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.Expire()
	for _, fn := range hooks {
		fn(id)
	}
}

func (s *SessionStore) saveTokens(ctx context.Context, id uuid.UUID, t gateway.Tokens) error {
	var record models.AdminSession
	if err := s.sealTokens(&record, t); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.AdminSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token_sealed":  record.AccessTokenSealed,
			"refresh_token_sealed": record.RefreshTokenSealed,
			"gateway_expires_at":   record.GatewayExpiresAt,
		}).Error
}

func (s *SessionStore) sealTokens(record *models.AdminSession, t gateway.Tokens) error {
	access, err := utils.Seal(&s.key, t.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := utils.Seal(&s.key, t.RefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}
	record.AccessTokenSealed = access
	record.RefreshTokenSealed = refresh
	record.GatewayExpiresAt = nil
	if !t.ExpiresAt.IsZero() {
		exp := t.ExpiresAt
		record.GatewayExpiresAt = &exp
	}
	return nil
}

func (s *SessionStore) openTokens(record *models.AdminSession) (gateway.Tokens, error) {
	access, err := utils.Open(&s.key, record.AccessTokenSealed)
	if err != nil {
		return gateway.Tokens{}, err
	}
	refresh, err := utils.Open(&s.key, record.RefreshTokenSealed)
	if err != nil {
		return gateway.Tokens{}, err
	}
	t := gateway.Tokens{AccessToken: access, RefreshToken: refresh}
	if record.GatewayExpiresAt != nil {
		t.ExpiresAt = *record.GatewayExpiresAt
	}
	return t, nil
}
