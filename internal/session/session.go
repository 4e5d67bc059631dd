// Package session holds the logged-in admin's identity and gateway tokens.
// A Session is built once at login and passed explicitly to everything that
// calls the marketplace on the admin's behalf.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/materialsdesk/internal/gateway"
)

// ErrNotAuthenticated is returned by Refresh after the session has expired.
var ErrNotAuthenticated = errors.New("session is not authenticated")

// Refresher rotates gateway tokens.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*gateway.Tokens, error)
}

// Option configures a Session.
type Option func(*Session)

// OnRotate registers fn to persist tokens after every successful refresh.
func OnRotate(fn func(ctx context.Context, id string, t gateway.Tokens) error) Option {
	return func(s *Session) { s.onRotate = fn }
}

// OnExpire registers fn to run once when the session expires.
func OnExpire(fn func(id string)) Option {
	return func(s *Session) { s.onExpire = fn }
}

// Session implements gateway.TokenSource.
type Session struct {
	id        string
	createdAt time.Time
	refresher Refresher
	onRotate  func(context.Context, string, gateway.Tokens) error
	onExpire  func(string)

	mu      sync.RWMutex
	user    gateway.User
	tokens  gateway.Tokens
	expired bool

	// refreshMu serialises refreshes so concurrent 401s rotate the token once.
	refreshMu sync.Mutex
}

var _ gateway.TokenSource = (*Session)(nil)

// New builds an authenticated session.
func New(id string, user gateway.User, tokens gateway.Tokens, refresher Refresher, opts ...Option) *Session {
	s := &Session{
		id:        id,
		createdAt: time.Now(),
		refresher: refresher,
		user:      user,
		tokens:    tokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in the console token and the session store.
func (s *Session) ID() string { return s.id }

// CurrentUser returns the logged-in admin.
func (s *Session) CurrentUser() gateway.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.user
	u.Roles = append([]string(nil), s.user.Roles...)
	u.Permissions = append([]string(nil), s.user.Permissions...)
	return u
}

// AccessToken returns the current gateway bearer token, empty once expired.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expired {
		return ""
	}
	return s.tokens.AccessToken
}

// IsAuthenticated reports whether the session still holds a usable token.
func (s *Session) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// HasRole matches the user's primary role or any extra role, case-insensitively.
func (s *Session) HasRole(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if strings.EqualFold(s.user.Role, name) {
		return true
	}
	for _, r := range s.user.Roles {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// HasPermission reports whether name was granted. "*" grants everything.
func (s *Session) HasPermission(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.user.Permissions {
		if p == name || p == "*" {
			return true
		}
	}
	return false
}

// Refresh rotates the gateway tokens after rejected was turned down. Callers
// whose token was already replaced by another refresh get the new one.
func (s *Session) Refresh(ctx context.Context, rejected string) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.RLock()
	expired, current, refreshToken := s.expired, s.tokens.AccessToken, s.tokens.RefreshToken
	s.mu.RUnlock()
	if expired {
		return "", ErrNotAuthenticated
	}
	if current != "" && current != rejected {
		return current, nil
	}
	if s.refresher == nil {
		return "", errors.New("session has no token refresher")
	}

	next, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}

	s.mu.Lock()
	s.tokens = *next
	s.mu.Unlock()

	if s.onRotate != nil {
		if err := s.onRotate(ctx, s.id, *next); err != nil {
			// the new token still works in memory
			log.Printf("[Session] failed to persist rotated tokens for %s: %v", s.id, err)
		}
	}
	return next.AccessToken, nil
}

// Expire drops the tokens. The session cannot be revived; the admin has to
// log in again.
func (s *Session) Expire() {
	s.mu.Lock()
	already := s.expired
	s.expired = true
	s.tokens = gateway.Tokens{}
	s.mu.Unlock()

	if !already && s.onExpire != nil {
		s.onExpire(s.id)
	}
}

// Tokens returns the current token pair.
func (s *Session) Tokens() gateway.Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// CreatedAt is when the session was built in this process.
func (s *Session) CreatedAt() time.Time { return s.createdAt }
