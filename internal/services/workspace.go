package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/materialsdesk/internal/orders"
	"github.com/example/materialsdesk/internal/session"
)

// GatewayFactory binds the order gateway to one admin session.
type GatewayFactory func(sess *session.Session) orders.Gateway

// Workspace keeps the open order detail views of every admin session.
type Workspace struct {
	newGateway GatewayFactory
	loc        *time.Location
	audit      *AuditService
	onChange   func(ctx context.Context, sess *session.Session, ev orders.Event)

	mu    sync.Mutex
	views map[uuid.UUID]map[string]*orders.Controller
}

// NewWorkspace constructs a Workspace. audit may be nil.
func NewWorkspace(newGateway GatewayFactory, loc *time.Location, audit *AuditService) *Workspace {
	if loc == nil {
		loc = time.UTC
	}
	return &Workspace{
		newGateway: newGateway,
		loc:        loc,
		audit:      audit,
		views:      make(map[uuid.UUID]map[string]*orders.Controller),
	}
}

// View returns the session's controller for leadID, creating a closed one if
// needed.
func (w *Workspace) View(sess *session.Session, leadID string) *orders.Controller {
	sid := sessionKey(sess)

	w.mu.Lock()
	defer w.mu.Unlock()
	byLead, ok := w.views[sid]
	if !ok {
		byLead = make(map[string]*orders.Controller)
		w.views[sid] = byLead
	}
	if c, ok := byLead[leadID]; ok {
		return c
	}

	c := orders.NewController(leadID, w.newGateway(sess),
		orders.WithLocation(w.loc),
		orders.WithEventHook(w.hook(sess)),
	)
	byLead[leadID] = c
	return c
}

// Lookup returns an existing controller without creating one.
func (w *Workspace) Lookup(sess *session.Session, leadID string) (*orders.Controller, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.views[sessionKey(sess)][leadID]
	return c, ok
}

// Close closes and forgets the session's view of leadID.
func (w *Workspace) Close(sess *session.Session, leadID string) bool {
	sid := sessionKey(sess)

	w.mu.Lock()
	c, ok := w.views[sid][leadID]
	if ok {
		delete(w.views[sid], leadID)
	}
	w.mu.Unlock()

	if ok {
		c.Close()
	}
	return ok
}

// Drop closes every view of a session. It is registered as a SessionStore
// end hook.
func (w *Workspace) Drop(id uuid.UUID) {
	w.mu.Lock()
	byLead := w.views[id]
	delete(w.views, id)
	w.mu.Unlock()

	for _, c := range byLead {
		c.Close()
	}
	if len(byLead) > 0 {
		log.Printf("[Workspace] closed %d order views of session %s", len(byLead), id)
	}
}

// OnChange registers fn to run after every workflow submit, after auditing.
func (w *Workspace) OnChange(fn func(ctx context.Context, sess *session.Session, ev orders.Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

func (w *Workspace) hook(sess *session.Session) func(context.Context, orders.Event) {
	return func(ctx context.Context, ev orders.Event) {
		if w.audit != nil {
			w.audit.Record(ctx, sess, ev)
		}
		w.mu.Lock()
		fn := w.onChange
		w.mu.Unlock()
		if fn != nil {
			fn(ctx, sess, ev)
		}
	}
}

func sessionKey(sess *session.Session) uuid.UUID {
	id, err := uuid.Parse(sess.ID())
	if err != nil {
		// non-uuid ids still get a stable key
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sess.ID()))
	}
	return id
}
