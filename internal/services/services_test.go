package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/materialsdesk/internal/database"
	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/models"
	"github.com/example/materialsdesk/internal/orders"
	"github.com/example/materialsdesk/internal/session"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var testKey = [32]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}

type fakeRefresher struct {
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*gateway.Tokens, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Tokens{AccessToken: "rotated-" + refreshToken, RefreshToken: "refresh-2"}, nil
}

func sampleLogin() *gateway.LoginResult {
	return &gateway.LoginResult{
		User: gateway.User{
			ID:          "u-1",
			Name:        "Priya Nair",
			Email:       "priya@materials.in",
			Role:        "admin",
			Permissions: []string{"orders.update"},
		},
		Tokens: gateway.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"},
	}
}

func TestSessionStore_CreateSealsTokens(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db, testKey, time.Hour, &fakeRefresher{})

	record, sess, err := store.Create(context.Background(), sampleLogin())
	require.NoError(t, err)
	assert.Equal(t, record.ID.String(), sess.ID())
	assert.True(t, sess.HasPermission("orders.update"))

	var stored models.AdminSession
	require.NoError(t, db.First(&stored, "id = ?", record.ID).Error)
	assert.NotEmpty(t, stored.AccessTokenSealed)
	assert.NotContains(t, stored.AccessTokenSealed, "access-1")
	assert.Equal(t, []string{"orders.update"}, stored.Permissions)
}

func TestSessionStore_ReloadsAfterRestart(t *testing.T) {
	db := testDB(t)
	record, _, err := NewSessionStore(db, testKey, time.Hour, &fakeRefresher{}).Create(context.Background(), sampleLogin())
	require.NoError(t, err)

	restarted := NewSessionStore(db, testKey, time.Hour, &fakeRefresher{})
	sess, err := restarted.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-1", sess.AccessToken())
	assert.Equal(t, "Priya Nair", sess.CurrentUser().Name)
	assert.True(t, sess.HasRole("ADMIN"))

	again, err := restarted.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Same(t, sess, again)

	wrongKey := NewSessionStore(db, [32]byte{}, time.Hour, nil)
	_, err = wrongKey.Get(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_ExpiredAndUnknown(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db, testKey, time.Hour, nil)
	record, _, err := store.Create(context.Background(), sampleLogin())
	require.NoError(t, err)

	later := NewSessionStore(db, testKey, time.Hour, nil)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Get(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_RotationIsPersisted(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db, testKey, time.Hour, &fakeRefresher{})
	record, sess, err := store.Create(context.Background(), sampleLogin())
	require.NoError(t, err)

	token, err := sess.Refresh(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh-1", token)

	fresh := NewSessionStore(db, testKey, time.Hour, nil)
	reloaded, err := fresh.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh-1", reloaded.AccessToken())
	assert.Equal(t, "refresh-2", reloaded.Tokens().RefreshToken)
}

func TestSessionStore_RevokeRunsEndHooks(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db, testKey, time.Hour, nil)
	var ended []uuid.UUID
	store.OnEnd(func(id uuid.UUID) { ended = append(ended, id) })

	record, sess, err := store.Create(context.Background(), sampleLogin())
	require.NoError(t, err)
	require.NoError(t, store.Revoke(context.Background(), record.ID, "logout"))

	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, []uuid.UUID{record.ID}, ended)
	_, err = store.Get(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var stored models.AdminSession
	require.NoError(t, db.First(&stored, "id = ?", record.ID).Error)
	assert.NotNil(t, stored.RevokedAt)
	assert.Equal(t, "logout", stored.RevokeReason)
	assert.Empty(t, stored.AccessTokenSealed)
}

func TestSessionStore_GatewayExpiryRevokes(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db, testKey, time.Hour, &fakeRefresher{err: errors.New("revoked")})
	var ended int
	store.OnEnd(func(uuid.UUID) { ended++ })

	record, sess, err := store.Create(context.Background(), sampleLogin())
	require.NoError(t, err)
	sess.Expire()

	assert.Equal(t, 1, ended)
	var stored models.AdminSession
	require.NoError(t, db.First(&stored, "id = ?", record.ID).Error)
	assert.Equal(t, "gateway session expired", stored.RevokeReason)
}

type stubGateway struct {
	mu      sync.Mutex
	details orders.OrderDetails
	err     error
}

func (g *stubGateway) GetOrderDetails(context.Context, string) (*orders.OrderDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.details
	return &d, nil
}

func (g *stubGateway) set(status orders.Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.details.Order.OrderStatus = status
	return nil
}

func (g *stubGateway) MarkPaymentDone(context.Context, string, orders.Payload) error {
	return g.set(orders.StatusPaymentDone)
}
func (g *stubGateway) ConfirmOrder(context.Context, string, orders.Payload) error {
	return g.set(orders.StatusOrderConfirmed)
}
func (g *stubGateway) UpdateOrderStatus(_ context.Context, _ string, p orders.Payload) error {
	return g.set(orders.Status(p["orderStatus"].(string)))
}
func (g *stubGateway) UpdateDelivery(context.Context, string, orders.Payload) error { return g.err }
func (g *stubGateway) MarkAsDelivered(context.Context, string, orders.Payload) error {
	return g.set(orders.StatusDelivered)
}
func (g *stubGateway) CancelOrder(context.Context, string, orders.Payload) error {
	return g.set(orders.StatusCancelled)
}

func newTestSession() *session.Session {
	return session.New(uuid.NewString(), sampleLogin().User, sampleLogin().Tokens, nil)
}

func TestWorkspace_ViewsArePerSession(t *testing.T) {
	gw := &stubGateway{}
	ws := NewWorkspace(func(*session.Session) orders.Gateway { return gw }, nil, nil)
	a, b := newTestSession(), newTestSession()

	va := ws.View(a, "LD-1")
	assert.Same(t, va, ws.View(a, "LD-1"))
	assert.NotSame(t, va, ws.View(b, "LD-1"))

	_, ok := ws.Lookup(a, "LD-2")
	assert.False(t, ok)

	assert.True(t, ws.Close(a, "LD-1"))
	assert.False(t, ws.Close(a, "LD-1"))
	_, ok = ws.Lookup(a, "LD-1")
	assert.False(t, ok)

	ws.View(b, "LD-7")
	id, _ := uuid.Parse(b.ID())
	ws.Drop(id)
	_, ok = ws.Lookup(b, "LD-7")
	assert.False(t, ok)
}

func TestWorkspace_AuditsSubmits(t *testing.T) {
	db := testDB(t)
	audit := NewAuditService(db, nil)
	gw := &stubGateway{details: orders.OrderDetails{Order: orders.Order{LeadID: "LD-1", OrderStatus: orders.StatusOrderPlaced, TotalAmount: 50000}}}
	ws := NewWorkspace(func(*session.Session) orders.Gateway { return gw }, time.UTC, audit)

	var changed []orders.Event
	ws.OnChange(func(_ context.Context, _ *session.Session, ev orders.Event) { changed = append(changed, ev) })

	sess := newTestSession()
	view := ws.View(sess, "LD-1")
	ctx := context.Background()
	require.NoError(t, view.Open(ctx))
	require.NoError(t, view.OpenPaymentDialog())
	require.NoError(t, view.SubmitPayment(ctx))

	gw.err = &gateway.APIError{Status: 409, Message: "Order already cancelled"}
	require.NoError(t, view.OpenCancelDialog())
	require.NoError(t, view.UpdateCancelDraft(func(d *orders.CancelDraft) { d.Reason = "duplicate" }))
	require.Error(t, view.SubmitCancel(ctx))

	actions, err := audit.List(ctx, "LD-1", 10)
	require.NoError(t, err)
	require.Len(t, actions, 2)

	byAction := map[string]models.OrderAction{}
	for _, a := range actions {
		byAction[a.Action] = a
	}
	pay := byAction[orders.DialogPayment]
	assert.True(t, pay.Succeeded)
	assert.Equal(t, "payment_done", pay.ResultStatus)
	assert.Equal(t, "priya@materials.in", pay.ActorEmail)
	assert.JSONEq(t, `{"paidAmount":50000}`, pay.Payload)

	cancel := byAction[orders.DialogCancel]
	assert.False(t, cancel.Succeeded)
	assert.Equal(t, "Order already cancelled", cancel.Message)

	require.Len(t, changed, 2)
	assert.Equal(t, orders.StatusPaymentDone, changed[0].Status)
}

func TestAudit_NotifiesTelegramOnSuccess(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botbot-token/sendMessage", r.URL.Path)
		var msg telegramMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "-100500", msg.ChatID)
		texts = append(texts, msg.Text)
	}))
	defer srv.Close()

	tg := NewTelegramService("bot-token", "-100500")
	tg.apiURL = srv.URL
	audit := NewAuditService(testDB(t), tg)
	audit.notify = func(fn func()) { fn() }

	sess := newTestSession()
	ctx := context.Background()
	audit.Record(ctx, sess, orders.Event{LeadID: "LD-3", Action: orders.DialogCancel, Payload: orders.Payload{"reason": "Site closed <monsoon>"}, Status: orders.StatusCancelled, Customer: "Shree Builders"})
	audit.Record(ctx, sess, orders.Event{LeadID: "LD-3", Action: orders.DialogStatus, Err: errors.New("boom")})

	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "ORDER CANCELLED")
	assert.Contains(t, texts[0], "Site closed &lt;monsoon&gt;")
	assert.Contains(t, texts[0], "Cancelled")
	assert.Contains(t, texts[0], "Priya Nair")
	assert.Contains(t, texts[0], "<b>👤 Customer:</b> Shree Builders")
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "₹999", FormatRupees(decimal.NewFromInt(999)))
	assert.Equal(t, "₹1,000", FormatRupees(decimal.NewFromInt(1000)))
	assert.Equal(t, "₹1,23,456.50", FormatRupees(decimal.RequireFromString("123456.5")))
	assert.Equal(t, "₹12,34,56,789", FormatRupees(decimal.NewFromInt(123456789)))
	assert.Equal(t, "-₹50,000", FormatRupees(decimal.NewFromInt(-50000)))
}

func TestFormatOrderEvent_Payment(t *testing.T) {
	text := FormatOrderEvent(OrderEventNotification{
		LeadID: "LD-9",
		Action: orders.DialogPayment,
		Status: orders.StatusPaymentDone,
		Amount: decimal.NewFromInt(50000),
	})
	assert.Contains(t, text, "PAYMENT RECORDED")
	assert.Contains(t, text, "₹50,000")
	assert.NotContains(t, text, "Reason")
}
