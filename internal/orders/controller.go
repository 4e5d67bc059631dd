package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Gateway is the subset of the remote order API the detail view drives.
type Gateway interface {
	GetOrderDetails(ctx context.Context, leadID string) (*OrderDetails, error)
	MarkPaymentDone(ctx context.Context, leadID string, payload Payload) error
	ConfirmOrder(ctx context.Context, leadID string, payload Payload) error
	UpdateOrderStatus(ctx context.Context, leadID string, payload Payload) error
	UpdateDelivery(ctx context.Context, leadID string, payload Payload) error
	MarkAsDelivered(ctx context.Context, leadID string, payload Payload) error
	CancelOrder(ctx context.Context, leadID string, payload Payload) error
}

// ViewState is the lifecycle of one order detail view.
type ViewState string

const (
	ViewClosed     ViewState = "closed"
	ViewLoading    ViewState = "loading"
	ViewLoaded     ViewState = "loaded"
	ViewSubmitting ViewState = "submitting"
	ViewError      ViewState = "error"
)

// Tab is a section of the detail view.
type Tab string

const (
	TabDetails      Tab = "details"
	TabPayment      Tab = "payment"
	TabConfirmOrder Tab = "confirmOrder"
	TabStatus       Tab = "status"
)

func (t Tab) valid() bool {
	switch t {
	case TabDetails, TabPayment, TabConfirmOrder, TabStatus:
		return true
	}
	return false
}

// Dialog names.
const (
	DialogPayment   = "payment"
	DialogStatus    = "status"
	DialogDelivery  = "delivery"
	DialogCancel    = "cancel"
	DialogConfirm   = "confirm"
	DialogDelivered = "delivered"
)

// DialogNames lists every workflow dialog.
func DialogNames() []string {
	return []string{DialogPayment, DialogStatus, DialogDelivery, DialogCancel, DialogConfirm, DialogDelivered}
}

const loadFailedMessage = "Failed to load order details"

// Event describes a workflow submit that reached the gateway.
type Event struct {
	LeadID  string
	Action  string
	Payload Payload
	// Status is the order status after the re-fetch; empty when it failed.
	Status Status
	// Customer is the customer name from the re-fetched order, if known.
	Customer string
	Err      error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLocation sets the zone used to read datetime-local input.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithEventHook registers fn to run after every submit that reached the gateway.
func WithEventHook(fn func(context.Context, Event)) Option {
	return func(c *Controller) { c.hook = fn }
}

// Controller is the order detail view: it fetches an order, hosts the workflow
// dialogs and re-fetches after every successful mutation. Methods are safe for
// concurrent use; the lock is not held across gateway calls.
type Controller struct {
	leadID string
	gw     Gateway
	loc    *time.Location
	now    func() time.Time
	hook   func(context.Context, Event)

	mu         sync.Mutex
	generation uint64
	state      ViewState
	tab        Tab
	details    *OrderDetails
	errMsg     string

	payment   *FormDialog[PaymentDraft, Payload]
	status    *FormDialog[StatusDraft, Payload]
	delivery  *FormDialog[DeliveryDraft, Payload]
	cancel    *FormDialog[CancelDraft, Payload]
	confirm   *FormDialog[ConfirmDraft, Payload]
	delivered *FormDialog[DeliveredDraft, Payload]

	dialogs map[string]dialogBinding
}

// NewController builds a closed view for leadID.
func NewController(leadID string, gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		leadID: leadID,
		gw:     gw,
		loc:    time.UTC,
		now:    time.Now,
		state:  ViewClosed,
		tab:    TabDetails,
	}
	for _, opt := range opts {
		opt(c)
	}

	send := func(fn func(context.Context, string, Payload) error) func(context.Context, Payload) error {
		return func(ctx context.Context, p Payload) error { return fn(ctx, c.leadID, p) }
	}

	c.payment = newFormDialog(DialogPayment, func(d PaymentDraft) (Payload, error) {
		return preparePayment(c.details.Order.TotalAmount, d, c.loc)
	}, send(gw.MarkPaymentDone))
	c.status = newFormDialog(DialogStatus, func(d StatusDraft) (Payload, error) {
		return prepareStatus(c.details.Order.OrderStatus, d)
	}, send(gw.UpdateOrderStatus))
	c.delivery = newFormDialog(DialogDelivery, func(d DeliveryDraft) (Payload, error) {
		return prepareDelivery(d, c.loc)
	}, send(gw.UpdateDelivery))
	c.cancel = newFormDialog(DialogCancel, prepareCancel, send(gw.CancelOrder))
	c.confirm = newFormDialog(DialogConfirm, func(d ConfirmDraft) (Payload, error) {
		return prepareConfirm(d, c.loc)
	}, send(gw.ConfirmOrder))
	c.delivered = newFormDialog(DialogDelivered, func(d DeliveredDraft) (Payload, error) {
		return prepareDelivered(d, c.loc, c.now())
	}, send(gw.MarkAsDelivered))

	c.dialogs = map[string]dialogBinding{
		DialogPayment: &binding[PaymentDraft]{
			dialog:  c.payment,
			allowed: func(a Actions) bool { return a.Payment },
			seed:    paymentDraftFrom,
		},
		DialogStatus: &binding[StatusDraft]{
			dialog:  c.status,
			allowed: func(a Actions) bool { return a.UpdateStatus },
			seed:    statusDraftFrom,
		},
		DialogDelivery: &binding[DeliveryDraft]{
			dialog:  c.delivery,
			allowed: func(a Actions) bool { return a.UpdateDelivery },
			seed: func(d *OrderDetails) DeliveryDraft {
				return deliveryDraftFrom(d, func(t *time.Time) string { return draftTime(t, c.loc) })
			},
		},
		DialogCancel: &binding[CancelDraft]{
			dialog:  c.cancel,
			allowed: func(a Actions) bool { return a.Cancel },
			seed:    func(*OrderDetails) CancelDraft { return CancelDraft{} },
		},
		DialogConfirm: &binding[ConfirmDraft]{
			dialog:  c.confirm,
			allowed: func(a Actions) bool { return a.Confirm },
			seed:    func(*OrderDetails) ConfirmDraft { return ConfirmDraft{} },
		},
		DialogDelivered: &binding[DeliveredDraft]{
			dialog:  c.delivered,
			allowed: func(a Actions) bool { return a.MarkDelivered },
			seed: func(*OrderDetails) DeliveredDraft {
				return DeliveredDraft{DeliveredDate: c.now().In(c.loc).Format("2006-01-02")}
			},
		},
	}
	return c
}

// LeadID returns the order this view belongs to.
func (c *Controller) LeadID() string { return c.leadID }

// Open fetches the order and lands on the details tab. Dialogs from an
// earlier load are discarded, including one whose submit is still out.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = ViewLoading
	c.tab = TabDetails
	c.errMsg = ""
	for _, b := range c.dialogs {
		b.reset()
	}
	c.mu.Unlock()

	return c.fetch(ctx, gen)
}

// Refresh re-fetches the order without leaving the current tab.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state == ViewClosed {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	gen := c.generation
	c.mu.Unlock()

	return c.fetch(ctx, gen)
}

func (c *Controller) fetch(ctx context.Context, gen uint64) error {
	details, err := c.gw.GetOrderDetails(ctx, c.leadID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// closed or reopened while the request was out; the view is left alone
		return err
	}
	if err != nil {
		c.state = ViewError
		c.errMsg = messageOf(err, loadFailedMessage)
		return err
	}
	if details == nil {
		c.state = ViewError
		c.errMsg = loadFailedMessage
		return errors.New("gateway returned no order details")
	}
	c.details = details
	c.state = ViewLoaded
	c.errMsg = ""
	return nil
}

// Close discards every draft and returns the view to closed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state = ViewClosed
	c.tab = TabDetails
	c.details = nil
	c.errMsg = ""
	for _, b := range c.dialogs {
		b.reset()
	}
}

// SwitchTab changes the visible section. No network call is made.
func (c *Controller) SwitchTab(tab Tab) error {
	if !tab.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.details == nil {
		return ErrNotLoaded
	}
	c.tab = tab
	return nil
}

// Actions lists which workflows the view offers for the loaded order.
type Actions struct {
	Payment        bool     `json:"payment"`
	UpdateStatus   bool     `json:"updateStatus"`
	UpdateDelivery bool     `json:"updateDelivery"`
	Cancel         bool     `json:"cancel"`
	Confirm        bool     `json:"confirm"`
	MarkDelivered  bool     `json:"markDelivered"`
	Transitions    []Status `json:"transitions"`
}

// Actions reports the workflows currently offered.
func (c *Controller) Actions() Actions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actionsLocked()
}

func (c *Controller) actionsLocked() Actions {
	if c.details == nil {
		return Actions{Transitions: []Status{}}
	}
	st := c.details.Order.OrderStatus
	terminal := st.IsTerminal()
	return Actions{
		Payment:        c.details.paymentStatus() != PaymentStatusCompleted && st != StatusCancelled,
		UpdateStatus:   !terminal,
		UpdateDelivery: !terminal,
		Cancel:         !terminal,
		Confirm:        st == StatusVendorAccepted || st == StatusPaymentDone,
		MarkDelivered:  !terminal,
		Transitions:    AllowedTransitions(st),
	}
}

// Snapshot is a point-in-time copy of the view.
type Snapshot struct {
	LeadID  string        `json:"leadId"`
	State   ViewState     `json:"state"`
	Tab     Tab           `json:"tab"`
	Error   string        `json:"error,omitempty"`
	Details *OrderDetails `json:"details,omitempty"`
	Actions Actions       `json:"actions"`
	Dialogs []DialogView  `json:"dialogs"`
}

// Snapshot returns the current view. Details are shared, not copied; they are
// replaced wholesale on every fetch and never mutated.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		LeadID:  c.leadID,
		State:   c.state,
		Tab:     c.tab,
		Error:   c.errMsg,
		Details: c.details,
		Actions: c.actionsLocked(),
		Dialogs: make([]DialogView, 0, len(c.dialogs)),
	}
	for _, name := range DialogNames() {
		v := c.dialogs[name].view()
		if v.Loading && s.State == ViewLoaded {
			s.State = ViewSubmitting
		}
		s.Dialogs = append(s.Dialogs, v)
	}
	return s
}

// OpenDialog opens the named workflow dialog with a fresh draft seeded from
// the loaded order.
func (c *Controller) OpenDialog(name string) error {
	b, err := c.binding(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.details == nil {
		return ErrNotLoaded
	}
	return b.open(c.details, c.actionsLocked())
}

// PatchDialog merges a JSON object into the named dialog's draft.
func (c *Controller) PatchDialog(name string, patch []byte) error {
	b, err := c.binding(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return b.patch(patch)
}

// CloseDialog discards the named dialog's draft.
func (c *Controller) CloseDialog(name string) error {
	b, err := c.binding(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return b.close()
}

// SubmitDialog runs the named workflow.
func (c *Controller) SubmitDialog(ctx context.Context, name string) error {
	switch name {
	case DialogPayment:
		return c.SubmitPayment(ctx)
	case DialogStatus:
		return c.SubmitStatus(ctx)
	case DialogDelivery:
		return c.SubmitDelivery(ctx)
	case DialogCancel:
		return c.SubmitCancel(ctx)
	case DialogConfirm:
		return c.SubmitConfirm(ctx)
	case DialogDelivered:
		return c.SubmitDelivered(ctx)
	}
	return fmt.Errorf("%w: %q", ErrUnknownDialog, name)
}

func (c *Controller) binding(name string) (dialogBinding, error) {
	b, ok := c.dialogs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialog, name)
	}
	return b, nil
}

// OpenPaymentDialog opens the manual payment dialog, prefilled with the order total.
func (c *Controller) OpenPaymentDialog() error { return c.OpenDialog(DialogPayment) }

// OpenStatusDialog opens the status transition dialog.
func (c *Controller) OpenStatusDialog() error { return c.OpenDialog(DialogStatus) }

// OpenDeliveryDialog opens the delivery update dialog.
func (c *Controller) OpenDeliveryDialog() error { return c.OpenDialog(DialogDelivery) }

// OpenCancelDialog opens the cancellation dialog.
func (c *Controller) OpenCancelDialog() error { return c.OpenDialog(DialogCancel) }

// OpenConfirmDialog opens the order confirmation dialog.
func (c *Controller) OpenConfirmDialog() error { return c.OpenDialog(DialogConfirm) }

// OpenDeliveredDialog opens the delivered confirmation dialog.
func (c *Controller) OpenDeliveredDialog() error { return c.OpenDialog(DialogDelivered) }

// UpdatePaymentDraft edits the open payment draft.
func (c *Controller) UpdatePaymentDraft(fn func(*PaymentDraft)) error {
	return editDialog(c, c.payment, fn)
}

// UpdateStatusDraft edits the open status draft.
func (c *Controller) UpdateStatusDraft(fn func(*StatusDraft)) error {
	return editDialog(c, c.status, fn)
}

// UpdateDeliveryDraft edits the open delivery draft.
func (c *Controller) UpdateDeliveryDraft(fn func(*DeliveryDraft)) error {
	return editDialog(c, c.delivery, fn)
}

// UpdateCancelDraft edits the open cancel draft.
func (c *Controller) UpdateCancelDraft(fn func(*CancelDraft)) error {
	return editDialog(c, c.cancel, fn)
}

// UpdateConfirmDraft edits the open confirm draft.
func (c *Controller) UpdateConfirmDraft(fn func(*ConfirmDraft)) error {
	return editDialog(c, c.confirm, fn)
}

// UpdateDeliveredDraft edits the open delivered draft.
func (c *Controller) UpdateDeliveredDraft(fn func(*DeliveredDraft)) error {
	return editDialog(c, c.delivered, fn)
}

// PaymentDraft returns a copy of the payment draft.
func (c *Controller) PaymentDraft() PaymentDraft { return draftOf(c, c.payment) }

// StatusDraft returns a copy of the status draft.
func (c *Controller) StatusDraft() StatusDraft { return draftOf(c, c.status) }

// DeliveryDraft returns a copy of the delivery draft.
func (c *Controller) DeliveryDraft() DeliveryDraft { return draftOf(c, c.delivery) }

// SubmitPayment records a manual payment.
func (c *Controller) SubmitPayment(ctx context.Context) error {
	return submitDialog(ctx, c, c.payment)
}

// SubmitStatus transitions the order status, with item pricing and shipping
// details when the target is vendor_accepted.
func (c *Controller) SubmitStatus(ctx context.Context) error {
	return submitDialog(ctx, c, c.status)
}

// SubmitDelivery updates the delivery sub-record.
func (c *Controller) SubmitDelivery(ctx context.Context) error {
	return submitDialog(ctx, c, c.delivery)
}

// SubmitCancel cancels the order.
func (c *Controller) SubmitCancel(ctx context.Context) error {
	return submitDialog(ctx, c, c.cancel)
}

// SubmitConfirm confirms the order after vendor pricing.
func (c *Controller) SubmitConfirm(ctx context.Context) error {
	return submitDialog(ctx, c, c.confirm)
}

// SubmitDelivered marks the order delivered.
func (c *Controller) SubmitDelivered(ctx context.Context) error {
	return submitDialog(ctx, c, c.delivered)
}

func editDialog[D any](c *Controller, d *FormDialog[D, Payload], fn func(*D)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return d.edit(fn)
}

func draftOf[D any](c *Controller, d *FormDialog[D, Payload]) D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return d.Draft()
}

// submitDialog validates under the lock, sends without it, then closes the
// dialog and re-fetches. A failed send keeps the dialog and its draft.
func submitDialog[D any](ctx context.Context, c *Controller, d *FormDialog[D, Payload]) error {
	c.mu.Lock()
	if c.details == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	payload, err := d.begin()
	gen := c.generation
	c.mu.Unlock()
	if err != nil {
		return err
	}

	// A dialog reset by Open or Close while the request was out belongs to
	// the newer load; the outcome of this submit must not touch it.
	if err := d.send(ctx, payload); err != nil {
		c.mu.Lock()
		if gen == c.generation {
			d.fail(messageOf(err, fmt.Sprintf("Failed to submit %s update", d.Name())))
		}
		c.mu.Unlock()
		c.emit(ctx, Event{LeadID: c.leadID, Action: d.Name(), Payload: payload, Err: err})
		return err
	}

	c.mu.Lock()
	if gen == c.generation {
		d.hide()
	}
	c.mu.Unlock()

	// The mutation is done; a failed reload is reported through the view state.
	_ = c.fetch(ctx, gen)

	ev := Event{LeadID: c.leadID, Action: d.Name(), Payload: payload}
	c.mu.Lock()
	if c.details != nil && c.state != ViewError {
		ev.Status = c.details.Order.OrderStatus
		if cust := c.details.Order.Customer; cust != nil {
			ev.Customer = firstNonBlank(cust.Name, cust.Company)
		}
	}
	c.mu.Unlock()
	c.emit(ctx, ev)
	return nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trim(v) != "" {
			return trim(v)
		}
	}
	return ""
}

func (c *Controller) emit(ctx context.Context, ev Event) {
	if c.hook != nil {
		c.hook(ctx, ev)
	}
}

type userMessager interface {
	UserMessage() string
}

// messageOf picks the message shown to the admin: the gateway's own message
// when it sent one, otherwise fallback.
func messageOf(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// dialogBinding adapts a typed FormDialog to name-based access.
type dialogBinding interface {
	open(details *OrderDetails, actions Actions) error
	patch(raw []byte) error
	close() error
	reset()
	view() DialogView
}

type binding[D any] struct {
	dialog  *FormDialog[D, Payload]
	allowed func(Actions) bool
	seed    func(*OrderDetails) D
}

func (b *binding[D]) open(details *OrderDetails, actions Actions) error {
	if !b.allowed(actions) {
		return ErrActionUnavailable
	}
	if b.dialog.loading {
		return ErrSubmitInFlight
	}
	b.dialog.show(b.seed(details))
	return nil
}

func (b *binding[D]) patch(raw []byte) error {
	var decodeErr error
	err := b.dialog.edit(func(d *D) {
		next := copyDraft(*d)
		if decodeErr = json.Unmarshal(raw, &next); decodeErr == nil {
			*d = next
		}
	})
	if err != nil {
		return err
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedDraft, b.dialog.name, decodeErr)
	}
	return nil
}

func (b *binding[D]) close() error {
	if b.dialog.loading {
		return ErrSubmitInFlight
	}
	b.dialog.hide()
	return nil
}

func (b *binding[D]) reset() {
	b.dialog.hide()
}

func (b *binding[D]) view() DialogView {
	return b.dialog.view()
}
