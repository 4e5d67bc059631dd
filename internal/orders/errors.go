package orders

import "errors"

var (
	// ErrSubmitInFlight is returned when a dialog is submitted again before
	// its previous request finished.
	ErrSubmitInFlight = errors.New("a request for this action is already in progress")
	// ErrDialogClosed is returned when a closed dialog is edited or submitted.
	ErrDialogClosed = errors.New("dialog is not open")
	// ErrActionUnavailable is returned when an action is not offered for the
	// order in its current state.
	ErrActionUnavailable = errors.New("action is not available for this order")
	// ErrNotLoaded is returned when an action needs order details that have
	// not been fetched.
	ErrNotLoaded = errors.New("order details are not loaded")
	// ErrUnknownTab is returned by SwitchTab for tabs the view does not have.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrUnknownDialog is returned for dialog names the view does not have.
	ErrUnknownDialog = errors.New("unknown dialog")
	// ErrMalformedDraft is returned when a draft patch is not a JSON object of
	// the dialog's fields.
	ErrMalformedDraft = errors.New("malformed draft")
)

// ValidationError is a client-side rule failure. It blocks submission before
// any network call.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// FieldErrors aggregates per-field messages, used for creation forms where the
// gateway reports several failures at once.
type FieldErrors map[string]string

// Add records msg for field unless one is already recorded.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Empty reports whether no field failed.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}
