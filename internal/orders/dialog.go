package orders

import "context"

// FormDialog is the open/draft/loading/error lifecycle shared by every order
// workflow. D is the draft the admin edits, P the payload sent to the gateway.
// The owning Controller serialises access; FormDialog itself is not locked.
type FormDialog[D, P any] struct {
	name    string
	prepare func(D) (P, error)
	send    func(context.Context, P) error

	open    bool
	draft   D
	loading bool
	message string
}

func newFormDialog[D, P any](name string, prepare func(D) (P, error), send func(context.Context, P) error) *FormDialog[D, P] {
	return &FormDialog[D, P]{name: name, prepare: prepare, send: send}
}

type cloner[D any] interface {
	clone() D
}

func copyDraft[D any](d D) D {
	if c, ok := any(d).(cloner[D]); ok {
		return c.clone()
	}
	return d
}

// Name identifies the workflow.
func (f *FormDialog[D, P]) Name() string { return f.name }

// IsOpen reports whether the dialog is showing.
func (f *FormDialog[D, P]) IsOpen() bool { return f.open }

// Loading reports whether a submit is outstanding.
func (f *FormDialog[D, P]) Loading() bool { return f.loading }

// Message is the last blocking error shown in the dialog.
func (f *FormDialog[D, P]) Message() string { return f.message }

// Draft returns a copy of the working draft.
func (f *FormDialog[D, P]) Draft() D { return copyDraft(f.draft) }

func (f *FormDialog[D, P]) show(draft D) {
	f.open = true
	f.draft = draft
	f.loading = false
	f.message = ""
}

func (f *FormDialog[D, P]) hide() {
	var zero D
	f.open = false
	f.draft = zero
	f.loading = false
	f.message = ""
}

func (f *FormDialog[D, P]) edit(fn func(*D)) error {
	if !f.open {
		return ErrDialogClosed
	}
	if f.loading {
		return ErrSubmitInFlight
	}
	fn(&f.draft)
	return nil
}

// begin validates the draft and raises the loading flag. A validation failure
// leaves the dialog open with the draft untouched.
func (f *FormDialog[D, P]) begin() (P, error) {
	var zero P
	if !f.open {
		return zero, ErrDialogClosed
	}
	if f.loading {
		return zero, ErrSubmitInFlight
	}
	payload, err := f.prepare(copyDraft(f.draft))
	if err != nil {
		f.message = err.Error()
		return zero, err
	}
	f.loading = true
	f.message = ""
	return payload, nil
}

// fail clears the loading flag and keeps the draft for correction.
func (f *FormDialog[D, P]) fail(msg string) {
	f.loading = false
	f.message = msg
}

// DialogView is a serialisable snapshot of one dialog.
type DialogView struct {
	Name    string `json:"name"`
	Open    bool   `json:"open"`
	Loading bool   `json:"loading"`
	Message string `json:"message,omitempty"`
	Draft   any    `json:"draft,omitempty"`
}

func (f *FormDialog[D, P]) view() DialogView {
	v := DialogView{Name: f.name, Open: f.open, Loading: f.loading, Message: f.message}
	if f.open {
		v.Draft = copyDraft(f.draft)
	}
	return v
}
