// Package form implements the submission pipeline shared by the login and
// registration forms: validate, submit once, update caches, notify.
//
// A Pipeline belongs to one form of one client. Its state machine is
//
//	Idle -> Validating -> {Idle (field errors) | Submitting} -> Idle
//
// and a Submit that arrives while the state is not Idle is ignored.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/authportal/authportal-go/internal/apiclient"
	"github.com/authportal/authportal-go/internal/notify"
	"github.com/authportal/authportal-go/internal/validation"
)

// State is the position of a pipeline in its state machine.
type State int32

const (
	Idle State = iota
	Validating
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Status classifies how a Submit call ended.
type Status int

const (
	// StatusInvalid: validation failed, nothing was sent.
	StatusInvalid Status = iota + 1
	// StatusBusy: another submission of this form is in flight; ignored.
	StatusBusy
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusBusy:
		return "busy"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the terminal result of one Submit call.
type Outcome[R any] struct {
	Status  Status
	Errors  validation.FieldErrors
	Result  R
	Message string
	Err     error
}

// Messages are the notification texts of a form. Failure is the fallback
// used when the backend supplies no message of its own.
type Messages struct {
	Success string
	Failure string
}

type (
	ValidateFunc[T any]   func(input T) validation.FieldErrors
	SubmitFunc[T, R any]  func(ctx context.Context, input T) (R, error)
	SuccessHook[T, R any] func(ctx context.Context, input T, result R) (R, error)
	Option[T, R any]      func(*Pipeline[T, R])
)

// WithLogger sets the logger used for submission diagnostics.
func WithLogger[T, R any](log *slog.Logger) Option[T, R] {
	return func(p *Pipeline[T, R]) {
		p.log = log
	}
}

// WithOnSuccess runs hook after a successful submit and before the success
// notification. A hook error turns the outcome into a failure.
func WithOnSuccess[T, R any](hook SuccessHook[T, R]) Option[T, R] {
	return func(p *Pipeline[T, R]) {
		p.onSuccess = hook
	}
}

// Pipeline validates and submits one form.
type Pipeline[T, R any] struct {
	name      string
	validate  ValidateFunc[T]
	submit    SubmitFunc[T, R]
	onSuccess SuccessHook[T, R]
	notifier  notify.Notifier
	messages  Messages
	log       *slog.Logger
	state     atomic.Int32
}

// New creates a pipeline in the Idle state.
func New[T, R any](
	name string,
	validate ValidateFunc[T],
	submit SubmitFunc[T, R],
	notifier notify.Notifier,
	messages Messages,
	opts ...Option[T, R],
) *Pipeline[T, R] {
	if notifier == nil {
		notifier = notify.Discard
	}
	p := &Pipeline[T, R]{
		name:     name,
		validate: validate,
		submit:   submit,
		notifier: notifier,
		messages: messages,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state.
func (p *Pipeline[T, R]) State() State {
	return State(p.state.Load())
}

// Validate runs the schema without touching the pipeline state.
func (p *Pipeline[T, R]) Validate(input T) validation.FieldErrors {
	return p.validate(input)
}

// ValidateField returns the errors of one field, for field-change feedback.
func (p *Pipeline[T, R]) ValidateField(input T, field string) []string {
	return p.validate(input)[field]
}

// Submit validates input and, when valid, submits it exactly once.
// It never leaves the pipeline outside Idle on return.
func (p *Pipeline[T, R]) Submit(ctx context.Context, input T) (out Outcome[R]) {
	if !p.state.CompareAndSwap(int32(Idle), int32(Validating)) {
		p.log.Debug("submission ignored, form busy", "form", p.name, "state", p.State())
		return Outcome[R]{Status: StatusBusy}
	}

	// owned is true while this call holds the state; once it stores Idle a
	// concurrent Submit may take over.
	owned, notified := true, false
	release := func() {
		p.state.Store(int32(Idle))
		owned = false
	}
	notifyOnce := func(n notify.Notification) {
		notified = true
		p.notifier.Notify(ctx, n)
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s: panic during submission: %v", p.name, r)
			p.log.Error("form submission panicked", "form", p.name, "error", err)
			if owned {
				release()
			}
			if !notified {
				notifyOnce(notify.Failure(p.messages.Failure))
			}
			out = Outcome[R]{Status: StatusFailed, Message: p.messages.Failure, Err: err}
		}
	}()

	if errs := p.validate(input); !errs.Empty() {
		release()
		return Outcome[R]{Status: StatusInvalid, Errors: errs}
	}

	p.state.Store(int32(Submitting))
	result, err := p.submit(ctx, input)
	if err == nil && p.onSuccess != nil {
		result, err = p.onSuccess(ctx, input, result)
	}
	release()

	if err != nil {
		msg := MessageFor(err, p.messages.Failure)
		p.log.Error("form submission failed", "form", p.name, "error", err)
		notifyOnce(notify.Failure(msg))
		return Outcome[R]{Status: StatusFailed, Message: msg, Err: err}
	}

	notifyOnce(notify.Success(p.messages.Success))
	return Outcome[R]{Status: StatusSucceeded, Result: result, Message: p.messages.Success}
}

// MessageFor returns the backend's message carried by err, or fallback when
// err carries none. It accepts any error, including nil.
func MessageFor(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}
