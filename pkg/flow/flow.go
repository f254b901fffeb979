package flow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-formflow/pkg/document"
	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/relay"
	"github.com/goliatone/go-formflow/pkg/snapshot"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// LocalOnlyMessage is the success detail when no relay credential is set.
const LocalOnlyMessage = "Local save + PDF complete (no network send configured)"

var (
	// ErrValidation is returned when the form fails validation.
	ErrValidation = errors.New("flow: validation failed")
	// ErrDeclined is returned when the confirmation hook rejects the snapshot.
	ErrDeclined = errors.New("flow: submission declined")
	// ErrSubmitInProgress is returned when a submission is already running.
	ErrSubmitInProgress = errors.New("flow: submission already in progress")
)

// Saver persists snapshots.
type Saver interface {
	Save(ctx context.Context, snap snapshot.Snapshot) error
}

// Sender relays forms to an external endpoint.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, form model.Form) (relay.Response, error)
}

// Confirmer lets a user review the snapshot before anything is rendered,
// stored or sent. Returning false aborts the submission.
type Confirmer interface {
	Confirm(ctx context.Context, snap snapshot.Snapshot) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, snap snapshot.Snapshot) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(ctx context.Context, snap snapshot.Snapshot) (bool, error) {
	return f(ctx, snap)
}

// Outcome reports what a submission produced.
type Outcome struct {
	Validation validation.Result
	Snapshot   *snapshot.Snapshot
	Document   []byte
	Filename   string
	Relay      *relay.Response
	Sent       bool
	Redirect   string
}

// Option customises a Flow.
type Option func(*Flow)

func WithValidator(v *validation.Validator) Option {
	return func(f *Flow) { f.validator = v }
}

func WithBuilder(b *snapshot.Builder) Option {
	return func(f *Flow) { f.builder = b }
}

func WithGroups(groups ...model.Group) Option {
	return func(f *Flow) { f.groups = append([]model.Group(nil), groups...) }
}

func WithRenderer(r document.Renderer) Option {
	return func(f *Flow) { f.renderer = r }
}

func WithSaver(s Saver) Option {
	return func(f *Flow) { f.saver = s }
}

func WithSender(s Sender) Option {
	return func(f *Flow) { f.sender = s }
}

func WithEvents(sink events.Sink) Option {
	return func(f *Flow) {
		if sink != nil {
			f.events = sink
		}
	}
}

func WithConfirmer(c Confirmer) Option {
	return func(f *Flow) { f.confirmer = c }
}

func WithLogger(logger Logger) Option {
	return func(f *Flow) {
		if logger == nil {
			f.logger = noopLogger{}
			return
		}
		f.logger = logger
	}
}

// WithNextPath sets the redirect returned after a successful submission.
func WithNextPath(path string) Option {
	return func(f *Flow) { f.nextPath = path }
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// Flow runs validate → snapshot → confirm → document → save → relay for a
// single form. Only one submission runs at a time per Flow.
type Flow struct {
	validator *validation.Validator
	builder   *snapshot.Builder
	groups    []model.Group
	renderer  document.Renderer
	saver     Saver
	sender    Sender
	events    events.Sink
	confirmer Confirmer
	logger    Logger
	nextPath  string
	now       func() time.Time

	running atomic.Bool
}

// New constructs a Flow. Validator and builder default to the package
// defaults; renderer, saver, sender and confirmer are optional.
func New(options ...Option) *Flow {
	f := &Flow{
		groups: model.DefaultGroups(),
		events: events.Discard,
		logger: noopLogger{},
		now:    time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.validator == nil {
		f.validator = validation.New(validation.WithGroups(f.groups...), validation.WithClock(f.now))
	}
	if f.builder == nil {
		f.builder = snapshot.NewBuilder(snapshot.WithGroups(f.groups...), snapshot.WithClock(f.now))
	}
	return f
}

// Submit processes form. Validation failures return ErrValidation with the
// populated Outcome. A relay failure is returned after the snapshot has been
// saved and the document rendered; neither is rolled back.
func (f *Flow) Submit(ctx context.Context, form model.Form) (Outcome, error) {
	if !f.running.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmitInProgress
	}
	defer f.running.Store(false)

	var out Outcome
	out.Validation = f.validator.Validate(form)
	if !out.Validation.Valid {
		f.dispatchError(ctx, "Validation failed", out.Validation.Errors)
		f.log("warn", "validation failed", map[string]any{"form": form.ID, "errors": len(out.Validation.Errors)})
		return out, ErrValidation
	}

	snap := f.builder.Build(form)
	out.Snapshot = &snap

	if f.confirmer != nil {
		ok, err := f.confirmer.Confirm(ctx, snap)
		if err != nil {
			return out, f.fail(ctx, fmt.Errorf("flow: confirm: %w", err))
		}
		if !ok {
			return out, ErrDeclined
		}
	}

	if f.renderer != nil {
		doc, err := f.renderer.RenderDocument(ctx, document.SectionsFromSnapshot(snap, form, f.groups))
		if err != nil {
			return out, f.fail(ctx, fmt.Errorf("flow: render document: %w", err))
		}
		out.Document = doc
		out.Filename = document.Filename(f.now())
	}

	if f.saver != nil {
		if err := f.saver.Save(ctx, snap); err != nil {
			return out, f.fail(ctx, fmt.Errorf("flow: save snapshot: %w", err))
		}
	}

	if f.sender == nil || !f.sender.Configured() {
		f.log("warn", "no relay access key configured, skipping network send", map[string]any{"form": form.ID})
		f.events.Dispatch(ctx, events.Event{Name: events.Success, Detail: map[string]any{"message": LocalOnlyMessage}})
		out.Redirect = f.nextPath
		return out, nil
	}

	res, err := f.sender.Send(ctx, form)
	if err != nil {
		if res.StatusCode != 0 {
			out.Relay = &res
		}
		return out, f.fail(ctx, err)
	}
	out.Relay = &res
	out.Sent = true
	out.Redirect = f.nextPath

	f.events.Dispatch(ctx, events.Event{Name: events.Success, Detail: res})
	f.log("info", "submission relayed", map[string]any{"form": form.ID, "submission": snap.ID})
	return out, nil
}

func (f *Flow) fail(ctx context.Context, err error) error {
	f.dispatchError(ctx, err.Error(), nil)
	f.log("error", "submission failed", map[string]any{"error": err.Error()})
	return err
}

func (f *Flow) dispatchError(ctx context.Context, message string, errs []validation.FieldError) {
	detail := events.ErrorDetail{Message: message}
	if len(errs) > 0 {
		detail.Errors = errs
	}
	f.events.Dispatch(ctx, events.Event{Name: events.Error, Detail: detail})
}

func (f *Flow) log(level, message string, fields map[string]any) {
	f.logger.Log(LogEvent{Level: level, Message: message, Fields: fields})
}
