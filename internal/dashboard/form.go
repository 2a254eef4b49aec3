package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/todo/internal/core/todo"
)

// Default delays of the submit cycle.
const (
	DefaultSubmitDelay = 700 * time.Millisecond
	DefaultResetDelay  = 2600 * time.Millisecond
)

var (
	// ErrSubmitting is returned when a submit is already in flight.
	ErrSubmitting = errors.New("a submit is already in progress")
	// ErrFormClosed is returned after Close.
	ErrFormClosed = errors.New("form is closed")
)

// Status is the phase of the submit cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSuccess:
		return "success"
	}
	return "unknown"
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithDelays sets how long the form stays submitting and how long the
// success state lingers before returning to idle.
func WithDelays(submit, reset time.Duration) FormOption {
	return func(f *Form) {
		f.submitDelay = submit
		f.resetDelay = reset
	}
}

// WithClock replaces time.Now for due-date validation.
func WithClock(now func() time.Time) FormOption {
	return func(f *Form) {
		f.now = now
	}
}

// OnStatus registers a callback for status changes. It runs on the
// goroutine that caused the change, timer goroutines included, with the
// form locked; it must not call back into the form.
func OnStatus(fn func(Status)) FormOption {
	return func(f *Form) {
		f.onStatus = fn
	}
}

// Form drives the create path: validate, create immediately, then walk the
// status through submitting → success → idle on timers. Close cancels any
// pending timer; no callback runs after Close returns.
type Form struct {
	coll        *Collection
	log         zerolog.Logger
	submitDelay time.Duration
	resetDelay  time.Duration
	now         func() time.Time
	onStatus    func(Status)

	mu          sync.Mutex
	status      Status
	lastCreated *todo.Item
	gen         uint64
	timer       *time.Timer
	closed      bool
	// creating is held from the submitting check until the status is set,
	// so two concurrent submits cannot both create
	creating bool
}

// NewForm creates a form that adds records to coll.
func NewForm(coll *Collection, log zerolog.Logger, opts ...FormOption) *Form {
	f := &Form{
		coll:        coll,
		log:         log.With().Str("component", "form").Logger(),
		submitDelay: DefaultSubmitDelay,
		resetDelay:  DefaultResetDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Submit validates draft and, when valid, creates the record right away.
// A validation failure returns the criterio.FieldErrors and leaves the
// collection untouched.
func (f *Form) Submit(ctx context.Context, draft todo.Draft) (todo.Item, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return todo.Item{}, ErrFormClosed
	case f.status == StatusSubmitting, f.creating:
		f.mu.Unlock()
		return todo.Item{}, ErrSubmitting
	}
	f.creating = true
	f.mu.Unlock()

	if err := draft.Validate(f.now()); err != nil {
		f.mu.Lock()
		f.creating = false
		f.mu.Unlock()
		return todo.Item{}, err
	}

	item := f.coll.Create(ctx, draft.Input())
	f.log.Debug().Str("id", item.ID).Msg("todo created")

	f.mu.Lock()
	f.creating = false
	if f.closed {
		f.mu.Unlock()
		return item, nil
	}
	f.stopTimer()
	f.gen++
	gen := f.gen
	f.status = StatusSubmitting
	f.timer = time.AfterFunc(f.submitDelay, func() { f.settle(gen, item) })
	f.emitLocked()
	f.mu.Unlock()

	return item, nil
}

// Status returns the current phase.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// LastCreated returns the record confirmed by the most recent successful
// submit.
func (f *Form) LastCreated() (todo.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastCreated == nil {
		return todo.Item{}, false
	}
	return *f.lastCreated, true
}

// Close cancels pending timers. Timers that already fired but have not yet
// taken the lock see the bumped generation and do nothing.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.gen++
	f.stopTimer()
}

func (f *Form) settle(gen uint64, item todo.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return
	}
	f.status = StatusSuccess
	f.lastCreated = &item
	f.timer = time.AfterFunc(f.resetDelay, func() { f.reset(gen) })
	f.emitLocked()
}

func (f *Form) reset(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return
	}
	f.status = StatusIdle
	f.timer = nil
	f.emitLocked()
}

func (f *Form) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// emitLocked reports the status while holding f.mu so callbacks observe
// changes in order and never after Close.
func (f *Form) emitLocked() {
	if f.onStatus != nil {
		f.onStatus(f.status)
	}
}
