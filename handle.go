// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"context"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/go-logr/logr"
)

// Tracker receives lifecycle events from handles.
// Implementations must be safe for concurrent use.
type Tracker interface {
	// Suspended is called when a handle is created.
	Suspended(s Serial)
	// Resolved is called once per handle after finalization.
	Resolved(s Serial, st State, elapsed time.Duration)
	// ObserverFailed is called for each panicking observer or finalizer.
	ObserverFailed(s Serial)
}

type options struct {
	log      logr.Logger
	tracker  Tracker
	timeout  time.Duration
	deadline time.Time
}

// Option configures a [Handle].
type Option func(*options)

// WithLogger sets the logger used to report isolated observer failures.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithTracker sets the lifecycle tracker.
func WithTracker(t Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// WithTimeout arms the deadline d after creation.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithDeadline arms an absolute deadline. A deadline in the past
// expires the handle immediately.
func WithDeadline(t time.Time) Option {
	return func(o *options) { o.deadline = t }
}

// Handle is the continuation of one suspended request.
//
// Exactly one of Resume, ResumeError, Cancel, or Expire moves a handle out
// of Suspended; the transition is a compare-and-swap on the state cell, so
// racing callers agree on a single winner and every loser gets false.
// The winner records the outcome, notifies observers in registration order
// on its own goroutine, and then calls the [Finalizer].
type Handle[T any] struct {
	serial  Serial
	state   atomix.Uint32
	fin     Finalizer[T]
	log     logr.Logger
	tracker Tracker
	created time.Time
	done    chan struct{}

	mu        sync.Mutex
	resolved  bool // outcome recorded
	sealed    bool // all queued observers notified
	outcome   Outcome[T]
	observers []Observer[T]
	timer     *time.Timer
}

// New creates a suspended handle that finalizes through fin.
// fin may be nil for handles consumed only through observers or Wait.
func New[T any](fin Finalizer[T], opts ...Option) *Handle[T] {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	h := &Handle[T]{
		serial:  nextSerial(),
		fin:     fin,
		log:     o.log,
		tracker: o.tracker,
		created: time.Now(),
		done:    make(chan struct{}),
	}
	if h.tracker != nil {
		h.tracker.Suspended(h.serial)
	}
	switch {
	case !o.deadline.IsZero():
		if d := time.Until(o.deadline); d > 0 {
			h.SetTimeout(d)
		} else {
			h.Expire()
		}
	case o.timeout > 0:
		h.SetTimeout(o.timeout)
	}
	return h
}

// Serial returns the serial number assigned to this handle.
func (h *Handle[T]) Serial() Serial {
	return h.serial
}

// State returns the current state.
func (h *Handle[T]) State() State {
	return State(h.state.Load())
}

// IsDone reports whether the handle has left Suspended. It turns true at
// the winning transition, before the outcome is recorded; use Outcome or
// Done to observe the result.
func (h *Handle[T]) IsDone() bool {
	return h.State().Terminal()
}

// Done returns a channel closed after the handle has been finalized.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Outcome returns the recorded outcome and true once the outcome has been
// recorded. The outcome is recorded before any observer runs.
func (h *Handle[T]) Outcome() (Outcome[T], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome, h.resolved
}

// Wait blocks until the handle is finalized or ctx ends.
func (h *Handle[T]) Wait(ctx context.Context) (Outcome[T], error) {
	select {
	case <-h.done:
		o, _ := h.Outcome()
		return o, nil
	case <-ctx.Done():
		return Outcome[T]{}, interrupted(ctx.Err())
	}
}

// Resume completes the handle with v.
// Returns false if the handle was already terminal.
func (h *Handle[T]) Resume(v T) bool {
	return h.complete(Resumed, Success(v))
}

// ResumeError completes the handle with the failure cause err.
// Returns false if the handle was already terminal.
func (h *Handle[T]) ResumeError(err error) bool {
	return h.complete(Resumed, Failure[T](err))
}

// Cancel moves the handle to Cancelled. Observers receive ErrCancelled and
// the finalizer aborts the response. The background task holding the handle
// is not interrupted; its later Resume returns false.
func (h *Handle[T]) Cancel() bool {
	return h.complete(Cancelled, Failure[T](ErrCancelled))
}

// Expire moves the handle to TimedOut. It is called by the deadline timer
// and may be called by an external timer instead.
func (h *Handle[T]) Expire() bool {
	return h.complete(TimedOut, Failure[T](ErrTimedOut))
}

// SetTimeout arms or re-arms the single deadline timer of the handle to
// fire after d. A non-positive d disarms it. Returns false if the handle is
// no longer suspended.
func (h *Handle[T]) SetTimeout(d time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved {
		return false
	}
	if d <= 0 {
		if h.timer != nil {
			h.timer.Stop()
		}
		return true
	}
	if h.timer == nil {
		h.timer = time.AfterFunc(d, func() { h.Expire() })
	} else {
		h.timer.Reset(d)
	}
	return true
}

// Register adds observers in order. Observers registered after the handle
// became terminal are notified synchronously with the recorded outcome.
func (h *Handle[T]) Register(obs ...Observer[T]) {
	for _, ob := range obs {
		if ob == nil {
			continue
		}
		h.mu.Lock()
		if !h.sealed {
			h.observers = append(h.observers, ob)
			h.mu.Unlock()
			continue
		}
		o := h.outcome
		h.mu.Unlock()
		h.notify(h.State(), ob, o)
	}
}

func (h *Handle[T]) complete(to State, o Outcome[T]) bool {
	if !h.state.CompareAndSwap(uint32(Suspended), uint32(to)) {
		return false
	}

	h.mu.Lock()
	h.resolved = true
	h.outcome = o
	t := h.timer
	h.timer = nil
	h.mu.Unlock()
	if t != nil {
		t.Stop()
	}

	// Observers registered while notifying are queued behind the batch.
	for {
		h.mu.Lock()
		batch := h.observers
		h.observers = nil
		if len(batch) == 0 {
			h.sealed = true
			h.mu.Unlock()
			break
		}
		h.mu.Unlock()
		for _, ob := range batch {
			h.notify(to, ob, o)
		}
	}

	h.finalize(to, o)
	close(h.done)
	h.log.V(1).Info("handle resolved", "serial", h.serial, "state", to.String())
	if h.tracker != nil {
		h.tracker.Resolved(h.serial, to, time.Since(h.created))
	}
	return true
}

func (h *Handle[T]) notify(st State, ob Observer[T], o Outcome[T]) {
	defer h.isolate(st)
	o.dispatch(ob)
}

func (h *Handle[T]) finalize(st State, o Outcome[T]) {
	if h.fin == nil {
		return
	}
	defer h.isolate(st)
	if st != Resumed {
		h.fin.Abort(o.Err())
		return
	}
	if v, ok := o.Value(); ok {
		h.fin.Finalize(v)
		return
	}
	h.fin.FinalizeError(o.Err())
}

// isolate recovers a panicking observer or finalizer and logs it.
func (h *Handle[T]) isolate(st State) {
	r := recover()
	if r == nil {
		return
	}
	err := &ObserverPanicError{Serial: h.serial, State: st, Value: r}
	h.log.Error(err, "observer failed", "serial", h.serial, "state", st.String())
	if h.tracker != nil {
		h.tracker.ObserverFailed(h.serial)
	}
}
