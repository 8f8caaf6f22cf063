// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"context"
	"runtime"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"github.com/cespare/xxhash/v2"
	"github.com/go-logr/logr"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Dispatcher runs a unit of work on a goroutine independent of the caller
// and returns immediately. It neither retries nor supervises: a failing
// task must resume its handle with an error itself, otherwise the handle
// stays Suspended until its deadline fires.
type Dispatcher interface {
	Submit(task func()) error
}

// GoDispatcher starts one goroutine per task.
// A panicking task is recovered and logged to Log.
type GoDispatcher struct {
	Log logr.Logger
}

// Submit implements Dispatcher. It never fails.
func (d GoDispatcher) Submit(task func()) error {
	go runTask(d.Log, task)
	return nil
}

func runTask(log logr.Logger, task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(&TaskPanicError{Value: r}, "task failed")
		}
	}()
	task()
}

type poolOptions struct {
	workers int
	depth   int
	log     logr.Logger
}

// PoolOption configures a [Pool].
type PoolOption func(*poolOptions)

// WithWorkers sets the number of worker goroutines. Default GOMAXPROCS.
func WithWorkers(n int) PoolOption {
	return func(o *poolOptions) { o.workers = n }
}

// WithQueueDepth sets the per-worker queue capacity. Default 64.
func WithQueueDepth(n int) PoolOption {
	return func(o *poolOptions) { o.depth = n }
}

// WithPoolLogger sets the logger for recovered task panics.
func WithPoolLogger(log logr.Logger) PoolOption {
	return func(o *poolOptions) { o.log = log }
}

// Pool is a fixed set of worker goroutines, each draining its own bounded
// [Channel] of tasks in FIFO order.
type Pool struct {
	queues []*Channel[func()]
	next   atomix.Uint32
	log    logr.Logger
	g      errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewPool starts the workers.
func NewPool(opts ...PoolOption) *Pool {
	o := poolOptions{workers: runtime.GOMAXPROCS(0), depth: 64, log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	if o.depth <= 0 {
		o.depth = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queues: make([]*Channel[func()], o.workers),
		log:    o.log,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := range p.queues {
		q := NewChannel[func()](o.depth)
		p.queues[i] = q
		p.g.Go(func() error {
			p.work(q)
			return nil
		})
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return len(p.queues)
}

func (p *Pool) work(q *Channel[func()]) {
	for {
		task, err := q.Take(p.ctx)
		if err != nil || task == nil {
			return
		}
		runTask(p.log, task)
	}
}

// Submit queues task on the next worker with room, starting round-robin.
// Returns iox.ErrWouldBlock when every worker queue is full and ErrClosed
// after Close.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	n := uint32(len(p.queues))
	start := p.next.Add(1)
	for i := range n {
		if p.queues[(start+i)%n].TryPut(task) == nil {
			return nil
		}
	}
	return iox.ErrWouldBlock
}

// SubmitKeyed queues task on the worker owning key, so tasks sharing a key
// run one at a time in submission order.
// Returns iox.ErrWouldBlock when that worker's queue is full.
func (p *Pool) SubmitKeyed(key string, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	q := p.queues[xxhash.Sum64String(key)%uint64(len(p.queues))]
	return q.TryPut(task)
}

// Close stops intake, lets workers drain queued tasks, and waits for them.
// If ctx ends first, queued tasks are abandoned and the error wraps
// ErrInterrupted; tasks already running are not interrupted.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	p.mu.Unlock()

	var errs error
	for _, q := range p.queues {
		// nil is the stop marker.
		errs = multierr.Append(errs, q.Put(ctx, nil))
	}
	if errs != nil {
		p.cancel()
		return errs
	}

	done := make(chan struct{})
	go func() {
		_ = p.g.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return interrupted(ctx.Err())
	}
}

// Go submits fn to d and resumes h with its value or error.
//
// The context passed to fn is cancelled once h reaches any terminal state,
// so fn can stop early after Cancel or Expire. A panic in fn resumes h with
// a *TaskPanicError. If d rejects the task, h is resumed with that error
// and the error is returned.
func Go[T any](d Dispatcher, h *Handle[T], fn func(ctx context.Context) (T, error)) error {
	ctx, cancel := context.WithCancel(context.Background())
	h.Register(Listener[T](func(Outcome[T]) { cancel() }))
	err := d.Submit(func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				h.ResumeError(&TaskPanicError{Value: r})
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			h.ResumeError(err)
			return
		}
		h.Resume(v)
	})
	if err != nil {
		cancel()
		h.ResumeError(err)
		return err
	}
	return nil
}

// Spawn is Go for a task protocol evaluated with Exec.
func Spawn[T any](d Dispatcher, h *Handle[T], protocol kont.Eff[T]) error {
	return Go(d, h, func(ctx context.Context) (T, error) {
		return Exec(ctx, protocol)
	})
}
