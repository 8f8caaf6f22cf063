// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package httpx binds the message board to net/http.
//
// Each request is suspended on a [suspend.Handle] whose finalizer writes the
// response. The handler goroutine parks on Done because net/http ends the
// exchange when the handler returns. Pending handles are kept in a TTL cache
// keyed by request id; expiry of an entry times the handle out.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"code.hybscloud.com/suspend"
	"code.hybscloud.com/suspend/internal/board"
)

// RequestIDHeader carries the id a pending request can be cancelled by.
const RequestIDHeader = "X-Request-Id"

const maxBodyBytes = 1 << 16

type pendingCache = ttlcache.Cache[string, *suspend.Handle[string]]

// Server serves the message board over HTTP.
type Server struct {
	board   *board.Board
	log     logr.Logger
	tracker suspend.Tracker
	limiter *rate.Limiter
	pending *pendingCache
	mux     *http.ServeMux

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the server logger. Handles log through it too.
func WithLogger(log logr.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithTracker sets the tracker passed to every handle.
func WithTracker(t suspend.Tracker) Option {
	return func(s *Server) { s.tracker = t }
}

// WithPostLimit admits at most r POSTs per second with the given burst.
func WithPostLimit(r rate.Limit, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(r, burst) }
}

// New creates a server over b. A pending request times out after timeout;
// zero keeps it pending until it is resumed or cancelled.
func New(b *board.Board, timeout time.Duration, opts ...Option) *Server {
	s := &Server{
		board: b,
		log:   logr.Discard(),
		mux:   http.NewServeMux(),
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pending = ttlcache.New(
		ttlcache.WithTTL[string, *suspend.Handle[string]](timeout),
		ttlcache.WithDisableTouchOnHit[string, *suspend.Handle[string]](),
	)
	s.pending.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *suspend.Handle[string]]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}
		// Expire notifies observers that delete from the cache.
		go item.Value().Expire()
	})

	s.mux.HandleFunc("GET /async/nextMessage", s.nextMessage)
	s.mux.HandleFunc("POST /async/nextMessage", s.postMessage)
	s.mux.HandleFunc("DELETE /async/{id}", s.cancel)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start runs the expiry loop until Stop is called.
func (s *Server) Start() {
	go s.pending.Start()
	<-s.stop
	s.pending.Stop()
}

// Stop ends the expiry loop. It may be called before Start.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Pending returns the number of suspended requests.
func (s *Server) Pending() int {
	return s.pending.Len()
}

// CancelAll cancels every pending request and returns how many it cancelled.
func (s *Server) CancelAll() int {
	n := 0
	for _, item := range s.pending.Items() {
		if item.Value().Cancel() {
			n++
		}
	}
	return n
}

func (s *Server) nextMessage(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, s.board.NextMessage)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("read body: %v", err), http.StatusBadRequest)
		return
	}
	msg := string(body)
	s.serve(w, r, func(h *suspend.Handle[string]) error {
		return s.board.PostMessage(msg, h)
	})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item := s.pending.Get(id, ttlcache.WithDisableTouchOnHit[string, *suspend.Handle[string]]())
	if item == nil {
		http.Error(w, "no pending request "+id, http.StatusNotFound)
		return
	}
	if err := suspend.Check(item.Value().Cancel()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serve suspends the request, hands the handle to start, and parks until
// the handle has been finalized.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, start func(*suspend.Handle[string]) error) {
	id := uuid.NewString()
	w.Header().Set(RequestIDHeader, id)

	fin := &responseFinalizer{w: w}
	opts := []suspend.Option{suspend.WithLogger(s.log.WithValues("id", id))}
	if s.tracker != nil {
		opts = append(opts, suspend.WithTracker(s.tracker))
	}
	h := suspend.New[string](fin, opts...)
	s.pending.Set(id, h, ttlcache.DefaultTTL)
	h.Register(suspend.Listener[string](func(suspend.Outcome[string]) {
		s.pending.Delete(id)
	}))

	if err := start(h); err != nil {
		s.log.Error(err, "request not scheduled", "id", id)
	}

	select {
	case <-h.Done():
	case <-r.Context().Done():
		if h.Cancel() {
			s.log.V(1).Info("client went away", "id", id)
		}
		<-h.Done()
	}

	if errors.Is(fin.aborted, suspend.ErrCancelled) && r.Context().Err() == nil {
		panic(http.ErrAbortHandler)
	}
}

// responseFinalizer writes the outcome of a handle to the response.
// aborted is read by the handler after Done.
type responseFinalizer struct {
	w       http.ResponseWriter
	aborted error
}

func (f *responseFinalizer) Finalize(v string) {
	f.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	f.w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(f.w, v)
}

func (f *responseFinalizer) FinalizeError(err error) {
	http.Error(f.w, err.Error(), http.StatusInternalServerError)
}

func (f *responseFinalizer) Abort(cause error) {
	f.aborted = cause
	if errors.Is(cause, suspend.ErrTimedOut) {
		f.w.Header().Set("Retry-After", "1")
		http.Error(f.w, cause.Error(), http.StatusServiceUnavailable)
	}
}
