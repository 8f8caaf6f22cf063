// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend_test

import (
	"sync"
	"time"
)

// recorder is an Observer that records every notification.
type recorder[T any] struct {
	mu        sync.Mutex
	successes []T
	failures  []error
	order     *[]string
	name      string
}

func (r *recorder[T]) OnSuccess(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, v)
	if r.order != nil {
		*r.order = append(*r.order, r.name)
	}
}

func (r *recorder[T]) OnFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
	if r.order != nil {
		*r.order = append(*r.order, r.name)
	}
}

func (r *recorder[T]) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes), len(r.failures)
}

// finalizer records which transport primitive a handle invoked.
type finalizer[T any] struct {
	mu     sync.Mutex
	values []T
	errs   []error
	aborts []error
}

func (f *finalizer[T]) Finalize(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, v)
}

func (f *finalizer[T]) FinalizeError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *finalizer[T]) Abort(cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborts = append(f.aborts, cause)
}

func (f *finalizer[T]) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values) + len(f.errs) + len(f.aborts)
}

// blocked reports whether done stays open for d.
func blocked(done <-chan struct{}, d time.Duration) bool {
	select {
	case <-done:
		return false
	case <-time.After(d):
		return true
	}
}

// within waits up to d for done.
func within(done <-chan struct{}, d time.Duration) bool {
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
