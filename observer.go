// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

// Observer is notified once after a [Handle] reaches a terminal state.
// Cancellation and timeout arrive through OnFailure with
// ErrCancelled or ErrTimedOut as the cause.
//
// Hooks run on the goroutine that caused the terminal transition and
// should return quickly.
type Observer[T any] interface {
	OnSuccess(v T)
	OnFailure(err error)
}

// Listener adapts a single function receiving the [Outcome] to [Observer].
type Listener[T any] func(Outcome[T])

// OnSuccess implements Observer.
func (f Listener[T]) OnSuccess(v T) { f(Success(v)) }

// OnFailure implements Observer.
func (f Listener[T]) OnFailure(err error) { f(Failure[T](err)) }

// Funcs adapts a pair of optional functions to [Observer].
type Funcs[T any] struct {
	Success func(T)
	Failure func(error)
}

// OnSuccess implements Observer.
func (f Funcs[T]) OnSuccess(v T) {
	if f.Success != nil {
		f.Success(v)
	}
}

// OnFailure implements Observer.
func (f Funcs[T]) OnFailure(err error) {
	if f.Failure != nil {
		f.Failure(err)
	}
}

// Finalizer is the transport-side primitive a [Handle] calls exactly once
// after its observers have been notified.
//
//   - Finalize sends a normal response carrying v.
//   - FinalizeError sends an error response for a ResumeError.
//   - Abort closes the underlying connection without a normal response;
//     the cause is ErrCancelled or ErrTimedOut.
type Finalizer[T any] interface {
	Finalize(v T)
	FinalizeError(err error)
	Abort(cause error)
}

// FinalizerFuncs adapts optional functions to [Finalizer].
type FinalizerFuncs[T any] struct {
	OnValue func(T)
	OnError func(error)
	OnAbort func(error)
}

// Finalize implements Finalizer.
func (f FinalizerFuncs[T]) Finalize(v T) {
	if f.OnValue != nil {
		f.OnValue(v)
	}
}

// FinalizeError implements Finalizer.
func (f FinalizerFuncs[T]) FinalizeError(err error) {
	if f.OnError != nil {
		f.OnError(err)
	}
}

// Abort implements Finalizer.
func (f FinalizerFuncs[T]) Abort(cause error) {
	if f.OnAbort != nil {
		f.OnAbort(cause)
	}
}
