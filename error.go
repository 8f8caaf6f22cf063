// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyResolved reports that a resume or cancel arrived after the
	// handle had already reached a terminal state. Handle methods report it
	// as a false result; [Check] converts that result into this error.
	ErrAlreadyResolved = errors.New("suspend: already resolved")

	// ErrCancelled is the failure cause delivered to observers when a
	// handle is cancelled.
	ErrCancelled = errors.New("suspend: cancelled")

	// ErrTimedOut is the failure cause delivered to observers when a
	// handle's deadline elapses while it is suspended.
	ErrTimedOut = errors.New("suspend: timed out")

	// ErrInterrupted reports that a blocking Put or Take was abandoned
	// because its context ended. The returned error also wraps ctx.Err().
	ErrInterrupted = errors.New("suspend: interrupted")

	// ErrClosed reports a submission to a closed [Pool].
	ErrClosed = errors.New("suspend: dispatcher closed")

	// errNilCause replaces a nil failure cause.
	errNilCause = errors.New("suspend: resumed with nil error")
)

// Check converts the boolean result of a Resume, ResumeError, Cancel, or
// Expire call into an error: nil when the transition was applied,
// ErrAlreadyResolved otherwise.
func Check(applied bool) error {
	if applied {
		return nil
	}
	return ErrAlreadyResolved
}

// interrupted wraps a context error as an interruption.
func interrupted(cause error) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, cause)
}

// ObserverPanicError is logged when an observer or finalizer panics during
// notification. The recorded outcome of the handle is unaffected.
type ObserverPanicError struct {
	Serial Serial
	State  State
	Value  any
}

func (e *ObserverPanicError) Error() string {
	return fmt.Sprintf("suspend: observer of handle %s panicked while %s: %v", e.Serial, e.State, e.Value)
}

// TaskPanicError is the failure cause used when a background task started
// by [Go] or [Spawn] panics, and the error logged when a [Pool] task panics.
type TaskPanicError struct {
	Value any
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("suspend: task panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *TaskPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
