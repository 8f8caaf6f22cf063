// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// Outcome is the result recorded on a terminal [Handle]:
// Success(value) or Failure(cause).
// It is backed by kont.Either with the cause on the Left.
type Outcome[T any] struct {
	e kont.Either[error, T]
}

// Success returns a successful outcome carrying v.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{e: kont.Right[error, T](v)}
}

// Failure returns a failed outcome carrying err.
// A nil err is replaced by a non-nil cause.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		err = errNilCause
	}
	return Outcome[T]{e: kont.Left[error, T](err)}
}

// IsSuccess reports whether o carries a value.
func (o Outcome[T]) IsSuccess() bool {
	return o.e.IsRight()
}

// Value returns the value and true for a success.
func (o Outcome[T]) Value() (T, bool) {
	return o.e.GetRight()
}

// Err returns the failure cause, or nil for a success.
func (o Outcome[T]) Err() error {
	err, _ := o.e.GetLeft()
	return err
}

// Get returns the value and a nil error for a success,
// or the zero value and the cause for a failure.
func (o Outcome[T]) Get() (T, error) {
	if v, ok := o.e.GetRight(); ok {
		return v, nil
	}
	var zero T
	return zero, o.Err()
}

// Either exposes the outcome as a kont.Either.
func (o Outcome[T]) Either() kont.Either[error, T] {
	return o.e
}

// dispatch delivers o to obs through the matching hook.
func (o Outcome[T]) dispatch(obs Observer[T]) {
	if v, ok := o.e.GetRight(); ok {
		obs.OnSuccess(v)
		return
	}
	obs.OnFailure(o.Err())
}
