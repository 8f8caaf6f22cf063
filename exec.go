// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"context"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// taskHandler implements kont.Handler for task effects.
// Waits on iox.ErrWouldBlock and short-circuits with Left when ctx ends.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type taskHandler[R any] struct {
	ctx context.Context
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h taskHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	top, ok := op.(taskDispatcher)
	if !ok {
		panic("suspend: unhandled effect in taskHandler")
	}
	v, err := dispatchWait(h.ctx, top)
	if err != nil {
		return kont.Left[error, R](err), false
	}
	return v, true
}

// dispatchWait retries DispatchTask past iox.ErrWouldBlock with
// iox.Backoff until it succeeds or ctx ends.
func dispatchWait(ctx context.Context, top taskDispatcher) (kont.Resumed, error) {
	var bo iox.Backoff
	for {
		if err := ctx.Err(); err != nil {
			return nil, interrupted(err)
		}
		if v, err := top.DispatchTask(); err == nil {
			return v, nil
		}
		bo.Wait()
	}
}

// Exec runs a Cont-world task protocol on the calling goroutine.
// Channel effects wait past backpressure with adaptive backoff.
// If ctx ends while an effect is waiting, Exec stops and returns an error
// wrapping ErrInterrupted.
func Exec[R any](ctx context.Context, protocol kont.Eff[R]) (R, error) {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, R]](protocol, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	return unwrap(kont.Handle(wrapped, taskHandler[R]{ctx: ctx}))
}

// ExecExpr runs an Expr-world task protocol on the calling goroutine.
// Same waiting and interruption rules as Exec.
func ExecExpr[R any](ctx context.Context, protocol kont.Expr[R]) (R, error) {
	wrapped := kont.ExprMap(protocol, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	return unwrap(kont.HandleExpr(wrapped, taskHandler[R]{ctx: ctx}))
}

func unwrap[R any](e kont.Either[error, R]) (R, error) {
	if err, ok := e.GetLeft(); ok {
		var zero R
		return zero, err
	}
	r, _ := e.GetRight()
	return r, nil
}
