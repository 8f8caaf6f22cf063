// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package suspend provides deferred responses: a request goroutine hands
// out a [Handle] and returns, and a different goroutine later supplies the
// result exactly once.
//
// # Architecture
//
//   - Continuation: [Handle] is a per-request state machine
//     (Suspended → Resumed | Cancelled | TimedOut) decided by a single
//     compare-and-swap on a code.hybscloud.com/atomix cell.
//   - Notification: [Observer] hooks run once, in registration order, on
//     the goroutine that won the transition; the [Outcome] sum type is a
//     code.hybscloud.com/kont Either. Panicking observers are isolated.
//   - Transport: a [Finalizer] supplied by the transport layer finalizes
//     the real response after observers ran.
//   - Handoff: [Channel] is a bounded FIFO over a lock-free code.hybscloud.com/lfq
//     ring with blocking, context-interruptible Put and Take and
//     non-blocking TryPut/TryTake returning iox.ErrWouldBlock.
//   - Execution: [Dispatcher] runs work independently of the caller;
//     [GoDispatcher] starts a goroutine per task, [Pool] keeps fixed workers.
//     [Go] and [Spawn] tie a task to a handle so the handle is always resumed.
//
// # Task Protocols
//
// Background work can be written as a kont computation over channel
// effects: [Put], [Take], fused as [PutThen], [TakeBind] (Cont-world) and
// [ExprPutThen], [ExprTakeBind] (Expr-world). [Exec] and [ExecExpr] run a
// protocol to completion, waiting past backpressure with iox.Backoff;
// [Step] and [Advance] evaluate one effect at a time for external drivers.
//
// # Cancellation
//
// Cancellation is cooperative. Cancel and Expire only move the handle;
// the task still holding it sees a false result from Resume. The context
// given to a task by [Go] is cancelled when the handle becomes terminal.
//
// # Example
//
//	messages := suspend.NewChannel[string](5)
//	h := suspend.New[string](transport)
//	h.Register(suspend.Listener[string](func(o suspend.Outcome[string]) {
//		log.Info("resumed", "ok", o.IsSuccess())
//	}))
//	_ = suspend.Go(suspend.GoDispatcher{}, h, func(ctx context.Context) (string, error) {
//		return messages.Take(ctx)
//	})
package suspend
