// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// Step runs a task protocol up to its first channel operation.
// A nil suspension means the protocol finished with the returned result.
func Step[R any](protocol kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(protocol)
}

// Advance dispatches the suspended channel operation once.
//
// A nil error consumes the suspension and yields the next one, or nil with
// the result. iox.ErrWouldBlock leaves susp pending so a driver can retry it
// once another task has put or taken an item.
func Advance[R any](susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	top, ok := susp.Op().(taskDispatcher)
	if !ok {
		panic("suspend: unhandled effect in Advance")
	}
	v, err := top.DispatchTask()
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
