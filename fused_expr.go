// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// exprReturnFrame is boxed once to avoid a heap escape per constructor.
var exprReturnFrame kont.Frame = kont.ReturnFrame{}

// identityResume is the identity resume function for EffectFrame construction.
func identityResume(v kont.Erased) kont.Erased { return v }

// ExprPutThen hands v to ch and then continues with next.
// Fuses ExprPerform(Put[T]{Ch: ch, Value: v}) + ExprThen.
func ExprPutThen[T, B any](ch *Channel[T], v T, next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = Put[T]{Ch: ch, Value: v}
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

func takeBindUnwind[T, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(T) kont.Expr[B])
	result := f(current.(T))
	return kont.Erased(result.Value), result.Frame
}

// ExprTakeBind takes the head item of ch and passes it to f.
// Fuses ExprPerform(Take[T]{Ch: ch}) + ExprBind.
func ExprTakeBind[T, B any](ch *Channel[T], f func(T) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = takeBindUnwind[T, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Take[T]{Ch: ch}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}
