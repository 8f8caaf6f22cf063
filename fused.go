// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// PutThen hands v to ch and then continues with next.
// Fuses Perform(Put[T]{Ch: ch, Value: v}) + Then.
func PutThen[T, B any](ch *Channel[T], v T, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Put[T]{Ch: ch, Value: v}), next)
}

// TakeBind takes the head item of ch and passes it to f.
// Fuses Perform(Take[T]{Ch: ch}) + Bind.
func TakeBind[T, B any](ch *Channel[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Take[T]{Ch: ch}), f)
}
