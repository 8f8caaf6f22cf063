// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// taskDispatcher is the structural interface for task effects.
// DispatchTask is non-blocking: it returns iox.ErrWouldBlock when the
// channel cannot make progress.
type taskDispatcher interface {
	DispatchTask() (kont.Resumed, error)
}

// Put is the effect operation for handing Value to channel Ch.
// Perform(Put[T]{Ch: ch, Value: v}) resumes once v is buffered.
type Put[T any] struct {
	kont.Phantom[struct{}]
	Ch    *Channel[T]
	Value T
}

// DispatchTask handles Put on the channel.
// Non-blocking: returns iox.ErrWouldBlock if the channel is full.
func (p Put[T]) DispatchTask() (kont.Resumed, error) {
	if err := p.Ch.TryPut(p.Value); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Take is the effect operation for receiving the head item of Ch.
// Perform(Take[T]{Ch: ch}) resumes with the item.
type Take[T any] struct {
	kont.Phantom[T]
	Ch *Channel[T]
}

// DispatchTask handles Take on the channel.
// Non-blocking: returns iox.ErrWouldBlock if the channel is empty.
func (t Take[T]) DispatchTask() (kont.Resumed, error) {
	v, err := t.Ch.TryTake()
	if err != nil {
		return nil, err
	}
	return v, nil
}
