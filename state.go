// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

// State is the lifecycle state of a [Handle].
// Suspended is the only non-terminal state.
type State uint32

const (
	// Suspended means no result has been supplied yet.
	Suspended State = iota
	// Resumed means a value or a failure cause was supplied.
	Resumed
	// Cancelled means the handle was cancelled before it was resumed.
	Cancelled
	// TimedOut means the deadline elapsed while the handle was suspended.
	TimedOut
)

// Terminal reports whether no further transition is legal from s.
func (s State) Terminal() bool {
	return s != Suspended
}

func (s State) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Resumed:
		return "resumed"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed-out"
	}
	return "unknown"
}
