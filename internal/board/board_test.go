// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/suspend"
	"code.hybscloud.com/suspend/internal/logging"
)

func newBoard(capacity int) *Board {
	return New(suspend.NewChannel[string](capacity), suspend.GoDispatcher{}, logging.NewTestLogger())
}

func wait(t *testing.T, h *suspend.Handle[string]) suspend.Outcome[string] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o, err := h.Wait(ctx)
	require.NoError(t, err)
	return o
}

func TestPostThenRead(t *testing.T) {
	b := newBoard(5)

	post := suspend.New[string](nil)
	require.NoError(t, b.PostMessage("hello", post))
	v, err := wait(t, post).Get()
	require.NoError(t, err)
	assert.Equal(t, Stored, v)
	assert.Equal(t, 1, b.Pending())

	read := suspend.New[string](nil)
	require.NoError(t, b.NextMessage(read))
	v, err = wait(t, read).Get()
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	assert.Equal(t, 0, b.Pending())
}

func TestReadWaitsForPost(t *testing.T) {
	b := newBoard(5)

	read := suspend.New[string](nil)
	require.NoError(t, b.NextMessage(read))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, suspend.Suspended, read.State())

	post := suspend.New[string](nil)
	require.NoError(t, b.PostMessage("late", post))

	v, err := wait(t, read).Get()
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestReadersServedInOrder(t *testing.T) {
	b := newBoard(5)
	for _, m := range []string{"a", "b", "c"} {
		h := suspend.New[string](nil)
		require.NoError(t, b.PostMessage(m, h))
		wait(t, h)
	}
	for _, want := range []string{"a", "b", "c"} {
		h := suspend.New[string](nil)
		require.NoError(t, b.NextMessage(h))
		v, err := wait(t, h).Get()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestCancelledReaderKeepsMessage(t *testing.T) {
	b := newBoard(5)

	read := suspend.New[string](nil)
	require.NoError(t, b.NextMessage(read))
	require.True(t, read.Cancel())
	time.Sleep(20 * time.Millisecond)

	post := suspend.New[string](nil)
	require.NoError(t, b.PostMessage("kept", post))
	wait(t, post)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, b.Pending(), "a cancelled reader must not consume messages")
}

func TestTimedOutPostIsNotStored(t *testing.T) {
	b := newBoard(1)

	first := suspend.New[string](nil)
	require.NoError(t, b.PostMessage("fills", first))
	wait(t, first)

	second := suspend.New[string](nil, suspend.WithTimeout(30*time.Millisecond))
	require.NoError(t, b.PostMessage("blocked", second))
	o := wait(t, second)
	assert.Equal(t, suspend.TimedOut, second.State())
	assert.ErrorIs(t, o.Err(), suspend.ErrTimedOut)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, b.Pending())
}

type failing struct{}

func (failing) Submit(func()) error { return suspend.ErrClosed }

func TestSubmitFailureResumesError(t *testing.T) {
	b := New(suspend.NewChannel[string](1), failing{}, logr.Discard())
	b.readers = failing{}

	read := suspend.New[string](nil)
	assert.ErrorIs(t, b.NextMessage(read), suspend.ErrClosed)
	o, ok := read.Outcome()
	require.True(t, ok)
	assert.True(t, errors.Is(o.Err(), suspend.ErrClosed))

	post := suspend.New[string](nil)
	assert.ErrorIs(t, b.PostMessage("x", post), suspend.ErrClosed)
	assert.Equal(t, suspend.Resumed, post.State())
}

func newPoolBoard(t *testing.T, capacity, workers int) *Board {
	t.Helper()
	log := logging.NewTestLogger()
	p := suspend.NewPool(suspend.WithWorkers(workers), suspend.WithQueueDepth(16), suspend.WithPoolLogger(log))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, p.Close(ctx))
	})
	return New(suspend.NewChannel[string](capacity), p, log)
}

func TestPoolBoardPendingReadersDoNotStarvePosts(t *testing.T) {
	b := newPoolBoard(t, 5, 2)

	readers := make([]*suspend.Handle[string], 2)
	for i := range readers {
		readers[i] = suspend.New[string](nil)
		require.NoError(t, b.NextMessage(readers[i]))
	}
	time.Sleep(20 * time.Millisecond)

	post := suspend.New[string](nil)
	require.NoError(t, b.PostMessage("hi", post))
	v, err := wait(t, post).Get()
	require.NoError(t, err)
	assert.Equal(t, Stored, v)

	require.Eventually(t, func() bool {
		return readers[0].IsDone() || readers[1].IsDone()
	}, 2*time.Second, 5*time.Millisecond)
	served := readers[0]
	if !served.IsDone() {
		served = readers[1]
	}
	got, err := wait(t, served).Get()
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	for _, h := range readers {
		h.Cancel()
	}
}

func TestPoolBoardFullQueueDrainedByReader(t *testing.T) {
	b := newPoolBoard(t, 1, 1)

	first := suspend.New[string](nil)
	require.NoError(t, b.PostMessage("a", first))
	wait(t, first)

	// The only worker parks in Put until a reader makes room.
	second := suspend.New[string](nil)
	require.NoError(t, b.PostMessage("b", second))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, suspend.Suspended, second.State())

	for _, want := range []string{"a", "b"} {
		read := suspend.New[string](nil)
		require.NoError(t, b.NextMessage(read))
		v, err := wait(t, read).Get()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	v, err := wait(t, second).Get()
	require.NoError(t, err)
	assert.Equal(t, Stored, v)
}
