// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// Channel is a fixed-capacity FIFO handoff between producer and consumer
// goroutines.
//
// Items travel through a bounded lock-free SPSC ring from lfq. Each ring
// access is made under a one-slot lock for its side, so the ring always
// sees a single producer and a single consumer and the n-th successful Take
// returns the item of the n-th successful Put across all goroutines. A side
// lock is held only for one enqueue or dequeue; blocked callers back off
// with the lock released. The locks are channels so that waiting for them
// honors context cancellation.
//
// Occupancy is reserved in an atomic counter before enqueue and released
// after dequeue, which keeps 0 ≤ Len() ≤ Cap() even though the ring may
// round its own capacity up.
type Channel[T any] struct {
	ring     lfq.SPSC[T]
	capacity uint32
	count    atomix.Uint32
	putLock  chan struct{}
	takeLock chan struct{}
}

// NewChannel creates a channel holding at most capacity items.
// It panics if capacity is not positive.
func NewChannel[T any](capacity int) *Channel[T] {
	if capacity <= 0 {
		panic("suspend: channel capacity must be positive")
	}
	c := &Channel[T]{
		capacity: uint32(capacity),
		putLock:  make(chan struct{}, 1),
		takeLock: make(chan struct{}, 1),
	}
	c.ring.Init(ringSize(capacity))
	return c
}

// ringSize rounds capacity up to a power of two, minimum 2.
func ringSize(capacity int) int {
	n := 2
	for n < capacity {
		n <<= 1
	}
	return n
}

// Cap returns the fixed capacity.
func (c *Channel[T]) Cap() int {
	return int(c.capacity)
}

// Len returns the number of buffered items. Under concurrent use the
// result is a snapshot.
func (c *Channel[T]) Len() int {
	return int(c.count.Load())
}

// Put appends v, blocking while the channel is full.
// If ctx ends first, Put returns an error wrapping ErrInterrupted and
// ctx.Err(), and the channel is left unchanged.
func (c *Channel[T]) Put(ctx context.Context, v T) error {
	var bo iox.Backoff
	for {
		if err := acquire(ctx, c.putLock); err != nil {
			return err
		}
		err := c.enqueue(&v)
		release(c.putLock)
		if err == nil {
			return nil
		}
		bo.Wait()
	}
}

// Take removes and returns the head item, blocking while the channel is
// empty. If ctx ends first, Take returns an error wrapping ErrInterrupted
// and ctx.Err(), and no item is consumed.
func (c *Channel[T]) Take(ctx context.Context) (T, error) {
	var bo iox.Backoff
	for {
		if err := acquire(ctx, c.takeLock); err != nil {
			var zero T
			return zero, err
		}
		v, err := c.dequeue()
		release(c.takeLock)
		if err == nil {
			return v, nil
		}
		bo.Wait()
	}
}

// TryPut appends v without waiting for room.
// Returns iox.ErrWouldBlock only if the channel is full; contention with
// other producers is waited out.
func (c *Channel[T]) TryPut(v T) error {
	c.putLock <- struct{}{}
	defer release(c.putLock)
	return c.enqueue(&v)
}

// TryTake removes the head item without waiting for one.
// Returns iox.ErrWouldBlock only if the channel is empty; contention with
// other consumers is waited out.
func (c *Channel[T]) TryTake() (T, error) {
	c.takeLock <- struct{}{}
	defer release(c.takeLock)
	return c.dequeue()
}

// enqueue must be called with putLock held.
func (c *Channel[T]) enqueue(v *T) error {
	if c.count.Load() >= c.capacity {
		return iox.ErrWouldBlock
	}
	c.count.Add(1)
	if err := c.ring.Enqueue(v); err != nil {
		c.count.Add(^uint32(0))
		return err
	}
	return nil
}

// dequeue must be called with takeLock held.
func (c *Channel[T]) dequeue() (T, error) {
	v, err := c.ring.Dequeue()
	if err != nil {
		return v, err
	}
	c.count.Add(^uint32(0))
	return v, nil
}

func acquire(ctx context.Context, lock chan struct{}) error {
	if err := ctx.Err(); err != nil {
		return interrupted(err)
	}
	select {
	case lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return interrupted(ctx.Err())
	}
}

func release(lock chan struct{}) {
	<-lock
}
