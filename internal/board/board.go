// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package board is an event-based message board: readers suspend until
// the next message arrives and writers suspend until their message has
// been queued.
package board

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"code.hybscloud.com/suspend"
)

// Stored is the response of a successful post.
const Stored = "Message stored."

// Board hands messages from posters to readers through a bounded channel.
type Board struct {
	messages *suspend.Channel[string]
	writers  suspend.Dispatcher
	readers  suspend.Dispatcher
	log      logr.Logger
}

// New creates a board over messages. Posts run on d.
//
// Reads always get a goroutine of their own: a reader may wait for a post
// indefinitely, and on a bounded d it would hold the worker that post needs.
func New(messages *suspend.Channel[string], d suspend.Dispatcher, log logr.Logger) *Board {
	return &Board{
		messages: messages,
		writers:  d,
		readers:  suspend.GoDispatcher{Log: log},
		log:      log,
	}
}

// Pending returns the number of queued messages.
func (b *Board) Pending() int {
	return b.messages.Len()
}

// NextMessage resumes h with the next message once one is available.
// If the wait is interrupted because h was cancelled or timed out, h is
// cancelled, closing the open connection if it is still suspended.
func (b *Board) NextMessage(h *suspend.Handle[string]) error {
	h.Register(resumeLog{log: b.log, serial: h.Serial()})

	ctx, stop := context.WithCancel(context.Background())
	h.Register(suspend.Listener[string](func(suspend.Outcome[string]) { stop() }))
	err := b.readers.Submit(func() {
		defer stop()
		msg, err := b.messages.Take(ctx)
		if err != nil {
			b.log.V(1).Info("take interrupted", "serial", h.Serial(), "err", err.Error())
			h.Cancel()
			return
		}
		if !h.Resume(msg) {
			b.requeue(h.Serial(), msg)
		}
	})
	if err != nil {
		stop()
		h.ResumeError(fmt.Errorf("schedule read: %w", err))
		return err
	}
	return nil
}

// PostMessage queues msg and resumes h with Stored. If the put is
// interrupted, h is resumed with the error.
func (b *Board) PostMessage(msg string, h *suspend.Handle[string]) error {
	return suspend.Go(b.writers, h, func(ctx context.Context) (string, error) {
		if err := b.messages.Put(ctx, msg); err != nil {
			b.log.Error(err, "put interrupted", "serial", h.Serial())
			return "", err
		}
		return Stored, nil
	})
}

// requeue returns a message taken for a reader whose handle was resolved
// in the meantime. The message goes to the tail of the queue.
func (b *Board) requeue(serial suspend.Serial, msg string) {
	if err := b.messages.TryPut(msg); err != nil {
		b.log.Error(err, "message dropped", "serial", serial)
		return
	}
	b.log.V(1).Info("message requeued", "serial", serial)
}

// resumeLog reports how a reader was resumed.
type resumeLog struct {
	log    logr.Logger
	serial suspend.Serial
}

func (r resumeLog) OnSuccess(string) {
	r.log.Info("Resumed with a response.", "serial", r.serial)
}

func (r resumeLog) OnFailure(err error) {
	r.log.Info("Resumed with error.", "serial", r.serial, "err", err.Error())
}
