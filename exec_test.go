// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/suspend"
)

func TestExecPutTake(t *testing.T) {
	skipRace(t)
	in := suspend.NewChannel[int](2)
	out := suspend.NewChannel[string](2)

	// ?int.!string via two channels
	protocol := suspend.TakeBind(in, func(n int) kont.Eff[string] {
		s := fmt.Sprintf("got %d", n)
		return suspend.PutThen(out, s, kont.Pure(s))
	})

	if err := in.TryPut(42); err != nil {
		t.Fatalf("TryPut: %v", err)
	}
	result, err := suspend.Exec(context.Background(), protocol)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if result != "got 42" {
		t.Fatalf("result got %q, want %q", result, "got 42")
	}
	if v, err := out.TryTake(); err != nil || v != "got 42" {
		t.Fatalf("out got (%q, %v), want (got 42, nil)", v, err)
	}
}

func TestExecWaitsForProducer(t *testing.T) {
	skipRace(t)
	ch := suspend.NewChannel[int](1)
	protocol := suspend.TakeBind(ch, func(n int) kont.Eff[int] { return kont.Pure(n * 2) })

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = ch.Put(context.Background(), 21)
	}()
	result, err := suspend.Exec(context.Background(), protocol)
	if err != nil || result != 42 {
		t.Fatalf("Exec got (%d, %v), want (42, nil)", result, err)
	}
}

func TestExecInterrupted(t *testing.T) {
	skipRace(t)
	ch := suspend.NewChannel[int](1)
	protocol := suspend.TakeBind(ch, func(n int) kont.Eff[int] { return kont.Pure(n) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := suspend.Exec(ctx, protocol)
	if !errors.Is(err, suspend.ErrInterrupted) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Exec got %v, want ErrInterrupted wrapping DeadlineExceeded", err)
	}
}

func TestExecExprPutTake(t *testing.T) {
	skipRace(t)
	ch := suspend.NewChannel[int](4)
	protocol := suspend.ExprPutThen(ch, 1,
		suspend.ExprPutThen(ch, 2,
			suspend.ExprTakeBind(ch, func(a int) kont.Expr[int] {
				return suspend.ExprTakeBind(ch, func(b int) kont.Expr[int] {
					return kont.ExprReturn(a*10 + b)
				})
			}),
		),
	)
	result, err := suspend.ExecExpr(context.Background(), protocol)
	if err != nil || result != 12 {
		t.Fatalf("ExecExpr got (%d, %v), want (12, nil)", result, err)
	}
}

func TestStepAdvance(t *testing.T) {
	skipRace(t)
	ch := suspend.NewChannel[string](1)
	protocol := suspend.ExprTakeBind(ch, func(s string) kont.Expr[string] {
		return kont.ExprReturn("echo " + s)
	})

	_, susp := suspend.Step[string](protocol)
	if susp == nil {
		t.Fatal("expected suspension for Take")
	}
	if _, ok := susp.Op().(suspend.Take[string]); !ok {
		t.Fatalf("expected Take[string], got %T", susp.Op())
	}

	// Empty channel: the suspension stays pending.
	_, susp, err := suspend.Advance(susp)
	if !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("Advance on empty channel got %v, want ErrWouldBlock", err)
	}
	if susp == nil {
		t.Fatal("suspension consumed on ErrWouldBlock")
	}

	if err := ch.TryPut("hi"); err != nil {
		t.Fatalf("TryPut: %v", err)
	}
	result, susp, err := suspend.Advance(susp)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if susp != nil {
		t.Fatal("expected completion")
	}
	if result != "echo hi" {
		t.Fatalf("result got %q, want %q", result, "echo hi")
	}
}

func TestSpawnResumesHandle(t *testing.T) {
	skipRace(t)
	messages := suspend.NewChannel[string](5)
	h := suspend.New[string](nil)
	protocol := suspend.TakeBind(messages, func(m string) kont.Eff[string] { return kont.Pure(m) })
	if err := suspend.Spawn(suspend.GoDispatcher{}, h, protocol); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := messages.Put(context.Background(), "hello"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	o, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if v, _ := o.Value(); v != "hello" {
		t.Fatalf("outcome got %q, want %q", v, "hello")
	}
}

func TestSpawnCancelledTaskStops(t *testing.T) {
	skipRace(t)
	messages := suspend.NewChannel[string](1)
	h := suspend.New[string](nil)
	protocol := suspend.TakeBind(messages, func(m string) kont.Eff[string] { return kont.Pure(m) })
	_ = suspend.Spawn(suspend.GoDispatcher{}, h, protocol)
	h.Cancel()

	// The interrupted task must not consume a later message.
	time.Sleep(20 * time.Millisecond)
	if err := messages.TryPut("kept"); err != nil {
		t.Fatalf("TryPut: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if messages.Len() != 1 {
		t.Fatalf("Len got %d, want 1", messages.Len())
	}
}

func TestExecUnhandledPanics(t *testing.T) {
	type bogus struct{ kont.Phantom[int] }

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for unhandled effect")
		}
		msg, ok := r.(string)
		if !ok || msg != "suspend: unhandled effect in taskHandler" {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	_, _ = suspend.Exec(context.Background(), kont.Perform(bogus{}))
}
