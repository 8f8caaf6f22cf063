// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend_test

import (
	"context"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/suspend"
)

// BenchmarkResume measures creating, observing, and resuming a handle.
func BenchmarkResume(b *testing.B) {
	b.ReportAllocs()
	obs := suspend.Funcs[int]{}
	for b.Loop() {
		h := suspend.New[int](nil)
		h.Register(obs)
		h.Resume(1)
	}
}

// BenchmarkResumeContended measures the losing path of racing resolvers.
func BenchmarkResumeContended(b *testing.B) {
	h := suspend.New[int](nil)
	h.Resume(0)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h.Cancel()
		}
	})
}

// BenchmarkChannelPutTake measures an uncontended put/take round-trip.
func BenchmarkChannelPutTake(b *testing.B) {
	skipRace(b)
	ch := suspend.NewChannel[int](4)
	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		_ = ch.Put(ctx, 1)
		_, _ = ch.Take(ctx)
	}
}

// BenchmarkExecTakeBind measures a one-effect task protocol.
func BenchmarkExecTakeBind(b *testing.B) {
	skipRace(b)
	ch := suspend.NewChannel[int](4)
	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		_ = ch.TryPut(1)
		_, _ = suspend.Exec(ctx, suspend.TakeBind(ch, func(n int) kont.Eff[int] { return kont.Pure(n) }))
	}
}
