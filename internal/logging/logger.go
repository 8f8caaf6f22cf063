// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels passed to logr's V.
const (
	DEFAULT = 2
	VERBOSE = 3
	DEBUG   = 4
	TRACE   = 5
)

// atomicLevel is shared by every logger built here so the verbosity can be
// adjusted after construction.
var atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// New builds a zap-backed logr.Logger at the given verbosity.
func New(verbosity int, development bool) (logr.Logger, error) {
	SetVerbosity(verbosity)
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = atomicLevel
	z, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(z), nil
}

// SetVerbosity maps a logr verbosity onto the shared zap level.
func SetVerbosity(verbosity int) {
	atomicLevel.SetLevel(zapcore.Level(int8(-verbosity)))
}

// NewTestLogger creates a development logger that logs everything.
func NewTestLogger() logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-1 * TRACE))
	z, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(z)
}

// NewTestLoggerIntoContext creates a test logger and inserts it into ctx.
func NewTestLoggerIntoContext(ctx context.Context) context.Context {
	return logr.NewContext(ctx, NewTestLogger())
}
