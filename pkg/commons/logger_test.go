// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package commons

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewApplicationLoggerDefaults(t *testing.T) {
	logger, err := NewApplicationLogger()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, logger.Level())
}

func TestNewApplicationLoggerWithLevel(t *testing.T) {
	logger, err := NewApplicationLogger(WithLevel(zapcore.DebugLevel))
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
}

func TestApplicationLoggerDoesNotPanic(t *testing.T) {
	logger, err := NewApplicationLogger(WithConsole(false))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		logger.Debug("debug")
		logger.Debugf("debug %d", 1)
		logger.Debugw("debug", "k", "v")
		logger.Info("info")
		logger.Infof("info %d", 1)
		logger.Infow("info", "k", "v")
		logger.Warn("warn")
		logger.Warnf("warn %d", 1)
		logger.Warnw("warn", "k", "v")
		logger.Error("error")
		logger.Errorf("error %d", 1)
		logger.Errorw("error", "k", "v")
		logger.Benchmark("op", 5*time.Millisecond)
		logger.Tracef(context.Background(), "trace %d", 1)
		logger.Tracef(WithCallID(context.Background(), "call-1"), "trace %d", 2)
		_ = logger.Sync()
	})
}

func TestWithFileOutputRotation(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewApplicationLogger(
		WithConsole(false),
		WithFileOutput(dir+"/app.log", 1, 1, 1),
	)
	require.NoError(t, err)
	logger.Info("hello file")
	require.NoError(t, logger.Sync())
}
