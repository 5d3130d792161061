// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package commons carries the ambient logging primitives shared by every
// internal package: a vendor-agnostic Logger interface and a zap-backed
// implementation with optional lumberjack file rotation.
package commons

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging surface every internal package depends on. It is
// intentionally small and call-site oriented (printf-style, key-value, and
// plain variadic forms) rather than a structured zap.Field API, so call
// sites never need to import zap directly.
type Logger interface {
	Level() zapcore.Level

	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	DPanic(args ...interface{})
	DPanicf(template string, args ...interface{})

	Panic(args ...interface{})
	Panicf(template string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})

	// Benchmark logs the wall time a named operation took.
	Benchmark(functionName string, duration time.Duration)

	// Tracef carries request-scoped identifiers (call id, channel) out of
	// ctx alongside the formatted message.
	Tracef(ctx context.Context, format string, args ...interface{})

	Sync() error
}

// applicationLogger wraps a zap.SugaredLogger to satisfy Logger.
type applicationLogger struct {
	sugar *zap.SugaredLogger
	level zapcore.Level
}

// Option configures NewApplicationLogger.
type Option func(*options)

type options struct {
	level      zapcore.Level
	filePath   string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	console    bool
}

// WithLevel sets the minimum enabled log level. Defaults to InfoLevel.
func WithLevel(level zapcore.Level) Option {
	return func(o *options) { o.level = level }
}

// WithFileOutput enables lumberjack-rotated file logging at path, in
// addition to (or instead of) console output.
func WithFileOutput(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		o.filePath = path
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
		o.maxAgeDays = maxAgeDays
	}
}

// WithConsole toggles console (stderr) output. Defaults to true.
func WithConsole(enabled bool) Option {
	return func(o *options) { o.console = enabled }
}

// NewApplicationLogger builds the default Logger implementation. It never
// returns a nil Logger even on a Sync error from a prior instance, matching
// the teacher's `logger, _ := commons.NewApplicationLogger()` call sites.
func NewApplicationLogger(opts ...Option) (Logger, error) {
	cfg := options{level: zapcore.InfoLevel, console: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var cores []zapcore.Core
	if cfg.console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), cfg.level))
	}
	if cfg.filePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.filePath,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), cfg.level))
	}

	core := zapcore.NewTee(cores...)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &applicationLogger{sugar: base.Sugar(), level: cfg.level}, nil
}

func (l *applicationLogger) Level() zapcore.Level { return l.level }

func (l *applicationLogger) Debug(args ...interface{})                    { l.sugar.Debug(args...) }
func (l *applicationLogger) Debugf(template string, args ...interface{})  { l.sugar.Debugf(template, args...) }
func (l *applicationLogger) Debugw(msg string, kv ...interface{})         { l.sugar.Debugw(msg, kv...) }

func (l *applicationLogger) Info(args ...interface{})                   { l.sugar.Info(args...) }
func (l *applicationLogger) Infof(template string, args ...interface{}) { l.sugar.Infof(template, args...) }
func (l *applicationLogger) Infow(msg string, kv ...interface{})        { l.sugar.Infow(msg, kv...) }

func (l *applicationLogger) Warn(args ...interface{})                   { l.sugar.Warn(args...) }
func (l *applicationLogger) Warnf(template string, args ...interface{}) { l.sugar.Warnf(template, args...) }
func (l *applicationLogger) Warnw(msg string, kv ...interface{})        { l.sugar.Warnw(msg, kv...) }

func (l *applicationLogger) Error(args ...interface{})                   { l.sugar.Error(args...) }
func (l *applicationLogger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }
func (l *applicationLogger) Errorw(msg string, kv ...interface{})        { l.sugar.Errorw(msg, kv...) }

func (l *applicationLogger) DPanic(args ...interface{})                   { l.sugar.DPanic(args...) }
func (l *applicationLogger) DPanicf(template string, args ...interface{}) { l.sugar.DPanicf(template, args...) }

func (l *applicationLogger) Panic(args ...interface{})                   { l.sugar.Panic(args...) }
func (l *applicationLogger) Panicf(template string, args ...interface{}) { l.sugar.Panicf(template, args...) }

func (l *applicationLogger) Fatal(args ...interface{})                   { l.sugar.Fatal(args...) }
func (l *applicationLogger) Fatalf(template string, args ...interface{}) { l.sugar.Fatalf(template, args...) }

func (l *applicationLogger) Benchmark(functionName string, duration time.Duration) {
	l.sugar.Infow("benchmark", "function", functionName, "duration_ms", duration.Milliseconds())
}

func (l *applicationLogger) Tracef(ctx context.Context, format string, args ...interface{}) {
	callID, _ := ctx.Value(callIDContextKey{}).(string)
	if callID == "" {
		l.sugar.Debugf(format, args...)
		return
	}
	l.sugar.Debugf("[call:"+callID+"] "+format, args...)
}

func (l *applicationLogger) Sync() error { return l.sugar.Sync() }

// callIDContextKey is the context key CallSession logging threads a call id
// through; exported via WithCallID so callers don't need zap in scope.
type callIDContextKey struct{}

// WithCallID returns a context carrying callID for Tracef to surface.
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDContextKey{}, callID)
}
