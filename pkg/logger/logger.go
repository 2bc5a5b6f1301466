// Package logger is the zap-backed structured logger. Package-level helpers
// take a context and stamp every line with the request's trace and actor.
package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "pharmaledger/internal/core/context"
)

// Logger is a sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

// Config selects level and encoding.
type Config struct {
	Level string // debug, info, warn, error; anything else means info

	// Development switches to the colored console encoder.
	Development bool

	OutputPaths []string
}

// New builds a logger; an unparsable level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return FromZap(z), nil
}

// FromZap wraps z.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{z.Sugar()}
}

var fallback atomic.Pointer[Logger]

// Default returns the logger installed by SetDefault, or a JSON logger on
// stdout at info level.
func Default() *Logger {
	if l := fallback.Load(); l != nil {
		return l
	}
	l, err := New(Config{Level: "info", OutputPaths: []string{"stdout"}})
	if err != nil {
		l = FromZap(zap.NewNop())
	}
	if fallback.CompareAndSwap(nil, l) {
		return l
	}
	return fallback.Load()
}

// SetDefault installs l as the process logger.
func SetDefault(l *Logger) { fallback.Store(l) }

// WithContext returns l annotated with the trace and actor found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var kv []any
	if tc := appctx.GetTrace(ctx); tc != nil {
		kv = append(kv, "trace_id", tc.TraceID, "request_id", tc.RequestID)
	}
	if op := appctx.GetUser(ctx); op != nil {
		kv = append(kv, "user_id", op.UserID)
	}
	if len(kv) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(kv...)}
}

// WithComponent tags every line with component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

type ctxKey struct{}

// WithLogger stores l in ctx for FromContext.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or Default, annotated
// with ctx's trace and actor.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Debugw(msg, kv...) }
func Info(ctx context.Context, msg string, kv ...any)  { FromContext(ctx).Infow(msg, kv...) }
func Warn(ctx context.Context, msg string, kv ...any)  { FromContext(ctx).Warnw(msg, kv...) }
func Error(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Errorw(msg, kv...) }
