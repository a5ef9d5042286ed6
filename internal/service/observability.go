package service

import (
	"context"
	"log"
	"time"
)

// Logger is the minimal leveled logging surface the service emits to.
// The default is a no-op; deployments plug in their own sink.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StdLogger adapts the standard library logger to the Logger interface.
type StdLogger struct {
	L *log.Logger
}

func (s StdLogger) Debug(msg string, args ...any) { s.printf("DEBUG", msg, args) }
func (s StdLogger) Info(msg string, args ...any)  { s.printf("INFO", msg, args) }
func (s StdLogger) Warn(msg string, args ...any)  { s.printf("WARN", msg, args) }
func (s StdLogger) Error(msg string, args ...any) { s.printf("ERROR", msg, args) }

func (s StdLogger) printf(level, msg string, args []any) {
	if s.L == nil {
		return
	}
	s.L.Printf(level+" "+msg, args...)
}

// Clock abstracts the time source.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// MetricsRecorder receives per-stage and per-operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan finishes one traced operation.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
