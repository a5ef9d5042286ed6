package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Observer receives the outcome of each stage as it completes, for metrics
// and tracing. A nil observer is never invoked.
type Observer func(ctx context.Context, stage string, err error, elapsed time.Duration)

type options struct {
	clock    func() time.Time
	idSuffix func() string
	observer Observer
}

// Option configures pipeline construction.
type Option func(*options)

// WithClock overrides the time source used for requisition ids and
// timestamps. Tests inject a frozen clock here.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithIDSuffix overrides the generator for the short random id suffix that
// keeps same-second requisitions from colliding.
func WithIDSuffix(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.idSuffix = fn
		}
	}
}

// WithObserver registers a per-stage outcome callback.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:    time.Now,
		idSuffix: shortSuffix,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// shortSuffix yields a 6-character random id fragment.
func shortSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
