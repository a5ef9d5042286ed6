package service

import (
	"time"

	"medflow/internal/blob"
)

type options struct {
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audio   blob.Store
}

// Option configures service construction.
type Option func(*options)

// WithClock overrides the time source used for visit timestamps and MRNs.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger installs a log sink. The default discards everything.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics installs a metrics recorder for stage and operation outcomes.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithTracer installs a tracer around service operations.
func WithTracer(tracer Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithAudioArchive attaches an audio recording archive. Without one,
// recording operations report an error.
func WithAudioArchive(audio blob.Store) Option {
	return func(o *options) { o.audio = audio }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:   ClockFunc(time.Now),
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
