package canvas

import (
	"log/slog"
	"time"
)

// Option configures a Runner or a SurfaceRenderer.
//
// Example:
//
//	r, err := canvas.NewRunner(renderer, newApp, 800, 600, 2,
//	    canvas.WithWorkers(4),
//	    canvas.WithTaskTimeout(10*time.Second))
type Option func(*options)

// options holds optional configuration shared by NewRunner and
// NewSurfaceRenderer. Each constructor reads the fields it needs.
type options struct {
	// Runner.
	atlas       Atlas
	workers     int
	taskTimeout time.Duration
	logger      *slog.Logger

	// Surface renderer.
	sampleCount       uint32
	maxDimension      uint32
	clearColor        Color
	acquireRetryDelay time.Duration
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		clearColor: White,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithAtlas replaces the default atlas.
func WithAtlas(a Atlas) Option {
	return func(o *options) {
		o.atlas = a
	}
}

// WithWorkers sets the number of scheduler workers.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTaskTimeout bounds every task run. The task observes the limit
// through its context. Zero disables the limit.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *options) {
		o.taskTimeout = d
	}
}

// WithLogger installs l as the package logger, as SetLogger does.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSampleCount sets the multisample count of the surface targets.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		o.sampleCount = n
	}
}

// WithMaxDimension caps the surface dimensions. The device limit still
// applies when it is lower.
func WithMaxDimension(n uint32) Option {
	return func(o *options) {
		o.maxDimension = n
	}
}

// WithClearColor sets the color the surface is cleared to before drawing.
func WithClearColor(c Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithAcquireRetryDelay sets the pause before retrying a failed surface
// acquisition.
func WithAcquireRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.acquireRetryDelay = d
	}
}
