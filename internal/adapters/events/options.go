package events

import "github.com/gavelhq/gavel/pkg/logger"

// Default bus configuration constants.
const (
	defaultCapacity = 10_000
	defaultWorkers  = 2
)

// Option applies a configuration option to the Bus.
type Option func(*Bus)

// WithCapacity bounds the event buffer.
func WithCapacity(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.cap = n
		}
	}
}

// WithWorkers sets the number of dispatcher goroutines.
func WithWorkers(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.nwork = n
		}
	}
}

// WithSink registers an initial sink.
func WithSink(sink Sink) Option {
	return func(b *Bus) {
		if sink != nil {
			b.sinks = append(b.sinks, sink)
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Bus) {
		if log != nil {
			b.log = log
		}
	}
}
