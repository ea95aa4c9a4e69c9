// Package events is the fire-and-forget notification bus. Core state
// transitions publish without blocking; a bounded buffer absorbs bursts
// and drops on backpressure, counted but never propagated.
package events

import (
	"context"
	"strconv"
	"sync"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/gavelhq/gavel/pkg/metrics"
)

// Sink consumes delivered events. Delivery errors are logged, never retried.
type Sink interface {
	Deliver(ctx context.Context, ev model.Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev model.Event) error

func (f SinkFunc) Deliver(ctx context.Context, ev model.Event) error {
	return f(ctx, ev)
}

// Bus fans published events out to every sink through a small dispatcher
// pool.
type Bus struct {
	mu     sync.RWMutex
	ch     chan model.Event
	sinks  []Sink
	cap    int
	nwork  int
	log    logger.Logger
	wg     sync.WaitGroup
	closed bool
}

// New creates a bus. Call Start before publishing.
func New(opts ...Option) *Bus {
	b := &Bus{
		cap:   defaultCapacity,
		nwork: defaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.ch = make(chan model.Event, b.cap)
	if b.log == nil {
		b.log = logger.Get().Named("events")
	}
	return b
}

// Start launches the dispatcher workers. They exit when the bus closes or
// the context is cancelled.
func (b *Bus) Start(ctx context.Context) {
	for i := 0; i < b.nwork; i++ {
		b.wg.Add(1)
		go b.dispatch(ctx, "dispatcher-"+strconv.Itoa(i))
	}
}

func (b *Bus) dispatch(ctx context.Context, name string) {
	defer b.wg.Done()
	log := b.log.Named(name)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-b.ch:
			if !ok {
				return
			}
			metrics.UpdateEventQueueSize(len(b.ch))
			b.mu.RLock()
			sinks := b.sinks
			b.mu.RUnlock()
			for _, sink := range sinks {
				if err := sink.Deliver(ctx, ev); err != nil {
					log.Warn(ctx, "event delivery failed",
						logger.String("kind", string(ev.Kind)),
						logger.Error(err),
					)
				}
			}
		}
	}
}

// Publish enqueues an event without blocking. Returns false when the event
// was dropped on backpressure or a closed bus.
func (b *Bus) Publish(ctx context.Context, ev model.Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.RecordEventDropped()
		return false
	}
	select {
	case b.ch <- ev:
		metrics.RecordEventPublished()
		metrics.UpdateEventQueueSize(len(b.ch))
		return true
	default:
		metrics.RecordEventDropped()
		return false
	}
}

// AddSink registers a sink. Safe to call before or after Start.
func (b *Bus) AddSink(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// Len returns the number of buffered events.
func (b *Bus) Len() int {
	return len(b.ch)
}

// Close stops intake and waits for the dispatchers to drain.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
