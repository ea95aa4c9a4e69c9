package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gavelhq/gavel/internal/adapters/events"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type captureSink struct {
	mu   sync.Mutex
	seen []model.Event
}

func (c *captureSink) Deliver(_ context.Context, ev model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, ev)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestBus(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a started bus with a capture sink", t, func() {
		sink := &captureSink{}
		bus := events.New(events.WithCapacity(16), events.WithSink(sink))
		bus.Start(ctx)

		convey.Convey("When publishing events", func() {
			ok := bus.Publish(ctx, model.Event{Kind: model.EventLotOpened, LotID: "l1"})
			convey.So(ok, convey.ShouldBeTrue)
			ok = bus.Publish(ctx, model.Event{Kind: model.EventBidAccepted, LotID: "l1"})
			convey.So(ok, convey.ShouldBeTrue)

			convey.Convey("Then the sink receives them", func() {
				deadline := time.Now().Add(time.Second)
				for sink.count() < 2 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				convey.So(sink.count(), convey.ShouldEqual, 2)
				convey.So(bus.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the bus is closed", func() {
			convey.So(bus.Close(), convey.ShouldBeNil)

			convey.Convey("Then publishing reports a drop", func() {
				convey.So(bus.Publish(ctx, model.Event{Kind: model.EventLotUnsold}), convey.ShouldBeFalse)
			})

			convey.Convey("Then closing again is a no-op", func() {
				convey.So(bus.Close(), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a bus with a full buffer and no dispatchers", t, func() {
		bus := events.New(events.WithCapacity(1))
		// Not started: nothing drains the buffer.
		convey.So(bus.Publish(ctx, model.Event{Kind: model.EventLotOpened}), convey.ShouldBeTrue)

		convey.Convey("When publishing past capacity", func() {
			ok := bus.Publish(ctx, model.Event{Kind: model.EventBidAccepted})

			convey.Convey("Then the event is dropped, not blocked on", func() {
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(bus.Len(), convey.ShouldEqual, 1)
			})
		})
	})
}
