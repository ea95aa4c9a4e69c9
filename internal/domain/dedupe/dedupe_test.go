package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gavelhq/gavel/internal/domain/dedupe"
	"github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a fresh deduper", t, func() {
		d := dedupe.New()

		convey.Convey("When recording a new id", func() {
			seen := d.SeenAndRecord(ctx, "bid-1")

			convey.Convey("Then it should not have been seen before", func() {
				convey.So(seen, convey.ShouldBeFalse)
				convey.So(d.Size(), convey.ShouldEqual, 1)
			})

			convey.Convey("Then recording it again reports a duplicate", func() {
				convey.So(d.SeenAndRecord(ctx, "bid-1"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When unrecording an id", func() {
			d.SeenAndRecord(ctx, "bid-2")
			d.Unrecord(ctx, "bid-2")

			convey.Convey("Then it can be recorded fresh again", func() {
				convey.So(d.SeenAndRecord(ctx, "bid-2"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When many goroutines race on the same id", func() {
			var wg sync.WaitGroup
			duplicates := make(chan bool, 50)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					duplicates <- d.SeenAndRecord(ctx, "bid-race")
				}()
			}
			wg.Wait()
			close(duplicates)

			convey.Convey("Then exactly one recording wins", func() {
				fresh := 0
				for dup := range duplicates {
					if !dup {
						fresh++
					}
				}
				convey.So(fresh, convey.ShouldEqual, 1)
			})
		})
	})

	convey.Convey("Given a bounded deduper", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(3))

		convey.Convey("When exceeding the bound", func() {
			for i := 0; i < 5; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("bid-%d", i))
			}

			convey.Convey("Then the oldest ids are evicted first", func() {
				convey.So(d.Size(), convey.ShouldEqual, 3)
				convey.So(d.SeenAndRecord(ctx, "bid-0"), convey.ShouldBeFalse)
				convey.So(d.SeenAndRecord(ctx, "bid-4"), convey.ShouldBeTrue)
			})
		})
	})
}
