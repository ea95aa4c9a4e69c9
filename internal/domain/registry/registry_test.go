package registry_test

import (
	"context"
	"testing"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/registry"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func lot(id string) model.Lot {
	return model.Lot{
		ID:        id,
		PlayerRef: "player-" + id,
		BasePrice: decimal.NewFromInt(15_000_000),
	}
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an empty registry", t, func() {
		r := registry.New()

		convey.Convey("When asking for the next lot", func() {
			_, err := r.Next(ctx)

			convey.Convey("Then it should report an empty queue", func() {
				convey.So(err, convey.ShouldEqual, registry.ErrEmpty)
			})
		})

		convey.Convey("When enqueueing lots", func() {
			convey.So(r.Enqueue(ctx, lot("a")), convey.ShouldBeNil)
			convey.So(r.Enqueue(ctx, lot("b")), convey.ShouldBeNil)
			convey.So(r.Enqueue(ctx, lot("c")), convey.ShouldBeNil)

			convey.Convey("Then they should be served strictly in insertion order", func() {
				first, err := r.Next(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(first.ID, convey.ShouldEqual, "a")
				convey.So(first.Status, convey.ShouldEqual, model.LotPending)

				convey.So(r.Complete(ctx, "a"), convey.ShouldBeNil)
				second, err := r.Next(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(second.ID, convey.ShouldEqual, "b")
			})

			convey.Convey("Then Next while a lot is checked out should fail", func() {
				_, err := r.Next(ctx)
				convey.So(err, convey.ShouldBeNil)

				_, err = r.Next(ctx)
				convey.So(err, convey.ShouldEqual, registry.ErrInvalidState)
			})

			convey.Convey("Then Peek should not consume the head", func() {
				head, ok := r.Peek(ctx)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(head.ID, convey.ShouldEqual, "a")
				convey.So(r.Len(ctx), convey.ShouldEqual, 3)
			})

			convey.Convey("Then a duplicate id should be rejected", func() {
				convey.So(r.Enqueue(ctx, lot("a")), convey.ShouldEqual, registry.ErrDuplicateLot)
			})

			convey.Convey("When reordering the pending queue", func() {
				convey.So(r.Reorder(ctx, []string{"c", "a", "b"}), convey.ShouldBeNil)

				convey.Convey("Then the new order should be served", func() {
					next, err := r.Next(ctx)
					convey.So(err, convey.ShouldBeNil)
					convey.So(next.ID, convey.ShouldEqual, "c")
				})
			})

			convey.Convey("When reordering with an unknown id", func() {
				err := r.Reorder(ctx, []string{"a", "b", "x"})

				convey.Convey("Then it should be rejected and the queue untouched", func() {
					convey.So(err, convey.ShouldEqual, registry.ErrUnknownLot)
					head, _ := r.Peek(ctx)
					convey.So(head.ID, convey.ShouldEqual, "a")
				})
			})
		})

		convey.Convey("When completing a lot that is not checked out", func() {
			err := r.Complete(ctx, "ghost")

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldEqual, registry.ErrInvalidState)
			})
		})
	})
}
