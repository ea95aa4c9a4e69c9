package store_test

import (
	"context"
	"testing"

	"github.com/gavelhq/gavel/internal/adapters/store"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a seeded memory store", t, func() {
		m := store.NewMemory()
		m.SeedTeam(store.TeamRecord{ID: "t1", Name: "Strikers", TotalBudget: decimal.NewFromInt(100)})
		m.SeedTeam(store.TeamRecord{ID: "t2", Name: "Rovers", TotalBudget: decimal.NewFromInt(80)})
		m.SeedLot(store.LotRecord{ID: "l2", PlayerRef: "p2", BasePrice: decimal.NewFromInt(5), Position: 2})
		m.SeedLot(store.LotRecord{ID: "l1", PlayerRef: "p1", BasePrice: decimal.NewFromInt(3), Position: 1})

		convey.Convey("GetTeam returns the record and misses are ErrNotFound", func() {
			got, err := m.GetTeam(ctx, "t1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Name, convey.ShouldEqual, "Strikers")

			_, err = m.GetTeam(ctx, "nope")
			convey.So(err, convey.ShouldEqual, store.ErrNotFound)
		})

		convey.Convey("ListLots orders by position", func() {
			lots, err := m.ListLots(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(lots), convey.ShouldEqual, 2)
			convey.So(lots[0].ID, convey.ShouldEqual, "l1")
			convey.So(lots[1].ID, convey.ShouldEqual, "l2")
		})

		convey.Convey("ApplyDebit accumulates spend", func() {
			convey.So(m.ApplyDebit(ctx, "t1", decimal.NewFromInt(30)), convey.ShouldBeNil)
			convey.So(m.ApplyDebit(ctx, "t1", decimal.NewFromInt(10)), convey.ShouldBeNil)
			got, _ := m.GetTeam(ctx, "t1")
			convey.So(got.Spent.Equal(decimal.NewFromInt(40)), convey.ShouldBeTrue)

			convey.So(m.ApplyDebit(ctx, "ghost", decimal.NewFromInt(1)), convey.ShouldEqual, store.ErrNotFound)
		})

		convey.Convey("RecordSale is idempotent but rejects conflicting records", func() {
			sale := model.SaleRecord{LotID: "l1", WinningTeamID: "t1", FinalAmount: decimal.NewFromInt(7), SettledAtSeq: 4}
			convey.So(m.RecordSale(ctx, sale), convey.ShouldBeNil)
			convey.So(m.RecordSale(ctx, sale), convey.ShouldBeNil)

			conflict := sale
			conflict.WinningTeamID = "t2"
			convey.So(m.RecordSale(ctx, conflict), convey.ShouldEqual, store.ErrDuplicateSale)

			convey.So(len(m.Sales()), convey.ShouldEqual, 1)
		})

		convey.Convey("Record conversions carry over budget fields", func() {
			got, _ := m.GetTeam(ctx, "t2")
			budget := got.TeamBudget()
			convey.So(budget.TeamID, convey.ShouldEqual, "t2")
			convey.So(budget.Total.Equal(decimal.NewFromInt(80)), convey.ShouldBeTrue)

			lot, _ := m.GetLot(ctx, "l1")
			convey.So(lot.Lot().Status, convey.ShouldEqual, model.LotPending)
		})
	})
}
