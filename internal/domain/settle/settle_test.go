package settle_test

import (
	"context"
	"testing"

	"github.com/gavelhq/gavel/internal/domain/bidbook"
	"github.com/gavelhq/gavel/internal/domain/budget"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/internal/domain/settle"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type fixture struct {
	budgets *budget.Ledger
	book    *bidbook.Book
	engine  *settle.Engine
	events  []model.Event
}

func newFixture(totals map[string]int64) *fixture {
	f := &fixture{budgets: budget.New()}
	teams := make([]model.TeamBudget, 0, len(totals))
	for id, total := range totals {
		teams = append(teams, model.TeamBudget{TeamID: id, Total: decimal.NewFromInt(total)})
	}
	f.budgets.Hydrate(context.Background(), teams)
	f.book = bidbook.New(f.budgets)
	f.engine = settle.New(f.book, f.budgets,
		settle.WithNotifier(func(_ context.Context, ev model.Event) {
			f.events = append(f.events, ev)
		}),
	)
	return f
}

func (f *fixture) open(team string, amount int64) error {
	_, err := f.book.Submit(context.Background(), bidbook.SubmitRequest{
		LotID:        "lot-1",
		TeamID:       team,
		Amount:       decimal.NewFromInt(amount),
		Kind:         model.BidOpen,
		Phase:        model.LotOpen,
		BasePrice:    decimal.NewFromInt(1_000_000),
		MinIncrement: decimal.NewFromInt(500_000),
	})
	return err
}

func (f *fixture) sealed(team string, amount int64) error {
	_, err := f.book.Submit(context.Background(), bidbook.SubmitRequest{
		LotID:  "lot-1",
		TeamID: team,
		Amount: decimal.NewFromInt(amount),
		Kind:   model.BidSecret,
		Phase:  model.LotSecretWindow,
	})
	return err
}

func TestSettleHighestOpenBidWins(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given team A bids 6,000,000 and team B tops it with 6,500,000", t, func() {
		f := newFixture(map[string]int64{"a": 10_000_000, "b": 10_000_000})
		convey.So(f.open("a", 6_000_000), convey.ShouldBeNil)
		convey.So(f.open("b", 6_500_000), convey.ShouldBeNil)

		convey.Convey("When the lot settles", func() {
			sale, sold, err := f.engine.Settle(ctx, "lot-1")

			convey.Convey("Then team B wins at 6,500,000", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sold, convey.ShouldBeTrue)
				convey.So(sale.WinningTeamID, convey.ShouldEqual, "b")
				convey.So(sale.FinalAmount.Equal(decimal.NewFromInt(6_500_000)), convey.ShouldBeTrue)
			})

			convey.Convey("Then team B is debited and team A is untouched", func() {
				b, _ := f.budgets.Get(ctx, "b")
				convey.So(b.Spent.Equal(decimal.NewFromInt(6_500_000)), convey.ShouldBeTrue)
				a, _ := f.budgets.Get(ctx, "a")
				convey.So(a.Spent.IsZero(), convey.ShouldBeTrue)
			})

			convey.Convey("Then spent and sale totals reconcile", func() {
				convey.So(f.budgets.TotalSpent(ctx).Equal(f.engine.TotalSales(ctx)), convey.ShouldBeTrue)
			})
		})
	})
}

func TestSettleSealedBeatsOpen(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an open bid of 50,000,001 and sealed bids of 55M and 52M", t, func() {
		f := newFixture(map[string]int64{"a": 100_000_000, "b": 100_000_000, "c": 100_000_000})
		convey.So(f.open("a", 50_000_001), convey.ShouldBeNil)
		convey.So(f.sealed("b", 55_000_000), convey.ShouldBeNil)
		convey.So(f.sealed("c", 52_000_000), convey.ShouldBeNil)

		convey.Convey("When the lot settles", func() {
			sale, sold, err := f.engine.Settle(ctx, "lot-1")

			convey.Convey("Then the 55,000,000 sealer wins, not the open bidder", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sold, convey.ShouldBeTrue)
				convey.So(sale.WinningTeamID, convey.ShouldEqual, "b")
				convey.So(sale.FinalAmount.Equal(decimal.NewFromInt(55_000_000)), convey.ShouldBeTrue)
			})
		})
	})
}

func TestSettleTieBreakBySequence(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an open bid and a sealed bid at the exact same amount", t, func() {
		f := newFixture(map[string]int64{"a": 100_000_000, "b": 100_000_000})
		convey.So(f.open("a", 10_000_000), convey.ShouldBeNil)
		convey.So(f.sealed("b", 10_000_000), convey.ShouldBeNil)

		convey.Convey("When the lot settles", func() {
			sale, sold, err := f.engine.Settle(ctx, "lot-1")

			convey.Convey("Then the earlier sequence wins regardless of kind", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sold, convey.ShouldBeTrue)
				convey.So(sale.WinningTeamID, convey.ShouldEqual, "a")
			})
		})
	})
}

func TestSettleIdempotent(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a lot that already settled", t, func() {
		f := newFixture(map[string]int64{"a": 10_000_000})
		convey.So(f.open("a", 2_000_000), convey.ShouldBeNil)

		first, sold, err := f.engine.Settle(ctx, "lot-1")
		convey.So(err, convey.ShouldBeNil)
		convey.So(sold, convey.ShouldBeTrue)

		convey.Convey("When settling the same lot again", func() {
			second, sold, err := f.engine.Settle(ctx, "lot-1")

			convey.Convey("Then the original record returns without re-debiting", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sold, convey.ShouldBeTrue)
				convey.So(second, convey.ShouldResemble, first)
				a, _ := f.budgets.Get(ctx, "a")
				convey.So(a.Spent.Equal(decimal.NewFromInt(2_000_000)), convey.ShouldBeTrue)
			})
		})
	})
}

func TestSettleNoBids(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a lot with no accepted bids", t, func() {
		f := newFixture(map[string]int64{"a": 10_000_000})

		convey.Convey("When the lot settles", func() {
			_, sold, err := f.engine.Settle(ctx, "lot-1")

			convey.Convey("Then it resolves unsold with no sale record", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sold, convey.ShouldBeFalse)
				_, ok := f.engine.Record(ctx, "lot-1")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}

func TestSettleRevalidationFallsThrough(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given the top bidder's budget was drained after bidding", t, func() {
		f := newFixture(map[string]int64{"a": 10_000_000, "b": 10_000_000})
		convey.So(f.open("a", 6_000_000), convey.ShouldBeNil)
		convey.So(f.open("b", 7_000_000), convey.ShouldBeNil)

		// Simulates a concurrent settlement consuming team B's budget.
		convey.So(f.budgets.Debit(ctx, "b", decimal.NewFromInt(5_000_000)), convey.ShouldBeNil)

		convey.Convey("When the lot settles", func() {
			sale, sold, err := f.engine.Settle(ctx, "lot-1")

			convey.Convey("Then the next-highest bid from a different team wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sold, convey.ShouldBeTrue)
				convey.So(sale.WinningTeamID, convey.ShouldEqual, "a")
				convey.So(sale.FinalAmount.Equal(decimal.NewFromInt(6_000_000)), convey.ShouldBeTrue)
			})

			convey.Convey("Then an integrity violation event was surfaced", func() {
				convey.So(len(f.events), convey.ShouldEqual, 1)
				convey.So(f.events[0].Kind, convey.ShouldEqual, model.EventIntegrityViolation)
				convey.So(f.events[0].TeamID, convey.ShouldEqual, "b")
			})
		})
	})
}
