package budget_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gavelhq/gavel/internal/domain/budget"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func hydrated(teams ...model.TeamBudget) *budget.Ledger {
	l := budget.New()
	l.Hydrate(context.Background(), teams)
	return l
}

func team(id string, total int64) model.TeamBudget {
	return model.TeamBudget{TeamID: id, Total: decimal.NewFromInt(total)}
}

func TestLedger(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a ledger with two teams", t, func() {
		l := hydrated(team("a", 10_000_000), team("b", 8_000_000))

		convey.Convey("When reading remaining for a known team", func() {
			remaining, err := l.Remaining(ctx, "a")

			convey.Convey("Then it should equal the total", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(remaining.Equal(decimal.NewFromInt(10_000_000)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When reading an unknown team", func() {
			_, err := l.Remaining(ctx, "ghost")

			convey.Convey("Then it should report unknown team", func() {
				convey.So(errors.Is(err, budget.ErrUnknownTeam), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When debiting within budget", func() {
			err := l.Debit(ctx, "a", decimal.NewFromInt(6_500_000))

			convey.Convey("Then remaining should reflect the spend", func() {
				convey.So(err, convey.ShouldBeNil)
				b, _ := l.Get(ctx, "a")
				convey.So(b.Spent.Equal(decimal.NewFromInt(6_500_000)), convey.ShouldBeTrue)
				convey.So(b.Remaining().Equal(decimal.NewFromInt(3_500_000)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When debiting more than remaining", func() {
			err := l.Debit(ctx, "b", decimal.NewFromInt(9_000_000))

			convey.Convey("Then it should fail and leave the balance untouched", func() {
				convey.So(errors.Is(err, budget.ErrInsufficientFunds), convey.ShouldBeTrue)
				b, _ := l.Get(ctx, "b")
				convey.So(b.Spent.IsZero(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When reserving and releasing funds", func() {
			convey.So(l.Reserve(ctx, "a", decimal.NewFromInt(4_000_000)), convey.ShouldBeNil)

			remaining, _ := l.Remaining(ctx, "a")
			convey.So(remaining.Equal(decimal.NewFromInt(6_000_000)), convey.ShouldBeTrue)

			convey.Convey("Then a debit may not eat into the reservation", func() {
				err := l.Debit(ctx, "a", decimal.NewFromInt(7_000_000))
				convey.So(errors.Is(err, budget.ErrInsufficientFunds), convey.ShouldBeTrue)
			})

			convey.Convey("Then releasing restores the remaining budget", func() {
				convey.So(l.Release(ctx, "a", decimal.NewFromInt(4_000_000)), convey.ShouldBeNil)
				remaining, _ := l.Remaining(ctx, "a")
				convey.So(remaining.Equal(decimal.NewFromInt(10_000_000)), convey.ShouldBeTrue)
			})

			convey.Convey("Then releasing more than reserved fails", func() {
				err := l.Release(ctx, "a", decimal.NewFromInt(5_000_000))
				convey.So(errors.Is(err, budget.ErrInvalidAmount), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When many debits race for one team", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = l.Debit(ctx, "a", decimal.NewFromInt(1_000_000))
				}()
			}
			wg.Wait()

			convey.Convey("Then remaining should never go negative", func() {
				b, _ := l.Get(ctx, "a")
				convey.So(b.Remaining().Sign() >= 0, convey.ShouldBeTrue)
				convey.So(b.Spent.LessThanOrEqual(b.Total), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When summing spent across teams", func() {
			convey.So(l.Debit(ctx, "a", decimal.NewFromInt(2_000_000)), convey.ShouldBeNil)
			convey.So(l.Debit(ctx, "b", decimal.NewFromInt(3_000_000)), convey.ShouldBeNil)

			convey.Convey("Then the invariant remaining = total - spent - reserved holds", func() {
				for _, b := range l.Snapshot(ctx) {
					convey.So(b.Remaining().Equal(b.Total.Sub(b.Spent).Sub(b.Reserved)), convey.ShouldBeTrue)
				}
				convey.So(l.TotalSpent(ctx).Equal(decimal.NewFromInt(5_000_000)), convey.ShouldBeTrue)
			})
		})
	})
}
