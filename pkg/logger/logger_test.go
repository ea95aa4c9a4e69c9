package logger_test

import (
	"context"
	"testing"

	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	convey.Convey("Given an initialized global logger", t, func() {
		err := logger.Init()
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When getting the global logger", func() {
			l := logger.Get()

			convey.Convey("Then it should not be nil", func() {
				convey.So(l, convey.ShouldNotBeNil)
			})

			convey.Convey("Then logging at every level should not panic", func() {
				ctx := context.Background()
				convey.So(func() {
					l.Debug(ctx, "debug line", logger.String("k", "v"))
					l.Info(ctx, "info line", logger.Int("count", 1))
					l.Warn(ctx, "warn line", logger.Bool("flag", true))
					l.Error(ctx, "error line", logger.Error(nil))
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When deriving a named logger", func() {
			l := logger.Named("session")

			convey.Convey("Then it should be usable", func() {
				convey.So(l, convey.ShouldNotBeNil)
				convey.So(func() {
					l.Info(context.Background(), "named line")
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When setting log levels from strings", func() {
			convey.So(logger.SetLevelString("debug"), convey.ShouldBeNil)
			convey.So(logger.SetLevelString("WARN"), convey.ShouldBeNil)
			convey.So(logger.SetLevelString(""), convey.ShouldBeNil)
			convey.So(logger.SetLevelString("verbose"), convey.ShouldNotBeNil)
		})
	})
}
