package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gavelhq/gavel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BidTimeLimitSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.SecretWindowSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.Threshold().String(), convey.ShouldEqual, "50000000")
				convey.So(cfg.Increment().String(), convey.ShouldEqual, "500000")
				convey.So(cfg.AutoAdvance, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GAVEL_ADDR", ":8080")
			_ = os.Setenv("GAVEL_BID_TIME_LIMIT_SECONDS", "10")
			_ = os.Setenv("GAVEL_SECRET_BID_THRESHOLD", "5000000")
			_ = os.Setenv("GAVEL_MINIMUM_INCREMENT", "100000")
			_ = os.Setenv("GAVEL_AUTO_ADVANCE", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BidTimeLimitSeconds, convey.ShouldEqual, 10)
				convey.So(cfg.Threshold().String(), convey.ShouldEqual, "5000000")
				convey.So(cfg.Increment().String(), convey.ShouldEqual, "100000")
				convey.So(cfg.AutoAdvance, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()

			dir := t.TempDir()
			path := filepath.Join(dir, "gavel.yaml")
			yaml := "addr: \":7070\"\nsecret_window_seconds: 45\njwt_secret: file-secret\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("GAVEL_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.SecretWindowSeconds, convey.ShouldEqual, 45)
				convey.So(cfg.JWTSecret, convey.ShouldEqual, "file-secret")
			})
		})

		convey.Convey("When the config is invalid", func() {
			clearConfigEnvVars()
			_ = os.Setenv("GAVEL_MINIMUM_INCREMENT", "not-a-number")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with ErrInvalidConfig", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "invalid config")
			})
		})

		convey.Convey("When a negative window is configured", func() {
			clearConfigEnvVars()
			_ = os.Setenv("GAVEL_SECRET_WINDOW_SECONDS", "-5")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"GAVEL_CONFIG",
		"GAVEL_ADDR",
		"GAVEL_LOG_LEVEL",
		"GAVEL_BID_TIME_LIMIT_SECONDS",
		"GAVEL_SECRET_WINDOW_SECONDS",
		"GAVEL_SECRET_BID_THRESHOLD",
		"GAVEL_MINIMUM_INCREMENT",
		"GAVEL_EVENT_QUEUE_SIZE",
		"GAVEL_DISPATCHER_COUNT",
		"GAVEL_DEDUPE_SIZE",
		"GAVEL_DATABASE_DSN",
		"GAVEL_JWT_SECRET",
		"GAVEL_AUTO_ADVANCE",
		"GAVEL_MAX_SALES_LIMIT",
	} {
		_ = os.Unsetenv(key)
	}
}
