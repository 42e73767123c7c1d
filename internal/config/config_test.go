package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/gatedirector/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ClickSettle, convey.ShouldEqual, 100*time.Millisecond)
			convey.So(cfg.MenuCheckAttempts, convey.ShouldEqual, 4)
			convey.So(cfg.MenuReadRetries, convey.ShouldEqual, 100)
			convey.So(cfg.AssignAttempts, convey.ShouldEqual, 2)
			convey.So(cfg.ConfirmTimeout, convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.UnchangedConfirmTimeout, convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.NotifyTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.DefaultAirline, convey.ShouldEqual, "GSX")
			convey.So(cfg.Matching, convey.ShouldResemble, config.MatchWeights{Numeric: 0.6, Prefix: 0.3, Terminal: 0.1})
			convey.So(cfg.MenuFilePaths, convey.ShouldHaveLength, 2)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
