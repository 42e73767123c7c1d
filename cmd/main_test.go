package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gatedirector/internal/adapters/http/api"
	"github.com/okian/gatedirector/internal/config"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.New(context.Background())
	cfg.DataDir = filepath.Join(t.TempDir(), "catalogs")
	cfg.FlightJSONPath = ""
	cfg.SimBridgeURL = "http://127.0.0.1:1"
	return cfg
}

func TestBuild(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := testConfig(t)

		convey.Convey("When the director is wired", func() {
			svc, err := build(cfg, logger.Nop())

			convey.Convey("Then the service and its HTTP surface are usable", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc, convey.ShouldNotBeNil)

				mux := http.NewServeMux()
				api.NewServer(svc, svc).Register(context.Background(), mux)

				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				w = httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalogs/EGLL", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When the catalog directory cannot be created", func() {
			cfg.DataDir = filepath.Join("/dev/null", "catalogs")
			_, err := build(cfg, logger.Nop())

			convey.Convey("Then wiring fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given a wired service", t, func() {
		svc, err := build(testConfig(t), logger.Nop())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the updater stops with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}
