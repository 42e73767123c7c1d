package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the manager registers its collectors there", func() {
				So(manager, ShouldNotBeNil)
				manager.menuRefreshes.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pre"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names carry namespace, subsystem and prefix", func() {
				manager.exactMatches.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_namespace_test_subsystem_pre_exact_matches_total")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording assignment metrics", func() {
			before := testutil.ToFloat64(globalManager.assignments.WithLabelValues("confirmed"))
			RecordAssignment("confirmed", 3*time.Second, 1)
			RecordMatch(100, true)
			RecordConfirmation("success")

			Convey("Then the outcome counter moves", func() {
				So(testutil.ToFloat64(globalManager.assignments.WithLabelValues("confirmed")), ShouldEqual, before+1)
			})
		})

		Convey("When recording queue metrics", func() {
			UpdateQueueCapacity(8)
			UpdateQueueSize(3)

			Convey("Then gauges hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 8)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
			})
		})

		Convey("When recording catalog metrics", func() {
			UpdateCatalogPositions("EGLL", 42)
			RecordCatalogCache(true)
			RecordCatalogWalk("ok", 20*time.Second)

			Convey("Then the per-airport gauge is set", func() {
				So(testutil.ToFloat64(globalManager.catalogPositions.WithLabelValues("EGLL")), ShouldEqual, 42)
			})
		})

		Convey("When recording errors and menu activity", func() {
			So(func() {
				RecordErrorByComponent("navigator", "navigation_timeout")
				RecordMenuClick("changed")
				RecordMenuRefresh()
				RecordGroundWait(time.Second)
				RecordNotification("ok")
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueDuplicate()
				RecordHTTPRequest("stats", "GET", "200")
				RecordHTTPRequestDuration("stats", "GET", "200", 1.5)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("Then the registry is shared", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
