package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "damdice")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithFetchBuckets([]float64{100, 1000}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.latencyBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.fetchBuckets, ShouldResemble, []float64{100, 1000})
			})

			Convey("And empty options keep the defaults", func() {
				other := NewManager(WithNamespace(""), WithPrometheusRegistry(prometheus.NewRegistry()))
				So(other.namespace, ShouldEqual, "damdice")
			})

			Convey("And unordered buckets are ignored", func() {
				other := NewManager(
					WithLatencyBuckets([]float64{5, 1}),
					WithFetchBuckets([]float64{100, 100}),
					WithPrometheusRegistry(prometheus.NewRegistry()),
				)
				So(other.latencyBuckets[0], ShouldEqual, 1)
				So(other.fetchBuckets[0], ShouldEqual, 50)
			})
		})

		Convey("When registering the same manager twice on one registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration panics on duplicate collectors", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			before := testutil.ToFloat64(globalManager.rowsRejected.WithLabelValues("unknown_doubles_flag"))
			RecordRowRejected("unknown_doubles_flag")
			RecordRowRejected("unknown_doubles_flag")

			Convey("Then the counters move", func() {
				after := testutil.ToFloat64(globalManager.rowsRejected.WithLabelValues("unknown_doubles_flag"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When updating category gauges", func() {
			UpdateCategoryCounts("10 km", 12, 3, 7)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.recordsByCategory.WithLabelValues("10 km")), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.racesByCategory.WithLabelValues("10 km")), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.paddlersByCategory.WithLabelValues("10 km")), ShouldEqual, 7)
			})
		})

		Convey("When recording the rest of the collectors", func() {
			So(func() {
				RecordFeedFetch("ok", 120)
				RecordFeedFetch("error", 30)
				UpdateFeedBytes(2048)
				RecordRowsIngested(40)
				RecordDuplicateSubmission()
				RecordPipelineRun("ok", 150)
				UpdatePipelineLastRun(1_760_000_000)
				RecordCacheLookup("hit")
				RecordHTTPRequest("/", "GET", "200")
				RecordHTTPRequestDuration("/", "GET", "200", 3)
				RecordErrorByEndpoint("/", "GET", "bad_gateway")
				UpdateSystemMemory(1<<20, 1<<22)
				UpdateGoroutineCount(12)
			}, ShouldNotPanic)

			Convey("Then they are exposed on the custom registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "damdice_results_feed_fetches_total")
				So(joined, ShouldContainSubstring, "damdice_results_pipeline_runs_total")
				So(joined, ShouldContainSubstring, "damdice_http_requests_total")
				So(joined, ShouldContainSubstring, "damdice_http_request_duration_milliseconds")
				So(joined, ShouldContainSubstring, "damdice_http_errors_by_endpoint_total")
				So(joined, ShouldNotContainSubstring, "damdice_results_http_")
				So(joined, ShouldContainSubstring, "damdice_system_goroutines")
			})
		})
	})
}
