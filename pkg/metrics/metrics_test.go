package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When options carry zero values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "glade")
				So(manager.subsystem, ShouldEqual, "rating")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording submission metrics", func() {
			So(func() {
				RecordSubmissionProcessed()
				RecordSubmissionRejected("duplicate")
				RecordSubmissionRejected("unparsable")
				RecordRatingUpdate()
				RecordVolatilityNonConvergence()
			}, ShouldNotPanic)
		})

		Convey("When recording recalculation metrics", func() {
			So(func() {
				RecordRecalculation(120, 35.5)
			}, ShouldNotPanic)
		})

		Convey("When updating gauges", func() {
			So(func() {
				UpdatePlayersTracked(42)
				UpdateTenantsTracked(3)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and store metrics", func() {
			So(func() {
				RecordHTTPRequest("scores", "POST", "201")
				RecordHTTPRequestDuration("scores", "POST", "201", 12.0)
				RecordStoreOperation("apply_update", 3.0)
				RecordStoreError()
			}, ShouldNotPanic)
		})
	})
}

func TestRegistryExposure(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		Convey("When gathering after recording", func() {
			RecordSubmissionProcessed()
			families, err := GetRegistry().Gather()

			Convey("Then the business metrics should be present", func() {
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, mf := range families {
					names[mf.GetName()] = true
				}
				So(names["glade_rating_submissions_processed_total"], ShouldBeTrue)
			})
		})

		Convey("When asking for the HTTP handler", func() {
			So(Handler(), ShouldNotBeNil)
		})
	})
}
