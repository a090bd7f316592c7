package surveydashboard

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes pipeline and server metrics on a private registry.
type Collector struct {
	reg *prometheus.Registry

	RowsLoaded      prometheus.Gauge
	RowsMalformed   prometheus.Gauge
	RecordsResolved prometheus.Gauge
	RecordsDropped  *prometheus.GaugeVec // reason label: zone|poi|non_poi
	OutsideTrips    prometheus.Gauge
	FuzzyMatches    prometheus.Gauge
	ZonesLoaded     prometheus.Gauge
	OutputFiles     prometheus.Gauge

	LastRun     prometheus.Gauge
	RunDuration prometheus.Histogram

	Requests *prometheus.CounterVec // path label
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_rows_loaded",
			Help: "Raw rows read from the trip workbook on the last run.",
		}),
		RowsMalformed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_rows_malformed",
			Help: "Workbook rows skipped for missing or invalid cells.",
		}),
		RecordsResolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_records_resolved",
			Help: "Directed trip records that resolved onto the taxonomy.",
		}),
		RecordsDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "survey_records_dropped",
			Help: "Rows or record ends dropped during normalization.",
		}, []string{"reason"}),
		OutsideTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_outside_trips",
			Help: "Records attributed to the null zone (origin outside the survey area).",
		}),
		FuzzyMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_fuzzy_city_matches",
			Help: "Origins resolved through fuzzy city-name matching.",
		}),
		ZonesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_zones_loaded",
			Help: "Zones in the spatial index, city zones included.",
		}),
		OutputFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_output_files",
			Help: "Files present in the output directory after the last run.",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_last_run_timestamp_seconds",
			Help: "Unix time of the last completed pipeline run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "survey_run_duration_seconds",
			Help:    "Duration of full pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_http_requests_total",
			Help: "Data server requests by path prefix.",
		}, []string{"path"}),
	}

	// Register
	reg.MustRegister(
		c.RowsLoaded, c.RowsMalformed,
		c.RecordsResolved, c.RecordsDropped,
		c.OutsideTrips, c.FuzzyMatches,
		c.ZonesLoaded, c.OutputFiles,
		c.LastRun, c.RunDuration,
		c.Requests,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// ObserveRun records one completed pipeline run.
func (c *Collector) ObserveRun(rep *RunReport, took time.Duration) {
	c.RowsLoaded.Set(float64(rep.Load.Rows))
	c.RowsMalformed.Set(float64(rep.Load.Malformed))
	c.RecordsResolved.Set(float64(rep.Normalize.Records))
	c.RecordsDropped.WithLabelValues("zone").Set(float64(rep.Normalize.DroppedZone))
	c.RecordsDropped.WithLabelValues("poi").Set(float64(rep.Normalize.DroppedPOI))
	c.RecordsDropped.WithLabelValues("non_poi").Set(float64(rep.Normalize.NonPOIRows))
	c.OutsideTrips.Set(float64(rep.Normalize.OutsideTrips))
	c.FuzzyMatches.Set(float64(rep.Normalize.FuzzyMatches))
	c.ZonesLoaded.Set(float64(rep.Zones))
	c.OutputFiles.Set(float64(rep.OutputFiles))
	c.LastRun.SetToCurrentTime()
	c.RunDuration.Observe(took.Seconds())
}
