// Package metrics records per-run pipeline counters in a private Prometheus
// registry and dumps them in the text exposition format, suitable for the
// node exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sales"

// RunStats is the outcome of one pipeline run.
type RunStats struct {
	LinesRead         int
	DroppedStructural int
	Parsed            int
	Invalid           int
	FilteredByRegion  int
	FilteredByAmount  int
	Valid             int
	UniqueProducts    int
	Lookups           int
	CacheHits         int
	Enriched          int
	Revenue           float64
	Duration          time.Duration
	CompletedAt       time.Time
}

// Recorder holds the gauges for one run.
type Recorder struct {
	registry *prometheus.Registry

	lines       *prometheus.GaugeVec
	records     *prometheus.GaugeVec
	lookups     prometheus.Gauge
	cacheHits   prometheus.Gauge
	products    prometheus.Gauge
	enriched    prometheus.Gauge
	revenue     prometheus.Gauge
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.lines = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "input_lines",
		Help:      "Input lines by outcome (read, dropped).",
	}, []string{"outcome"})

	r.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Parsed records by outcome (parsed, invalid, filtered_region, filtered_amount, valid).",
	}, []string{"outcome"})

	r.lookups = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "enrichment",
		Name:      "lookups",
		Help:      "Category lookups made (cache misses).",
	})
	r.cacheHits = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "enrichment",
		Name:      "cache_hits",
		Help:      "Records served from the run cache.",
	})
	r.products = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "enrichment",
		Name:      "unique_products",
		Help:      "Distinct product names seen.",
	})
	r.enriched = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "enrichment",
		Name:      "enriched_records",
		Help:      "Records with a category other than Unknown.",
	})
	r.revenue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "revenue_total",
		Help:      "Total revenue of the valid records.",
	})
	r.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run.",
	})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time the last successful run completed.",
	})

	r.registry.MustRegister(
		r.lines,
		r.records,
		r.lookups,
		r.cacheHits,
		r.products,
		r.enriched,
		r.revenue,
		r.duration,
		r.lastSuccess,
	)

	return r
}

// ObserveRun sets every gauge from s.
func (r *Recorder) ObserveRun(s RunStats) {
	r.lines.WithLabelValues("read").Set(float64(s.LinesRead))
	r.lines.WithLabelValues("dropped").Set(float64(s.DroppedStructural))

	r.records.WithLabelValues("parsed").Set(float64(s.Parsed))
	r.records.WithLabelValues("invalid").Set(float64(s.Invalid))
	r.records.WithLabelValues("filtered_region").Set(float64(s.FilteredByRegion))
	r.records.WithLabelValues("filtered_amount").Set(float64(s.FilteredByAmount))
	r.records.WithLabelValues("valid").Set(float64(s.Valid))

	r.lookups.Set(float64(s.Lookups))
	r.cacheHits.Set(float64(s.CacheHits))
	r.products.Set(float64(s.UniqueProducts))
	r.enriched.Set(float64(s.Enriched))
	r.revenue.Set(s.Revenue)
	r.duration.Set(s.Duration.Seconds())
	if !s.CompletedAt.IsZero() {
		r.lastSuccess.Set(float64(s.CompletedAt.Unix()))
	}
}

// Registry exposes the registry for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values to path. The file is replaced
// atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
