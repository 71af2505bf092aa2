package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// climate analysis pipeline.
type Metrics struct {
	ObservationsDecoded prometheus.Counter
	StructuralErrors    prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Station-year unit metrics.
	StationYears        *prometheus.CounterVec // labels: outcome={ok,empty,error}
	StationYearDuration prometheus.Histogram

	// Archive fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={ok,not_found,error}
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "observations_decoded_total",
			Help:      "Total archive rows decoded into observations.",
		}),
		StructuralErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "structural_errors_total",
			Help:      "Total rows rejected for a missing or malformed timestamp.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_etl",
			Name:      "pipeline_running",
			Help:      "1 while an analysis run is active, 0 otherwise.",
		}),
		StationYears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "station_years_total",
			Help:      "Station-year units processed by outcome.",
		}, []string{"outcome"}),
		StationYearDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_etl",
			Name:      "station_year_duration_seconds",
			Help:      "Duration of one station-year fetch and decode.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "fetch_requests_total",
			Help:      "Archive fetch attempts by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "cache_lookups_total",
			Help:      "Local payload cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.ObservationsDecoded,
		m.StructuralErrors,
		m.PipelineRunning,
		m.StationYears,
		m.StationYearDuration,
		m.FetchRequests,
		m.CacheLookups,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsDecoded: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "observations_decoded_total"}),
		StructuralErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "structural_errors_total"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climate_etl", Name: "pipeline_running"}),
		StationYears:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "station_years_total"}, []string{"outcome"}),
		StationYearDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_etl", Name: "station_year_duration_seconds"}),
		FetchRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "fetch_requests_total"}, []string{"outcome"}),
		CacheLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "cache_lookups_total"}, []string{"result"}),
	}
}
