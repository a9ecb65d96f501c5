package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	Runs            *prometheus.CounterVec // labels: outcome={success,fetch_error,decode_error,transform_error,load_error}
	RunDuration     prometheus.Histogram
	FetchDuration   prometheus.Histogram
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	// Source and reconciliation metrics.
	SourceRows     *prometheus.CounterVec // labels: table={inspections,cases}
	RetractedRows  prometheus.Counter
	RepositiveRows prometheus.Counter

	// Published figures of the latest successful run.
	Cases           prometheus.Gauge
	Tested          prometheus.Gauge
	DeathsOverdrawn prometheus.Gauge
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      help("Pipeline runs by outcome."),
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      help("Duration of a complete fetch-transform-load run."),
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("Duration of locating and downloading both workbooks."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      help("Unix time of the last successful run."),
		}),
		SourceRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rows_total",
			Help:      help("Data rows decoded from the source workbooks."),
		}, []string{"table"}),
		RetractedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retracted_rows_total",
			Help:      help("Case rows dropped because they were marked retracted."),
		}),
		RepositiveRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repositive_rows_total",
			Help:      help("Case rows dropped as repeats of an earlier case number."),
		}),
		Cases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cases",
			Help:      help("Confirmed cases in the latest document."),
		}),
		Tested: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tested",
			Help:      help("Cumulative tests in the latest document."),
		}),
		DeathsOverdrawn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deaths_override_overdrawn",
			Help:      help("1 when the known death count exceeds the discharged tally."),
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.Runs,
		m.RunDuration,
		m.FetchDuration,
		m.PipelineRunning,
		m.LastSuccess,
		m.SourceRows,
		m.RetractedRows,
		m.RepositiveRows,
		m.Cases,
		m.Tested,
		m.DeathsOverdrawn,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
