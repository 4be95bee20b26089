package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dengue_rainfall_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL job.
type Metrics struct {
	RecordsRead     *prometheus.CounterVec // labels: dataset={dengue,chuvas}
	KeysAggregated  *prometheus.CounterVec // labels: dataset
	RowErrors       *prometheus.CounterVec // labels: dataset
	KeysDropped     *prometheus.CounterVec // labels: missing={dengue,chuvas}
	RowsJoined      prometheus.Counter
	RowsLoaded      *prometheus.CounterVec // labels: sink={file,kafka,postgres}
	PipelineRunning prometheus.Gauge

	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsRead,
		m.KeysAggregated,
		m.RowErrors,
		m.KeysDropped,
		m.RowsJoined,
		m.RowsLoaded,
		m.PipelineRunning,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Input lines parsed, by dataset.",
		}, []string{"dataset"}),
		KeysAggregated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_aggregated_total",
			Help:      "Distinct region-month keys produced by aggregation, by dataset.",
		}, []string{"dataset"}),
		RowErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_errors_total",
			Help:      "Lines that failed parsing or key derivation, by dataset.",
		}, []string{"dataset"}),
		KeysDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_dropped_total",
			Help:      "Keys discarded by the join because one dataset had no value, by missing dataset.",
		}, []string{"missing"}),
		RowsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_joined_total",
			Help:      "Keys present in both datasets and emitted as output rows.",
		}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Output rows written, by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-aggregate-join-load run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}
