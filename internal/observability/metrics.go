package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for table
// generation and the assessment pipeline.
type Metrics struct {
	// Table generation metrics.
	FetchRequests   *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration   prometheus.Histogram
	ParseFailures   *prometheus.CounterVec // labels: stage={extraction,validation}
	TablesGenerated prometheus.Counter

	// Assessment pipeline metrics.
	ReadingsConsumed    prometheus.Counter
	AssessmentsProduced prometheus.Counter
	EvaluationErrors    prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.ParseFailures,
		m.TablesGenerated,
		m.ReadingsConsumed,
		m.AssessmentsProduced,
		m.EvaluationErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
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
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "preservation_eval",
			Name:      "fetch_requests_total",
			Help:      "Source document fetch attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "preservation_eval",
			Name:      "fetch_duration_seconds",
			Help:      "Source document fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "preservation_eval",
			Name:      "parse_failures_total",
			Help:      "Table extraction failures by stage.",
		}, []string{"stage"}),
		TablesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "preservation_eval",
			Name:      "tables_generated_total",
			Help:      "Successful table set generations.",
		}),
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "preservation_eval",
			Name:      "readings_consumed_total",
			Help:      "Total climate readings read from the source topic.",
		}),
		AssessmentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "preservation_eval",
			Name:      "assessments_produced_total",
			Help:      "Total assessments written to the sink topic.",
		}),
		EvaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "preservation_eval",
			Name:      "evaluation_errors_total",
			Help:      "Total readings that could not be evaluated.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "preservation_eval",
			Name:      "pipeline_running",
			Help:      "1 when the assessment pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "preservation_eval",
			Name:      "batch_size",
			Help:      "Number of readings per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "preservation_eval",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-evaluate-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
