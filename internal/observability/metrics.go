package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for flow-test
// evaluation and the submissions pipeline.
type Metrics struct {
	// Evaluation metrics, shared by the HTTP API and the pipeline.
	Evaluations        *prometheus.CounterVec // labels: source={http,pipeline}, outcome={accepted,rejected}
	Classifications    *prometheus.CounterVec // labels: class={AA,A,B,C}
	EvaluationWarnings prometheus.Histogram
	EvaluationDuration prometheus.Histogram

	// Pipeline metrics.
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Evaluations,
		m.Classifications,
		m.EvaluationWarnings,
		m.EvaluationDuration,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrant_flow",
			Name:      "evaluations_total",
			Help:      "Flow test evaluations by source and outcome.",
		}, []string{"source", "outcome"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrant_flow",
			Name:      "classifications_total",
			Help:      "Accepted evaluations by assigned NFPA class.",
		}, []string{"class"}),
		EvaluationWarnings: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrant_flow",
			Name:      "evaluation_warnings",
			Help:      "Number of warnings raised per evaluation.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 7},
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrant_flow",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating a single flow test.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrant_flow",
			Name:      "messages_consumed_total",
			Help:      "Total submissions read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrant_flow",
			Name:      "messages_produced_total",
			Help:      "Total records written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrant_flow",
			Name:      "transform_errors_total",
			Help:      "Total submissions that could not be decoded.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydrant_flow",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrant_flow",
			Name:      "batch_size",
			Help:      "Number of submissions per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrant_flow",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
