// Package engine runs NFPA 291 evaluations on behalf of the HTTP API and the
// submissions pipeline, recording metrics for each one.
package engine

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
	"github.com/couchcryptid/hydrant-flow-service/internal/observability"
)

// Evaluation sources, used as the "source" metric label.
const (
	SourceHTTP     = "http"
	SourcePipeline = "pipeline"
)

// Evaluator runs the NFPA 291 engine with a fixed parameter set and records
// metrics for every evaluation. It is safe for concurrent use.
type Evaluator struct {
	params  domain.Params
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewEvaluator creates an Evaluator bound to params.
func NewEvaluator(params domain.Params, metrics *observability.Metrics, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		params:  params,
		metrics: metrics,
		logger:  logger,
	}
}

// Params returns the parameters evaluations run with.
func (e *Evaluator) Params() domain.Params {
	return e.params
}

// Evaluate runs a flow test and records its outcome.
func (e *Evaluator) Evaluate(source string, in domain.FlowTestInput) domain.FlowTestResult {
	start := time.Now()
	result := domain.Evaluate(in, e.params)
	e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	e.metrics.EvaluationWarnings.Observe(float64(len(result.Warnings)))

	if !result.Usable() {
		e.metrics.Evaluations.WithLabelValues(source, domain.StatusRejected).Inc()
		e.logger.Debug("flow test rejected",
			"source", source,
			"errors", len(result.Errors),
		)
		return result
	}

	e.metrics.Evaluations.WithLabelValues(source, domain.StatusAccepted).Inc()
	e.metrics.Classifications.WithLabelValues(string(result.NFPAClass)).Inc()
	e.logger.Debug("flow test evaluated",
		"source", source,
		"available_flow_gpm", result.AvailableFlowGPM,
		"nfpa_class", result.NFPAClass,
		"warnings", len(result.Warnings),
	)
	return result
}
