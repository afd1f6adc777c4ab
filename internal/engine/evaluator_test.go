package engine_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
	"github.com/couchcryptid/hydrant-flow-service/internal/engine"
	"github.com/couchcryptid/hydrant-flow-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEvaluator_RecordsOutcome(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	ev := engine.NewEvaluator(domain.DefaultParams(), metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))

	in := domain.FlowTestInput{
		StaticPressurePsi:   75,
		ResidualPressurePsi: 55,
		Outlets: []domain.Outlet{
			{DiameterInches: 2.5, PitotPressurePsi: 45},
			{DiameterInches: 2.5, PitotPressurePsi: 42},
		},
	}
	accepted := ev.Evaluate(engine.SourceHTTP, in)
	assert.Equal(t, domain.ClassAA, accepted.NFPAClass)

	in.ResidualPressurePsi = 80
	rejected := ev.Evaluate(engine.SourcePipeline, in)
	assert.False(t, rejected.Usable())

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Evaluations.WithLabelValues(engine.SourceHTTP, domain.StatusAccepted)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Evaluations.WithLabelValues(engine.SourcePipeline, domain.StatusRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Classifications.WithLabelValues("AA")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.Evaluations.WithLabelValues(engine.SourcePipeline, domain.StatusAccepted)), 0)
}

func TestEvaluator_Params(t *testing.T) {
	p := domain.DefaultParams()
	p.TargetResidualPsi = 30
	ev := engine.NewEvaluator(p, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.InDelta(t, 30, ev.Params().TargetResidualPsi, 0)
}
