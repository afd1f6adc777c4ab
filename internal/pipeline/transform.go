package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
	"github.com/couchcryptid/hydrant-flow-service/internal/engine"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// FlowTestTransformer implements Transformer: it decodes a submission,
// evaluates it, and serializes the resulting record.
type FlowTestTransformer struct {
	evaluator *engine.Evaluator
	clock     clockwork.Clock
	newID     func() string
	logger    *slog.Logger
}

// NewTransformer creates a FlowTestTransformer. Pass a fake clock in tests for
// deterministic evaluated_at stamps.
func NewTransformer(evaluator *engine.Evaluator, clock clockwork.Clock, logger *slog.Logger) *FlowTestTransformer {
	return &FlowTestTransformer{
		evaluator: evaluator,
		clock:     clock,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// Transform evaluates one submission. Rejected evaluations still produce a
// record so the submitter sees the diagnostics; only undecodable messages fail.
func (t *FlowTestTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	sub, err := domain.ParseSubmission(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	result := t.evaluator.Evaluate(engine.SourcePipeline, sub.Input)
	if !result.Usable() {
		t.logger.Info("flow test submission rejected",
			"test_id", sub.TestID,
			"errors", result.Errors,
		)
	}

	rec := domain.NewRecord(t.newID(), sub, result, t.clock.Now())
	return domain.SerializeRecord(rec)
}
