package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
	"github.com/couchcryptid/hydrant-flow-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize flow test submissions from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a submission into a serialized evaluation record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader publishes evaluation records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline consumes flow test submissions, evaluates them, and publishes the
// results. A batch's offsets, including those of undecodable submissions, are
// committed only after its records are published.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has published at least one record.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any evaluations yet")
	}
	return nil
}

// Run executes the consume-evaluate-publish loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	published, ok := p.evaluateAndPublish(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if published > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// evaluateAndPublish transforms each submission, publishes the records, and
// commits offsets for the whole batch. A failed publish is retried with the
// same records until it succeeds, so no offset is committed ahead of an
// unpublished record. Returns the number of published records and false if
// the pipeline should stop.
func (p *Pipeline) evaluateAndPublish(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration) (int, bool) {
	outBatch := make([]domain.OutputEvent, 0, len(rawBatch))
	rejected := 0

	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("undecodable submission, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			continue
		}
		if out.Headers["status"] == domain.StatusRejected {
			rejected++
		}
		outBatch = append(outBatch, out)
	}

	if len(outBatch) > 0 {
		if !p.publish(ctx, outBatch, backoff) {
			return 0, false
		}
		p.metrics.MessagesProduced.Add(float64(len(outBatch)))
		p.logger.Debug("batch published", "records", len(outBatch), "rejected", rejected)
	}

	for _, raw := range rawBatch {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// publish loads outBatch, retrying with backoff until it succeeds. Returns
// false if the context was cancelled first.
func (p *Pipeline) publish(ctx context.Context, outBatch []domain.OutputEvent, backoff *time.Duration) bool {
	for attempt := 1; ; attempt++ {
		err := p.loader.LoadBatch(ctx, outBatch)
		if err == nil {
			*backoff = initialBackoff
			return true
		}
		p.logger.Error("publish batch failed",
			"error", err,
			"batch_size", len(outBatch),
			"attempt", attempt,
			"retry_in", *backoff,
		)
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

// backoffOrStop sleeps with the current backoff and advances it. Returns false
// if the context was cancelled.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
