package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
	"github.com/couchcryptid/hydrant-flow-service/internal/engine"
	"github.com/couchcryptid/hydrant-flow-service/internal/observability"
	"github.com/couchcryptid/hydrant-flow-service/internal/pipeline"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until cancelled to simulate an idle topic
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{
		Key:     raw.Key,
		Value:   raw.Value,
		Headers: map[string]string{"status": domain.StatusAccepted},
	}, nil
}

// mockLoader fails the first `failures` calls, then every call if err is set.
type mockLoader struct {
	loaded   []domain.OutputEvent
	attempts [][]domain.OutputEvent
	failures int
	err      error
	onLoad   func()
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.attempts = append(m.attempts, events)
	if m.failures > 0 {
		m.failures--
		return errors.New("leader not available")
	}
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	if m.onLoad != nil {
		m.onLoad()
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- pipeline ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "FT-100", validInput())

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MessagesProduced), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	committed := false
	raw := domain.RawEvent{
		Key:   []byte("FT-bad"),
		Value: []byte("not json"),
		Commit: func(_ context.Context) error {
			committed = true
			return nil
		},
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad data")}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.True(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors), 0)
}

func TestPipeline_Run_CommitsAfterPublish(t *testing.T) {
	var commits int
	batch := make([]domain.RawEvent, 0, 3)
	for _, id := range []string{"FT-1", "FT-2", "FT-3"} {
		raw := makeRawEvent(t, id, validInput())
		raw.Topic = "flow-test-submissions"
		raw.Commit = func(_ context.Context) error {
			commits++
			return nil
		}
		batch = append(batch, raw)
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.loaded, 3)
	assert.Equal(t, 3, commits)
}

func TestPipeline_Run_PublishFailureDoesNotCommit(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, "FT-200", validInput())
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.False(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_PublishRetriesSameBatch(t *testing.T) {
	var committed []string
	batch := make([]domain.RawEvent, 0, 2)
	for _, id := range []string{"FT-210", "FT-211"} {
		raw := makeRawEvent(t, id, validInput())
		raw.Commit = func(_ context.Context) error {
			committed = append(committed, id)
			return nil
		}
		batch = append(batch, raw)
	}
	next := makeRawEvent(t, "FT-212", validInput())

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch, {next}}}
	ldr := &mockLoader{failures: 1}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	require.Len(t, ldr.attempts, 3)
	assert.Equal(t, ldr.attempts[0], ldr.attempts[1], "retry must publish the same records")
	require.Len(t, ldr.loaded, 3)
	assert.Equal(t, []byte("FT-210"), ldr.loaded[0].Key)
	assert.Equal(t, []byte("FT-211"), ldr.loaded[1].Key)
	assert.Equal(t, []byte("FT-212"), ldr.loaded[2].Key)
	assert.Equal(t, []string{"FT-210", "FT-211"}, committed)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.MessagesProduced), 0)
	require.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_UndecodableCommittedAfterPublish(t *testing.T) {
	var events []string
	bad := domain.RawEvent{
		Key:   []byte("FT-bad"),
		Value: []byte("not json"),
		Commit: func(_ context.Context) error {
			events = append(events, "commit FT-bad")
			return nil
		},
	}
	good := makeRawEvent(t, "FT-220", validInput())
	good.Commit = func(_ context.Context) error {
		events = append(events, "commit FT-220")
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{bad, good}}}
	ldr := &mockLoader{failures: 1}
	ldr.onLoad = func() { events = append(events, "published") }
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, newTransformer(clockwork.NewFakeClock()), ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []string{"published", "commit FT-bad", "commit FT-220"}, events)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors), 0)
}

// --- transformer ---

func TestFlowTestTransformer_Transform(t *testing.T) {
	evaluatedAt := time.Date(2025, time.June, 3, 12, 0, 0, 0, time.UTC)
	tfm := newTransformer(clockwork.NewFakeClockAt(evaluatedAt))

	raw := makeRawEvent(t, "FT-300", validInput())
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, []byte("FT-300"), out.Key)
	assert.Equal(t, domain.StatusAccepted, out.Headers["status"])
	assert.Equal(t, "AA", out.Headers["nfpa_class"])
	assert.Equal(t, "2025-06-03T12:00:00Z", out.Headers["evaluated_at"])

	var rec domain.FlowTestRecord
	require.NoError(t, json.Unmarshal(out.Value, &rec))
	_, err = uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "FT-300", rec.TestID)
	assert.Equal(t, "H-300", rec.HydrantID)
	assert.True(t, evaluatedAt.Equal(rec.EvaluatedAt))
	assert.InDelta(t, 3821.43, rec.Result.AvailableFlowGPM, 1e-9)
}

func TestFlowTestTransformer_RejectedStillPublished(t *testing.T) {
	tfm := newTransformer(clockwork.NewFakeClock())

	in := validInput()
	in.Outlets = nil
	out, err := tfm.Transform(context.Background(), makeRawEvent(t, "FT-301", in))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRejected, out.Headers["status"])
	assert.NotContains(t, out.Headers, "nfpa_class")

	var rec domain.FlowTestRecord
	require.NoError(t, json.Unmarshal(out.Value, &rec))
	assert.NotEmpty(t, rec.Result.Errors)
	assert.Zero(t, rec.Result.QualityScore)
}

func TestFlowTestTransformer_Undecodable(t *testing.T) {
	tfm := newTransformer(clockwork.NewFakeClock())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("{")})
	assert.Error(t, err)
}

// --- helpers ---

func newTransformer(clock clockwork.Clock) *pipeline.FlowTestTransformer {
	ev := engine.NewEvaluator(domain.DefaultParams(), observability.NewMetricsForTesting(), discardLogger())
	return pipeline.NewTransformer(ev, clock, discardLogger())
}

func validInput() domain.FlowTestInput {
	return domain.FlowTestInput{
		StaticPressurePsi:   75,
		ResidualPressurePsi: 55,
		Outlets: []domain.Outlet{
			{DiameterInches: 2.5, PitotPressurePsi: 45},
			{DiameterInches: 2.5, PitotPressurePsi: 42},
		},
	}
}

func makeRawEvent(t *testing.T, testID string, in domain.FlowTestInput) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.FlowTestSubmission{
		TestID:    testID,
		HydrantID: "H-" + testID[len("FT-"):],
		Input:     in,
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:       []byte(testID),
		Value:     data,
		Timestamp: time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC),
	}
}
