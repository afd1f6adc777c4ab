package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmission(t *testing.T) {
	msgTime := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)

	t.Run("full payload", func(t *testing.T) {
		raw := RawEvent{
			Key:       []byte("ignored-key"),
			Value:     []byte(`{"test_id":"FT-001","hydrant_id":"H-001","submitted_at":"2025-06-02T08:30:00Z","input":{"static_pressure_psi":75,"residual_pressure_psi":55,"outlets":[{"size":2.5,"pitot_pressure_psi":45}]}}`),
			Timestamp: msgTime,
		}
		sub, err := ParseSubmission(raw)
		require.NoError(t, err)
		assert.Equal(t, "FT-001", sub.TestID)
		assert.Equal(t, "H-001", sub.HydrantID)
		assert.True(t, sub.SubmittedAt.Equal(time.Date(2025, time.June, 2, 8, 30, 0, 0, time.UTC)))
		require.Len(t, sub.Input.Outlets, 1)
		assert.InDelta(t, 2.5, sub.Input.Outlets[0].DiameterInches, 0)
	})

	t.Run("falls back to key and message time", func(t *testing.T) {
		raw := RawEvent{
			Key:       []byte("FT-002"),
			Value:     []byte(`{"input":{"static_pressure_psi":80,"residual_pressure_psi":60,"outlets":[]}}`),
			Timestamp: msgTime,
		}
		sub, err := ParseSubmission(raw)
		require.NoError(t, err)
		assert.Equal(t, "FT-002", sub.TestID)
		assert.True(t, sub.SubmittedAt.Equal(msgTime))
	})

	t.Run("missing test id", func(t *testing.T) {
		_, err := ParseSubmission(RawEvent{Value: []byte(`{"input":{}}`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing test_id")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseSubmission(RawEvent{Key: []byte("FT-003"), Value: []byte("not json")})
		assert.Error(t, err)
	})
}

func TestNewRecordAndSerialize(t *testing.T) {
	p := DefaultParams()
	sub := FlowTestSubmission{
		TestID:      "FT-010",
		HydrantID:   "H-010",
		SubmittedAt: time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC),
		Input: FlowTestInput{
			StaticPressurePsi:   75,
			ResidualPressurePsi: 55,
			Outlets:             []Outlet{{DiameterInches: 2.5, PitotPressurePsi: 45}},
		},
	}
	evaluatedAt := time.Date(2025, time.June, 3, 14, 0, 0, 0, time.FixedZone("EDT", -4*3600))

	rec := NewRecord("rec-1", sub, Evaluate(sub.Input, p), evaluatedAt)
	assert.Equal(t, StatusAccepted, rec.Status)
	assert.Equal(t, time.UTC, rec.EvaluatedAt.Location())

	out, err := SerializeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, []byte("FT-010"), out.Key)
	assert.Equal(t, map[string]string{
		"status":       StatusAccepted,
		"nfpa_class":   "AA",
		"evaluated_at": "2025-06-03T18:00:00Z",
	}, out.Headers)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &decoded))
	assert.Equal(t, "rec-1", decoded["id"])
	assert.Equal(t, "H-010", decoded["hydrant_id"])
	assert.Contains(t, decoded, "result")
}

func TestNewRecord_Rejected(t *testing.T) {
	sub := FlowTestSubmission{TestID: "FT-011", Input: FlowTestInput{StaticPressurePsi: 40, ResidualPressurePsi: 45}}

	rec := NewRecord("rec-2", sub, Evaluate(sub.Input, DefaultParams()), time.Now())
	assert.Equal(t, StatusRejected, rec.Status)

	out, err := SerializeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.Headers["status"])
	assert.NotContains(t, out.Headers, "nfpa_class")
}
