package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the submissions topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the results topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// FlowTestSubmission is a flow test as sent from the field.
type FlowTestSubmission struct {
	TestID      string        `json:"test_id"`
	HydrantID   string        `json:"hydrant_id,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at,omitzero"`
	Input       FlowTestInput `json:"input"`
}

// Record statuses.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// FlowTestRecord is an evaluated submission, ready to be stored or reported.
type FlowTestRecord struct {
	ID          string         `json:"id"`
	TestID      string         `json:"test_id"`
	HydrantID   string         `json:"hydrant_id,omitempty"`
	Status      string         `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
	Input       FlowTestInput  `json:"input"`
	Result      FlowTestResult `json:"result"`
}

// ParseSubmission decodes a raw message into a submission. The message time
// stands in for a missing submitted_at and the message key for a missing test_id.
func ParseSubmission(raw RawEvent) (FlowTestSubmission, error) {
	var sub FlowTestSubmission
	if err := json.Unmarshal(raw.Value, &sub); err != nil {
		return FlowTestSubmission{}, fmt.Errorf("parse submission: %w", err)
	}
	if sub.TestID == "" {
		sub.TestID = string(raw.Key)
	}
	if sub.TestID == "" {
		return FlowTestSubmission{}, fmt.Errorf("parse submission: missing test_id")
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = raw.Timestamp.UTC()
	}
	return sub, nil
}

// NewRecord pairs a submission with its evaluation.
func NewRecord(id string, sub FlowTestSubmission, result FlowTestResult, evaluatedAt time.Time) FlowTestRecord {
	status := StatusAccepted
	if !result.Usable() {
		status = StatusRejected
	}
	return FlowTestRecord{
		ID:          id,
		TestID:      sub.TestID,
		HydrantID:   sub.HydrantID,
		Status:      status,
		SubmittedAt: sub.SubmittedAt,
		EvaluatedAt: evaluatedAt.UTC(),
		Input:       sub.Input,
		Result:      result,
	}
}

// SerializeRecord marshals a record into an OutputEvent keyed by test ID.
func SerializeRecord(rec FlowTestRecord) (OutputEvent, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize flow test record: %w", err)
	}
	headers := map[string]string{
		"status":       rec.Status,
		"evaluated_at": rec.EvaluatedAt.Format(time.RFC3339),
	}
	if rec.Result.NFPAClass != "" {
		headers["nfpa_class"] = string(rec.Result.NFPAClass)
	}
	return OutputEvent{
		Key:     []byte(rec.TestID),
		Value:   data,
		Headers: headers,
	}, nil
}
