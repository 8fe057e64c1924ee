// Package queue defines the wire format for asynchronous narration work.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// RequestType identifies the kind of queued work.
type RequestType string

const (
	// RequestTypeNarrate narrates a character action with ledger context.
	RequestTypeNarrate RequestType = "narrate"
)

// Request is a queued narration job. It is serialized to JSON on the Redis
// list and deserialized by the worker.
type Request struct {
	RequestID   string      `json:"request_id"`
	Type        RequestType `json:"type"`
	CharacterID string      `json:"character_id"`
	Action      string      `json:"action"`
	EnqueuedAt  time.Time   `json:"enqueued_at"`
}

// ToJSON serializes the request for queue transport.
func (r *Request) ToJSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal queue request: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a queued request.
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue request: %w", err)
	}
	if req.RequestID == "" {
		return nil, fmt.Errorf("queue request missing request_id")
	}
	if req.CharacterID == "" {
		return nil, fmt.Errorf("queue request missing character_id")
	}
	return &req, nil
}
