package domain

import (
	"context"
	"time"
)

// EventKind categorizes a streamed progress event.
type EventKind string

const (
	EventUpdate    EventKind = "update"
	EventInterrupt EventKind = "interrupt"
	EventError     EventKind = "error"
)

// Event is one progress message, emitted per completed node. A run yields
// zero or more update events followed by at most one interrupt or error
// event.
type Event struct {
	Kind          EventKind      `json:"event_kind"`
	Node          string         `json:"node_name"`
	UpdatedFields []Field        `json:"updated_fields,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	ErrorKind     string         `json:"error_kind,omitempty"`
	Message       string         `json:"message,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NodeEvent carries node lifecycle metadata to observability hooks.
type NodeEvent struct {
	ThreadID string        `json:"thread_id"`
	Node     string        `json:"node"`
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration,omitempty"`
}

// CheckpointEvent reports a persisted checkpoint to observability hooks.
type CheckpointEvent struct {
	ThreadID string `json:"thread_id"`
	Position string `json:"position"`
}

// LifecycleHooks defines optional callbacks for engine observability. They
// are invoked synchronously by the executor, so implementations should be
// cheap; nil callbacks are skipped.
type LifecycleHooks struct {
	OnNodeStart  func(context.Context, *NodeEvent)
	OnNodeFinish func(context.Context, *NodeEvent, error)
	OnCheckpoint func(context.Context, *CheckpointEvent)
	OnInterrupt  func(context.Context, *NodeEvent)
}
