package domain

import "context"

// Node is a single pipeline step. It reads the given state copy, performs
// (possibly long-latency) external work, and reports its outcome as a tagged
// Result or an error.
//
// A node must be safe to re-invoke from the beginning of its own logic: the
// executor may re-enter it after a failed run is resumed, but never after an
// update from it has been checkpointed.
type Node interface {
	// Name identifies the node. It is used as the checkpoint position and to
	// resolve the node's ownership set at merge time.
	Name() string

	// Execute runs the step. Exactly one of the Result variants is set on
	// success; a non-nil error marks the run failed.
	Execute(ctx context.Context, state *State) (*Result, error)
}

// Result is the tagged outcome of a node execution: either a partial state
// update to merge, or a request to pause for an external decision. Pausing
// is a first-class, inspectable outcome, not a thrown signal.
type Result struct {
	Update    *Update
	Interrupt *Interrupt
}

// UpdateResult wraps an update into a Result.
func UpdateResult(u Update) *Result { return &Result{Update: &u} }

// InterruptResult wraps an interrupt request into a Result.
func InterruptResult(i Interrupt) *Result { return &Result{Interrupt: &i} }

// Interrupt is a node-issued request to pause the run pending an externally
// supplied decision. The payload describes what confirmation is needed; its
// shape is node-specific and round-trips to the caller unmodified.
type Interrupt struct {
	Reason  string         `json:"reason"`
	Payload map[string]any `json:"payload,omitempty"`
}
