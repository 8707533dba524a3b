package domain

import (
	"errors"
	"fmt"
)

// ErrThreadNotFound is returned when a thread ID is unknown to the controller
// and has no checkpoint history.
var ErrThreadNotFound = errors.New("thread not found")

// ErrNoCheckpoint is returned by a Checkpointer when a thread has no saved
// checkpoints. It is a normal outcome, meaning "start fresh".
var ErrNoCheckpoint = errors.New("no checkpoint for thread")

// ErrNoInterrupt is returned when an interrupt resolution targets a thread or
// run that has no pending interrupt.
var ErrNoInterrupt = errors.New("no interrupted run")

// ErrMarketNotFound is returned by market clients when the provider has no
// market with the requested ID.
var ErrMarketNotFound = errors.New("market not found")

// ValidationError reports a node attempting an out-of-ownership state update.
// It is a programming defect and fatal to the run.
type ValidationError struct {
	Node   string
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid update from node %q: field %q: %s", e.Node, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid update from node %q: %s", e.Node, e.Reason)
}

// NodeError kinds, used in error events so callers can distinguish a failed
// external call from an engine defect.
const (
	ErrKindNode       = "node"
	ErrKindValidation = "validation"
	ErrKindStorage    = "storage"
	ErrKindCanceled   = "canceled"
)

// NodeError wraps a failure of a node's external work. The executor surfaces
// it as an error event and marks the run failed; retry policy, if any,
// belongs inside the node.
type NodeError struct {
	Node string
	Kind string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// StorageError wraps a checkpointer failure. It is fatal to the run;
// already-emitted events remain valid history but resumption past this point
// is not possible.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("checkpoint storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
