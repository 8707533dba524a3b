package domain

import "time"

// RunStatus is the lifecycle state of a single pipeline run.
type RunStatus string

const (
	RunCreated     RunStatus = "created"
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
	RunFailed      RunStatus = "failed"
)

// Terminal reports whether no further checkpoints will be written for a run
// in this status.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Run is one execution attempt of the pipeline against a thread.
type Run struct {
	ID         string     `json:"run_id"`
	ThreadID   string     `json:"thread_id"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// PendingInterrupt is set while Status is RunInterrupted. Node is the
	// node that raised the interrupt; its payload is what was surfaced to
	// the caller.
	PendingInterrupt *PendingInterrupt `json:"pending_interrupt,omitempty"`

	// Error holds the terminal failure message for a failed run.
	Error string `json:"error,omitempty"`
}

// PendingInterrupt records an unresolved interrupt on a run.
type PendingInterrupt struct {
	Node    string         `json:"node"`
	Reason  string         `json:"reason"`
	Payload map[string]any `json:"payload,omitempty"`
}
