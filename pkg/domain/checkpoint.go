package domain

import "time"

// Checkpoint is an immutable snapshot of a run's position and state.
// Checkpoints for a thread form an append-only, time-ordered sequence; only
// the latest is needed for resume, older ones are retained for audit.
//
// Position is the name of the next node to execute when the thread is
// resumed, or PositionEnd after the final node completed.
type Checkpoint struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Position string    `json:"node_position"`
	State    *State    `json:"state_snapshot"`
	SavedAt  time.Time `json:"saved_at"`
}
