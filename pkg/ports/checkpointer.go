package ports

import (
	"context"

	"github.com/polytrader/polytrader/pkg/domain"
)

// Checkpointer persists run snapshots, enabling a thread to be resumed from
// its last completed node rather than restarted from scratch.
//
// Implementations must be append-only: a Save never mutates or removes an
// earlier checkpoint, and checkpoints for a thread are totally ordered by
// save time. Writes are keyed by thread, so runs on different threads never
// contend.
type Checkpointer interface {
	// Save appends a checkpoint for the thread and returns its ID. A
	// persistence failure is reported as a *domain.StorageError and is fatal
	// to the calling run.
	Save(ctx context.Context, threadID, position string, state *domain.State) (string, error)

	// LoadLatest returns the most recent checkpoint for the thread, or
	// domain.ErrNoCheckpoint if the thread has none. Callers must treat the
	// miss as "start fresh", not as an error.
	LoadLatest(ctx context.Context, threadID string) (*domain.Checkpoint, error)

	// History returns all checkpoints for the thread in save order. It is
	// intended for audit and debugging.
	History(ctx context.Context, threadID string) ([]*domain.Checkpoint, error)
}
