package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/polytrader/polytrader/pkg/domain"
)

// Checkpointer implements ports.Checkpointer in memory. Safe for concurrent
// use; suitable for tests and single-process deployments.
type Checkpointer struct {
	mu   sync.RWMutex
	logs map[string][]*domain.Checkpoint
}

// NewCheckpointer creates a new in-memory checkpointer.
func NewCheckpointer() *Checkpointer {
	return &Checkpointer{
		logs: make(map[string][]*domain.Checkpoint),
	}
}

// Save appends a checkpoint to the thread's log. The state is deep-copied so
// later mutations by the caller cannot reach the stored snapshot.
func (c *Checkpointer) Save(ctx context.Context, threadID, position string, state *domain.State) (string, error) {
	cp := &domain.Checkpoint{
		ID:       uuid.NewString(),
		ThreadID: threadID,
		Position: position,
		State:    state.Clone(),
		SavedAt:  time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs[threadID] = append(c.logs[threadID], cp)
	return cp.ID, nil
}

// LoadLatest returns the most recent checkpoint for the thread.
func (c *Checkpointer) LoadLatest(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	log := c.logs[threadID]
	if len(log) == 0 {
		return nil, domain.ErrNoCheckpoint
	}
	return snapshot(log[len(log)-1]), nil
}

// History returns all checkpoints for the thread in save order.
func (c *Checkpointer) History(ctx context.Context, threadID string) ([]*domain.Checkpoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	log := c.logs[threadID]
	out := make([]*domain.Checkpoint, 0, len(log))
	for _, cp := range log {
		out = append(out, snapshot(cp))
	}
	return out, nil
}

// snapshot copies a checkpoint so callers can't mutate the stored record.
func snapshot(cp *domain.Checkpoint) *domain.Checkpoint {
	out := *cp
	out.State = cp.State.Clone()
	return &out
}
