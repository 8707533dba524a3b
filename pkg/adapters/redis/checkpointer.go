package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/polytrader/polytrader/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Checkpointer implements ports.Checkpointer on Redis. Each thread maps to a
// list key holding JSON-encoded checkpoints; RPUSH keeps the log append-only
// and time-ordered, so the latest checkpoint is always the last element.
type Checkpointer struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Checkpointer)

// WithTTL sets an expiration on thread logs, refreshed on every save.
func WithTTL(ttl time.Duration) Option {
	return func(c *Checkpointer) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for thread logs.
func WithPrefix(prefix string) Option {
	return func(c *Checkpointer) {
		c.prefix = prefix
	}
}

// New creates a Redis checkpointer with its own client.
func New(address, password string, db int, opts ...Option) *Checkpointer {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis checkpointer from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Checkpointer {
	c := &Checkpointer{
		client: client,
		prefix: "polytrader:thread:",
		ttl:    0, // no expiration by default
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checkpointer) key(threadID string) string {
	return c.prefix + threadID + ":checkpoints"
}

// Save appends a checkpoint to the thread's log.
func (c *Checkpointer) Save(ctx context.Context, threadID, position string, state *domain.State) (string, error) {
	cp := &domain.Checkpoint{
		ID:       uuid.NewString(),
		ThreadID: threadID,
		Position: position,
		State:    state,
		SavedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return "", &domain.StorageError{Op: "save", Err: fmt.Errorf("marshal checkpoint: %w", err)}
	}

	pipe := c.client.Pipeline()
	pipe.RPush(ctx, c.key(threadID), data)
	if c.ttl > 0 {
		pipe.Expire(ctx, c.key(threadID), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", &domain.StorageError{Op: "save", Err: err}
	}

	return cp.ID, nil
}

// LoadLatest returns the last checkpoint of the thread's log.
func (c *Checkpointer) LoadLatest(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	val, err := c.client.LIndex(ctx, c.key(threadID), -1).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrNoCheckpoint
		}
		return nil, &domain.StorageError{Op: "load", Err: err}
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal([]byte(val), &cp); err != nil {
		return nil, &domain.StorageError{Op: "load", Err: fmt.Errorf("unmarshal checkpoint: %w", err)}
	}
	return &cp, nil
}

// History returns the thread's full checkpoint log in save order.
func (c *Checkpointer) History(ctx context.Context, threadID string) ([]*domain.Checkpoint, error) {
	vals, err := c.client.LRange(ctx, c.key(threadID), 0, -1).Result()
	if err != nil {
		return nil, &domain.StorageError{Op: "history", Err: err}
	}

	out := make([]*domain.Checkpoint, 0, len(vals))
	for _, val := range vals {
		var cp domain.Checkpoint
		if err := json.Unmarshal([]byte(val), &cp); err != nil {
			return nil, &domain.StorageError{Op: "history", Err: fmt.Errorf("unmarshal checkpoint: %w", err)}
		}
		out = append(out, &cp)
	}
	return out, nil
}

// Close closes the redis client.
func (c *Checkpointer) Close() error {
	return c.client.Close()
}
