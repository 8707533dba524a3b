package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/polytrader/polytrader/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockAcquire is returned when the lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// Locker implements ports.DistributedLocker using Redis SET NX PX. It lets
// multiple controller replicas serialize resumes on the same thread.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// Lock acquires a distributed lock for the given key, polling with backoff
// until acquired or the context is canceled. The unlock function releases
// the lock only if this holder still owns it (checked via Lua).
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	val := fmt.Sprintf("%d", time.Now().UnixNano())

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		success, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if success {
			return func(ctx context.Context) error {
				script := `
					if redis.call("get", KEYS[1]) == ARGV[1] then
						return redis.call("del", KEYS[1])
					else
						return 0
					end
				`
				return l.client.Eval(ctx, script, []string{lockKey}, val).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			// Retry.
		}
	}
}
