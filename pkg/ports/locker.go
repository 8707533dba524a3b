package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates per-thread exclusivity across multiple
// controller instances (replicas). The in-process thread manager uses it, in
// addition to its local locks, so that two replicas never resume the same
// thread concurrently.
type DistributedLocker interface {
	// Lock blocks until the lock for the key is acquired, the context is
	// canceled, or the TTL expires (implementation specific). The returned
	// UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
