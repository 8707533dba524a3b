package thread

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/polytrader/polytrader/internal/logging"
	"github.com/polytrader/polytrader/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager coordinates per-thread access, ensuring at most one run or resume
// is in flight per thread. It uses reference counting to garbage collect
// unused locks.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker // optional
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a thread Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewThreadID returns a fresh, globally unique thread identifier.
func NewThreadID() string {
	return uuid.NewString()
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(threadID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		entry = &lockEntry{}
		m.locks[threadID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, threadID)
	}
}

// WithLock executes fn while holding the thread's lock. When a distributed
// locker is configured it is acquired after the local lock, so replicas
// serialize too.
func (m *Manager) WithLock(ctx context.Context, threadID string, fn func(context.Context) error) error {
	entry := m.acquire(threadID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(threadID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, threadID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"thread_id", threadID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
