package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MemoryLocker keeps leases in an expiring in-process cache.
// It only excludes callers inside the same process.
type MemoryLocker struct {
	mu    sync.Mutex
	store *cache.Cache
	opts  Options
}

// NewMemoryLocker creates a MemoryLocker.
func NewMemoryLocker(opts Options) *MemoryLocker {
	return &MemoryLocker{
		store: cache.New(cache.NoExpiration, time.Minute),
		opts:  opts.withDefaults(),
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	token := uuid.NewString()
	err := poll(ctx, l.opts, func(context.Context) (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Add fails while an unexpired item exists for key.
		return l.store.Add(key, token, l.opts.TTL) == nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &memoryLease{locker: l, key: key, token: token}, nil
}

func (l *MemoryLocker) release(key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, found := l.store.Get(key)
	if !found || v.(string) != token {
		return ErrLeaseLost
	}
	l.store.Delete(key)
	return nil
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	token  string
}

func (m *memoryLease) Key() string { return m.key }

func (m *memoryLease) Release(ctx context.Context) error {
	return m.locker.release(m.key, m.token)
}
