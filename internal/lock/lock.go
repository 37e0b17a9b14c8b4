// Package lock provides keyed mutual exclusion with a bounded wait and an
// automatic lease expiry, backed either by Redis or by process memory.
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when the lock stayed held for the whole wait window.
	ErrTimeout = errors.New("lock: timed out waiting for lock")
	// ErrLeaseLost is returned by Release when the lease expired and the key
	// was taken over (or dropped) before the holder released it.
	ErrLeaseLost = errors.New("lock: lease expired before release")
)

// Defaults mirror the reservation critical section: wait up to 3s, expire after 10s.
const (
	DefaultTTL           = 10 * time.Second
	DefaultWait          = 3 * time.Second
	DefaultRetryInterval = 50 * time.Millisecond
)

// Options controls lease lifetime and acquisition polling.
type Options struct {
	TTL           time.Duration // lease auto-expiry
	Wait          time.Duration // how long Acquire keeps trying
	RetryInterval time.Duration // pause between attempts
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Wait < 0 {
		o.Wait = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	return o
}

// Lease is a held lock. Release must be called exactly once.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// Locker hands out exclusive leases per key. Distinct keys never contend.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// poll calls try until it succeeds, the wait window closes, or ctx is done.
func poll(ctx context.Context, opts Options, try func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(opts.Wait)
	for {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrTimeout
		}

		timer := time.NewTimer(min(opts.RetryInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
