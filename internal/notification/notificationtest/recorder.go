// Package notificationtest provides a Dispatcher that records calls.
package notificationtest

import (
	"context"
	"sync"

	"github.com/nekogravitycat/office-booking-backend/internal/notification"
)

// Call is one recorded Notify invocation.
type Call struct {
	Recipients []string
	Kind       notification.Kind
	Payload    any
}

// Recorder implements notification.Dispatcher in memory.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

func (r *Recorder) Notify(_ context.Context, recipients []string, kind notification.Kind, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Recipients: append([]string(nil), recipients...), Kind: kind, Payload: payload})
	return r.Err
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// OfKind returns the recorded calls with the given kind.
func (r *Recorder) OfKind(kind notification.Kind) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
