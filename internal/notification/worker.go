package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/metrics"
)

// Delivery results recorded in metrics.
const (
	resultSent    = "sent"
	resultRetried = "retried"
	resultFailed  = "failed"
	resultDropped = "dropped"
)

// WorkerPool delivers notifications in the background. It implements Dispatcher.
type WorkerPool struct {
	size   int
	jobs   chan Message
	sender Sender
	retry  RetryPolicy
	now    func() time.Time

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool of size workers fed by a queue of queueSize messages.
func NewWorkerPool(size, queueSize int, sender Sender, retry RetryPolicy) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &WorkerPool{
		size:   size,
		jobs:   make(chan Message, queueSize),
		sender: sender,
		retry:  retry,
		now:    time.Now,
	}
}

// Start launches the worker goroutines. Workers exit when ctx is cancelled
// or when Stop has drained the queue.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	logger := log.With().Str("component", "notification").Int("worker", id).Logger()
	logger.Debug().Msg("worker started")
	for {
		select {
		case msg, ok := <-wp.jobs:
			if !ok {
				logger.Debug().Msg("worker drained")
				return
			}
			wp.deliver(ctx, msg)
		case <-ctx.Done():
			logger.Debug().Msg("worker shutting down")
			return
		}
	}
}

// Notify encodes payload once and queues one message per recipient.
// It blocks while the queue is full, until ctx is done.
func (wp *WorkerPool) Notify(ctx context.Context, recipients []string, kind Kind, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload failed: %w", kind, err)
	}

	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolStopped
	}

	createdAt := wp.now().UTC()
	for _, r := range recipients {
		msg := Message{Recipient: r, Kind: kind, Payload: body, CreatedAt: createdAt}
		select {
		case wp.jobs <- msg:
		case <-ctx.Done():
			metrics.IncNotification(string(kind), resultDropped)
			return fmt.Errorf("queue %s notification failed: %w", kind, ctx.Err())
		}
	}
	return nil
}

// Stop refuses new notifications and waits for queued ones to be delivered.
func (wp *WorkerPool) Stop(ctx context.Context) error {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.jobs)
	}
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification pool drain: %w", ctx.Err())
	}
}

func (wp *WorkerPool) deliver(ctx context.Context, msg Message) {
	logger := log.With().
		Str("component", "notification").
		Str("kind", string(msg.Kind)).
		Str("recipient", msg.Recipient).
		Logger()

	for attempt := 1; ; attempt++ {
		err := wp.sender.Send(ctx, msg)
		if err == nil {
			metrics.IncNotification(string(msg.Kind), resultSent)
			return
		}

		if attempt > wp.retry.MaxRetries {
			metrics.IncNotification(string(msg.Kind), resultFailed)
			logger.Error().Err(err).Int("attempts", attempt).Msg("notification delivery failed")
			return
		}

		delay := wp.retry.NextDelay(attempt)
		metrics.IncNotification(string(msg.Kind), resultRetried)
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("notification delivery failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			metrics.IncNotification(string(msg.Kind), resultDropped)
			return
		}
	}
}
