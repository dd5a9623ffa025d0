package core

// limiter.go bounds how many ingestions run at once.
//
// A single read is synchronous and owns its table, so concurrency only comes
// from callers such as the HTTP server. The limiter is a semaphore: callers
// wait up to maxWait for a slot and then fail with ErrTooManyIngests. Drain
// blocks until every slot has been released, for graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTooManyIngests is returned when no slot frees up within the wait time.
var ErrTooManyIngests = errors.New("too many concurrent ingestions")

const (
	DefaultMaxConcurrentIngests = 5
	DefaultMaxWait              = 30 * time.Second
)

// IngestLimiter is a counting semaphore with a bounded wait.
type IngestLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewIngestLimiter allows at most maxConcurrent simultaneous ingestions.
// Non-positive arguments fall back to the defaults.
func NewIngestLimiter(maxConcurrent int, maxWait time.Duration) *IngestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentIngests
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &IngestLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. On success it returns a release func that must
// be called exactly once; extra calls are no-ops.
func (l *IngestLimiter) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTooManyIngests
	}

	l.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Add(-1)
			<-l.slots
		})
	}, nil
}

// Active returns the number of ingestions holding a slot.
func (l *IngestLimiter) Active() int {
	return int(l.active.Load())
}

// Capacity returns the maximum number of concurrent ingestions.
func (l *IngestLimiter) Capacity() int {
	return cap(l.slots)
}

// Drain blocks until no slot is held or ctx is done.
func (l *IngestLimiter) Drain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a point-in-time snapshot for health endpoints.
type LimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Capacity  int `json:"capacity"`
}

// Status returns the limiter's current state.
func (l *IngestLimiter) Status() LimiterStatus {
	active := l.Active()
	return LimiterStatus{
		Active:    active,
		Available: cap(l.slots) - len(l.slots),
		Capacity:  cap(l.slots),
	}
}
