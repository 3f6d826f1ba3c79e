package httputil

import (
	"context"
	"sync/atomic"
)

// Semaphore caps concurrent classifier calls. Group chats burst, the remote
// classifier does not scale with them.
type Semaphore struct {
	slots   chan struct{}
	dropped atomic.Int64
}

// NewSemaphore creates a semaphore with the given capacity. Non-positive
// capacity falls back to 8.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 8
	}
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

// TryAcquire grabs a slot without blocking. A false return counts as a drop.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Acquire blocks for a slot until the context is cancelled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Safe to call even if nothing was acquired.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
	}
}

// Dropped returns how many TryAcquire calls were rejected at capacity.
func (s *Semaphore) Dropped() int64 {
	return s.dropped.Load()
}

// InUse returns the number of held slots.
func (s *Semaphore) InUse() int {
	return len(s.slots)
}

// Capacity returns the configured slot count.
func (s *Semaphore) Capacity() int {
	return cap(s.slots)
}
