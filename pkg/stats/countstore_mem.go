package stats

import (
	"context"
	"sync"
)

// MemCountStore is the default in-process CountStore. Buckets are never
// expired; hour and day keys embed their timestamp so stale buckets simply
// stop being read. Fine for a single-instance deployment.
type MemCountStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{counts: make(map[string]int)}
}

func (s *MemCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[periodBucket(name, val, period)], nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		s.counts[periodBucket(name, val, period)]++
	}
	return nil
}
