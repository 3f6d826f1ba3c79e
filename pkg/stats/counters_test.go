package stats

import (
	"context"
	"sync"
	"testing"
)

func TestCountersConcurrent(t *testing.T) {
	c := NewCounters()
	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.IncProcessed()
				c.IncLocalFlagged()
				c.IncDeleted()
			}
		}()
	}
	wg.Wait()

	s := c.Get()
	want := int64(workers * perWorker)
	if s.TotalProcessed != want || s.LocalFlagged != want || s.MessagesDeleted != want {
		t.Errorf("counters = %+v, want %d each", s, want)
	}
}

func TestCountersReset(t *testing.T) {
	c := NewCounters()
	c.IncProcessed()
	c.IncAIAnalyzed()
	c.IncRemoved()
	c.IncWarned()

	c.Reset()
	if s := c.Get(); s != (Snapshot{}) {
		t.Errorf("after reset: %+v", s)
	}
}

func TestMemCountStore(t *testing.T) {
	s := NewMemCountStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Increment(ctx, "group/delete", "g1"); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}
	if err := s.Increment(ctx, "group/delete", "g2"); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		n, err := s.GetCount(ctx, "group/delete", "g1", period)
		if err != nil {
			t.Fatalf("GetCount(%s): %v", period, err)
		}
		if n != 3 {
			t.Errorf("count(%s) = %d, want 3", period, n)
		}
	}

	if n, _ := s.GetCount(ctx, "group/delete", "g3", PeriodTotal); n != 0 {
		t.Errorf("unknown subject count = %d, want 0", n)
	}
}

func TestMemCountStoreConcurrent(t *testing.T) {
	s := NewMemCountStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Increment(ctx, "sender/warn", "s1")
			}
		}()
	}
	wg.Wait()

	if n, _ := s.GetCount(ctx, "sender/warn", "s1", PeriodTotal); n != 800 {
		t.Errorf("count = %d, want 800", n)
	}
}
