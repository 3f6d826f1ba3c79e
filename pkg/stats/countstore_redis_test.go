package stats

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) *RedisCountStore {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisCountStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisCountStore: %v", err)
	}
	return s
}

func TestRedisCountStore(t *testing.T) {
	s := newTestRedisStore(t)
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

	if n, _ := s.GetCount(ctx, "group/delete", "g2", PeriodTotal); n != 1 {
		t.Errorf("g2 total = %d, want 1", n)
	}
	if n, _ := s.GetCount(ctx, "group/delete", "g3", PeriodTotal); n != 0 {
		t.Errorf("unknown subject count = %d, want 0", n)
	}
}

func TestRedisCountStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisCountStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisCountStore: %v", err)
	}

	if err := s.Increment(context.Background(), "sender/warn", "s1"); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	// Hour and day buckets expire; the total bucket never does.
	hourKey := redisCountPrefix + periodBucket("sender/warn", "s1", PeriodHour)
	dayKey := redisCountPrefix + periodBucket("sender/warn", "s1", PeriodDay)
	totalKey := redisCountPrefix + periodBucket("sender/warn", "s1", PeriodTotal)

	if ttl := mr.TTL(hourKey); ttl <= 0 {
		t.Errorf("hour bucket TTL = %v, want positive", ttl)
	}
	if ttl := mr.TTL(dayKey); ttl <= 0 {
		t.Errorf("day bucket TTL = %v, want positive", ttl)
	}
	if ttl := mr.TTL(totalKey); ttl != 0 {
		t.Errorf("total bucket TTL = %v, want none", ttl)
	}
}

func TestRedisCountStoreBadURL(t *testing.T) {
	if _, err := NewRedisCountStore("not-a-url"); err == nil {
		t.Error("expected error for malformed URL")
	}
}
