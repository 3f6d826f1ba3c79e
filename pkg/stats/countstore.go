package stats

import (
	"context"
	"fmt"
	"time"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"
)

// CountStore tracks per-group and per-sender action counts with time-bucketed
// periods. Used by the executor to record enforcement history (how many
// deletions a group has seen today, how often a sender was warned) without
// persisting message content.
type CountStore interface {
	GetCount(ctx context.Context, name, val, period string) (int, error)
	Increment(ctx context.Context, name, val string) error
}

// periodBucket derives the storage key for one (counter, subject, period)
// triple. Hour and day buckets roll over on UTC boundaries.
func periodBucket(name, val, period string) string {
	switch period {
	case PeriodDay:
		t := time.Now().UTC().Format(time.DateOnly)
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	case PeriodHour:
		t := time.Now().UTC().Format(time.RFC3339)[0:13]
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	default:
		return fmt.Sprintf("%s/%s", name, val)
	}
}
