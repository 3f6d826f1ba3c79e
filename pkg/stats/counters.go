// Package stats tracks moderation throughput. Counters are lock-free and
// never block the pipeline; reading them is a point-in-time snapshot, not a
// transaction.
package stats

import "sync/atomic"

// Counters aggregates pipeline activity since start or last reset.
type Counters struct {
	totalProcessed  atomic.Int64
	localFlagged    atomic.Int64
	aiAnalyzed      atomic.Int64
	messagesDeleted atomic.Int64
	usersRemoved    atomic.Int64
	warningsSent    atomic.Int64
}

// Snapshot is a point-in-time copy of the counters. Under concurrent load the
// fields may be mutually inconsistent by a few increments; that is accepted.
type Snapshot struct {
	TotalProcessed  int64 `json:"totalProcessed"`
	LocalFlagged    int64 `json:"localFlagged"`
	AIAnalyzed      int64 `json:"aiAnalyzed"`
	MessagesDeleted int64 `json:"messagesDeleted"`
	UsersRemoved    int64 `json:"usersRemoved"`
	WarningsSent    int64 `json:"warningsSent"`
}

func NewCounters() *Counters {
	return &Counters{}
}

// IncProcessed records one message entering the pipeline.
func (c *Counters) IncProcessed() { c.totalProcessed.Add(1) }

// IncLocalFlagged records a message the local scorer found suspicious.
func (c *Counters) IncLocalFlagged() { c.localFlagged.Add(1) }

// IncAIAnalyzed records one successful classifier verdict. Fallback verdicts
// do not count; the counter measures genuine AI usage.
func (c *Counters) IncAIAnalyzed() { c.aiAnalyzed.Add(1) }

// IncDeleted records one successfully deleted message.
func (c *Counters) IncDeleted() { c.messagesDeleted.Add(1) }

// IncRemoved records one participant removed from a group.
func (c *Counters) IncRemoved() { c.usersRemoved.Add(1) }

// IncWarned records one warning sent to a group.
func (c *Counters) IncWarned() { c.warningsSent.Add(1) }

// Get returns the current values without blocking writers.
func (c *Counters) Get() Snapshot {
	return Snapshot{
		TotalProcessed:  c.totalProcessed.Load(),
		LocalFlagged:    c.localFlagged.Load(),
		AIAnalyzed:      c.aiAnalyzed.Load(),
		MessagesDeleted: c.messagesDeleted.Load(),
		UsersRemoved:    c.usersRemoved.Load(),
		WarningsSent:    c.warningsSent.Load(),
	}
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
	c.totalProcessed.Store(0)
	c.localFlagged.Store(0)
	c.aiAnalyzed.Store(0)
	c.messagesDeleted.Store(0)
	c.usersRemoved.Store(0)
	c.warningsSent.Store(0)
}
