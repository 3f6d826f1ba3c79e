// Package pipeline wires local scoring, AI review, and decision resolution
// into the per-message moderation flow.
package pipeline

import (
	"context"
	"time"

	"github.com/dennismutuku2005/WaProtect/pkg/ai"
	"github.com/dennismutuku2005/WaProtect/pkg/spam"
)

// Message is one group-chat message entering the pipeline. Content is held
// only for the duration of analysis and never persisted.
type Message struct {
	ID        string
	GroupID   string
	SenderID  string
	Text      string
	Timestamp time.Time
}

// Action is the final moderation action for a message.
type Action string

const (
	ActionAllow           Action = "allow"
	ActionMonitor         Action = "monitor"
	ActionWarn            Action = "warn"
	ActionDelete          Action = "delete"
	ActionDeleteAndRemove Action = "delete_and_remove"
	// ActionNotifyOnly is the downgrade applied by the executor when the bot
	// lacks moderator privilege in the group.
	ActionNotifyOnly Action = "notify_only"
)

// Decision is the resolved outcome for one message.
type Decision struct {
	EventID string        `json:"eventId"`
	Action  Action        `json:"action"`
	Reasons []string      `json:"reasons"`
	Local   spam.Analysis `json:"local"`
	AI      *ai.Analysis  `json:"ai"`
}

// Executor carries a decision out against the messaging platform. Implemented
// by pkg/platform; kept as an interface here so pipeline tests run without a
// live adapter.
type Executor interface {
	Execute(ctx context.Context, msg Message, d Decision) error
}
