// Package platform adapts moderation decisions onto a messaging platform.
// The Messenger interface is the seam: a WhatsApp bridge implements it in
// production, tests implement it in-memory.
package platform

import (
	"context"
	"fmt"
	"time"
)

// GroupInfo describes one group the bot belongs to, as reported to the
// operator's "list groups" command.
type GroupInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Participants int    `json:"participants"`
	BotIsAdmin   bool   `json:"botIsAdmin"`
}

// AnnounceStartup tells the operator the bot is online. Called by adapters
// once their connection is established.
func AnnounceStartup(ctx context.Context, m Messenger, version string) error {
	groups, err := m.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	text := fmt.Sprintf("🛡️ WaProtect %s online, watching %d group(s) as of %s",
		version, len(groups), time.Now().UTC().Format(time.RFC3339))
	return m.NotifyOperator(ctx, text)
}

// Messenger is the platform surface the executor needs. All methods may be
// called concurrently from different group workers.
type Messenger interface {
	// DeleteMessage removes a message from its group.
	DeleteMessage(ctx context.Context, groupID, messageID string) error
	// RemoveParticipant ejects a sender from a group.
	RemoveParticipant(ctx context.Context, groupID, participantID string) error
	// SendGroupMessage posts a warning or notice into a group.
	SendGroupMessage(ctx context.Context, groupID, text string) error
	// NotifyOperator delivers an alert to the operator channel.
	NotifyOperator(ctx context.Context, text string) error
	// IsModerator reports whether the bot holds moderator privilege in the group.
	IsModerator(ctx context.Context, groupID string) (bool, error)
	// ListGroups enumerates the groups the bot is a member of.
	ListGroups(ctx context.Context) ([]GroupInfo, error)
}
