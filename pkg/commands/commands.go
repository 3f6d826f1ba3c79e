// Package commands implements the operator command grammar. Commands arrive
// as plain chat messages from the operator; each returns a text reply.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/dennismutuku2005/WaProtect/pkg/pipeline"
	"github.com/dennismutuku2005/WaProtect/pkg/platform"
	"github.com/dennismutuku2005/WaProtect/pkg/spam"
)

const helpText = `Available commands:
• list groups - show groups under protection
• spam stats - detection statistics
• test local <message> - run the local analyzer on a message`

// Handler answers operator commands using the same pipeline the live flow
// uses. Messenger may be nil for deployments without a platform adapter; the
// "list groups" command then reports that.
type Handler struct {
	pipeline  *pipeline.Pipeline
	messenger platform.Messenger
}

func NewHandler(p *pipeline.Pipeline, m platform.Messenger) *Handler {
	return &Handler{pipeline: p, messenger: m}
}

// Handle parses one operator message and returns the reply text. Unknown
// input gets the help text rather than an error.
func (h *Handler) Handle(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "list groups":
		return h.listGroups(ctx)
	case lower == "spam stats":
		return h.spamStats()
	case strings.HasPrefix(lower, "test local"):
		sample := strings.TrimSpace(trimmed[len("test local"):])
		return h.testLocal(sample)
	default:
		return helpText
	}
}

func (h *Handler) listGroups(ctx context.Context) string {
	if h.messenger == nil {
		return "No platform adapter connected."
	}
	groups, err := h.messenger.ListGroups(ctx)
	if err != nil {
		return fmt.Sprintf("Could not fetch groups: %v", err)
	}
	if len(groups) == 0 {
		return "Not a member of any group yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Protected groups (%d):\n", len(groups))
	for i, g := range groups {
		admin := "❌ not admin"
		if g.BotIsAdmin {
			admin = "✅ admin"
		}
		fmt.Fprintf(&b, "%d. %s (%d members, %s)\n", i+1, g.Name, g.Participants, admin)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) spamStats() string {
	s := h.pipeline.Counters().Get()

	var b strings.Builder
	b.WriteString("📊 Spam detection stats:\n")
	fmt.Fprintf(&b, "Messages processed: %d\n", s.TotalProcessed)
	fmt.Fprintf(&b, "Flagged locally: %d (%s)\n", s.LocalFlagged, percent(s.LocalFlagged, s.TotalProcessed))
	fmt.Fprintf(&b, "AI reviewed: %d\n", s.AIAnalyzed)
	fmt.Fprintf(&b, "Messages deleted: %d (%s)\n", s.MessagesDeleted, percent(s.MessagesDeleted, s.TotalProcessed))
	fmt.Fprintf(&b, "Users removed: %d\n", s.UsersRemoved)
	fmt.Fprintf(&b, "Warnings sent: %d", s.WarningsSent)
	return b.String()
}

// testLocal runs the diagnostic scorer, the exact path live messages take.
func (h *Handler) testLocal(sample string) string {
	if sample == "" {
		return "Usage: test local <message>"
	}
	a := h.pipeline.Evaluate(sample)

	var b strings.Builder
	fmt.Fprintf(&b, "🔬 Local analysis:\nScore: %d/100\nConfidence: %s\nRecommended: %s\n",
		a.Score, a.Confidence, a.RecommendedAction)
	fmt.Fprintf(&b, "Suspicious: %v | High-confidence spam: %v\n", a.IsSuspicious, a.IsHighConfidenceSpam)
	fmt.Fprintf(&b, "Would escalate to AI: %v\n", spam.ShouldEscalate(a))
	if len(a.Flags) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(a.Flags, ", "))
	}
	if len(a.Evidence) > 0 {
		fmt.Fprintf(&b, "Evidence:\n• %s", strings.Join(a.Evidence, "\n• "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func percent(part, whole int64) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}
