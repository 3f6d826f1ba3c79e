package platform

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dennismutuku2005/WaProtect/pkg/pipeline"
	"github.com/dennismutuku2005/WaProtect/pkg/stats"
)

// warnText is posted into the group after enforcement so members know why a
// message vanished.
const warnText = "⚠️ A message was removed because it looked like a scam. " +
	"Never send money or personal details to unverified contacts."

// ActionExecutor carries resolved decisions out against the platform.
// Enforcement counters are bumped only after the platform call succeeds, so
// stats reflect actions taken, not actions attempted.
type ActionExecutor struct {
	messenger Messenger
	counters  *stats.Counters
	actions   stats.CountStore
}

// NewActionExecutor builds an executor. actions may be nil to skip
// per-group/per-sender history tracking.
func NewActionExecutor(m Messenger, c *stats.Counters, actions stats.CountStore) *ActionExecutor {
	if c == nil {
		c = stats.NewCounters()
	}
	return &ActionExecutor{messenger: m, counters: c, actions: actions}
}

// Execute performs a decision's action. Platform failures are reported to
// the operator channel and swallowed; moderation must keep flowing even when
// individual actions bounce.
func (e *ActionExecutor) Execute(ctx context.Context, msg pipeline.Message, d pipeline.Decision) error {
	action := d.Action
	if action == pipeline.ActionAllow {
		return nil
	}

	// Authorization gate. Without moderator privilege the decision keeps its
	// evidence but degrades to an operator notification.
	if requiresPrivilege(action) {
		isMod, err := e.messenger.IsModerator(ctx, msg.GroupID)
		if err != nil {
			log.Printf("[WARN] moderator check failed group=%s: %v", msg.GroupID, err)
			isMod = false
		}
		if !isMod {
			action = pipeline.ActionNotifyOnly
		}
	}

	var failures []string
	report := func(what string, err error) {
		log.Printf("[WARN] %s failed group=%s msg=%s event=%s: %v", what, msg.GroupID, msg.ID, d.EventID, err)
		failures = append(failures, fmt.Sprintf("%s: %v", what, err))
	}

	switch action {
	case pipeline.ActionMonitor, pipeline.ActionNotifyOnly:
		if err := e.messenger.NotifyOperator(ctx, e.alertText(msg, d, action)); err != nil {
			log.Printf("[WARN] operator notify failed event=%s: %v", d.EventID, err)
		}
		return ctx.Err()

	case pipeline.ActionWarn:
		if err := e.messenger.SendGroupMessage(ctx, msg.GroupID, warnText); err != nil {
			report("warn", err)
		} else {
			e.counters.IncWarned()
			e.recordAction(ctx, "warn", msg)
		}

	case pipeline.ActionDelete:
		if err := e.messenger.DeleteMessage(ctx, msg.GroupID, msg.ID); err != nil {
			report("delete", err)
		} else {
			e.counters.IncDeleted()
			e.recordAction(ctx, "delete", msg)
		}

	case pipeline.ActionDeleteAndRemove:
		if err := e.messenger.DeleteMessage(ctx, msg.GroupID, msg.ID); err != nil {
			report("delete", err)
		} else {
			e.counters.IncDeleted()
			e.recordAction(ctx, "delete", msg)
		}
		if err := e.messenger.RemoveParticipant(ctx, msg.GroupID, msg.SenderID); err != nil {
			report("remove", err)
		} else {
			e.counters.IncRemoved()
			e.recordAction(ctx, "remove", msg)
		}
	}

	if len(failures) > 0 {
		text := fmt.Sprintf("🚨 Action failures for event %s in %s:\n%s",
			d.EventID, msg.GroupID, strings.Join(failures, "\n"))
		if err := e.messenger.NotifyOperator(ctx, text); err != nil {
			log.Printf("[WARN] operator notify failed event=%s: %v", d.EventID, err)
		}
	}
	return ctx.Err()
}

func requiresPrivilege(a pipeline.Action) bool {
	switch a {
	case pipeline.ActionWarn, pipeline.ActionDelete, pipeline.ActionDeleteAndRemove:
		return true
	}
	return false
}

// recordAction bumps the per-group and per-sender history counters.
func (e *ActionExecutor) recordAction(ctx context.Context, action string, msg pipeline.Message) {
	if e.actions == nil {
		return
	}
	if err := e.actions.Increment(ctx, "group/"+action, msg.GroupID); err != nil {
		log.Printf("[WARN] count store increment failed: %v", err)
	}
	if err := e.actions.Increment(ctx, "sender/"+action, msg.SenderID); err != nil {
		log.Printf("[WARN] count store increment failed: %v", err)
	}
}

func (e *ActionExecutor) alertText(msg pipeline.Message, d pipeline.Decision, action pipeline.Action) string {
	var b strings.Builder
	if action == pipeline.ActionNotifyOnly {
		fmt.Fprintf(&b, "🚨 Suspicious message in %s but I lack admin rights to act.\n", msg.GroupID)
		fmt.Fprintf(&b, "Wanted: %s\n", d.Action)
	} else {
		fmt.Fprintf(&b, "👀 Monitoring suspicious message in %s.\n", msg.GroupID)
	}
	fmt.Fprintf(&b, "Sender: %s\nScore: %d\nEvent: %s\n", msg.SenderID, d.Local.Score, d.EventID)
	if len(d.Reasons) > 0 {
		fmt.Fprintf(&b, "Reasons: %s", strings.Join(d.Reasons, "; "))
	}
	return b.String()
}
