package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dennismutuku2005/WaProtect/pkg/pipeline"
	"github.com/dennismutuku2005/WaProtect/pkg/platform"
)

type fakeMessenger struct {
	groups    []platform.GroupInfo
	groupsErr error
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, groupID, messageID string) error { return nil }
func (f *fakeMessenger) RemoveParticipant(ctx context.Context, groupID, participantID string) error {
	return nil
}
func (f *fakeMessenger) SendGroupMessage(ctx context.Context, groupID, text string) error { return nil }
func (f *fakeMessenger) NotifyOperator(ctx context.Context, text string) error            { return nil }
func (f *fakeMessenger) IsModerator(ctx context.Context, groupID string) (bool, error) {
	return true, nil
}
func (f *fakeMessenger) ListGroups(ctx context.Context) ([]platform.GroupInfo, error) {
	return f.groups, f.groupsErr
}

func newHandler(m platform.Messenger) *Handler {
	return NewHandler(pipeline.New(nil, nil, 4, nil, nil), m)
}

func TestHandleUnknownShowsHelp(t *testing.T) {
	h := newHandler(nil)
	for _, input := range []string{"", "what", "delete everything"} {
		reply := h.Handle(context.Background(), input)
		if !strings.Contains(reply, "Available commands") {
			t.Errorf("Handle(%q) = %q, want help text", input, reply)
		}
	}
}

func TestHandleListGroups(t *testing.T) {
	h := newHandler(&fakeMessenger{groups: []platform.GroupInfo{
		{ID: "g1", Name: "Chess Club", Participants: 40, BotIsAdmin: true},
		{ID: "g2", Name: "Year 3 CS", Participants: 120, BotIsAdmin: false},
	}})

	reply := h.Handle(context.Background(), "list groups")
	if !strings.Contains(reply, "Chess Club") || !strings.Contains(reply, "Year 3 CS") {
		t.Errorf("reply missing groups: %q", reply)
	}
	if !strings.Contains(reply, "✅ admin") || !strings.Contains(reply, "❌ not admin") {
		t.Errorf("reply missing admin markers: %q", reply)
	}
}

func TestHandleListGroupsErrors(t *testing.T) {
	h := newHandler(&fakeMessenger{groupsErr: errors.New("disconnected")})
	reply := h.Handle(context.Background(), "LIST GROUPS")
	if !strings.Contains(reply, "disconnected") {
		t.Errorf("reply = %q, want the fetch error surfaced", reply)
	}
}

func TestHandleListGroupsNoAdapter(t *testing.T) {
	h := newHandler(nil)
	reply := h.Handle(context.Background(), "list groups")
	if !strings.Contains(reply, "No platform adapter") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleSpamStats(t *testing.T) {
	p := pipeline.New(nil, nil, 4, nil, nil)
	h := NewHandler(p, nil)

	// Feed two messages through so the report has content.
	scam := "Congratulations! You won KSh 50,000 from Safaricom Foundation. Send your ID and M-PESA PIN to claim: 0712345678"
	for _, text := range []string{scam, "hello there"} {
		if _, err := p.Process(context.Background(), pipeline.Message{ID: "m", GroupID: "g", Text: text}); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	reply := h.Handle(context.Background(), "spam stats")
	if !strings.Contains(reply, "Messages processed: 2") {
		t.Errorf("reply = %q, want processed count", reply)
	}
	if !strings.Contains(reply, "Flagged locally: 1 (50.0%)") {
		t.Errorf("reply = %q, want flag rate", reply)
	}
}

func TestHandleTestLocal(t *testing.T) {
	h := newHandler(nil)

	reply := h.Handle(context.Background(), "test local half price deals call 0712345678")
	if !strings.Contains(reply, "Score: 45/100") {
		t.Errorf("reply = %q, want score line", reply)
	}
	if !strings.Contains(reply, "Would escalate to AI: true") {
		t.Errorf("reply = %q, want escalation line", reply)
	}

	if reply := h.Handle(context.Background(), "test local"); !strings.Contains(reply, "Usage") {
		t.Errorf("reply = %q, want usage hint", reply)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole int64
		want        string
	}{
		{0, 0, "0.0%"},
		{1, 2, "50.0%"},
		{1, 3, "33.3%"},
		{2, 2, "100.0%"},
	}
	for _, tt := range tests {
		if got := percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("percent(%d, %d) = %s, want %s", tt.part, tt.whole, got, tt.want)
		}
	}
}
