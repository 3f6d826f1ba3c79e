package platform

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dennismutuku2005/WaProtect/pkg/pipeline"
	"github.com/dennismutuku2005/WaProtect/pkg/spam"
	"github.com/dennismutuku2005/WaProtect/pkg/stats"
)

type fakeMessenger struct {
	mu            sync.Mutex
	isModerator   bool
	modErr        error
	deleteErr     error
	removeErr     error
	deleted       []string
	removed       []string
	groupMessages []string
	operatorMsgs  []string
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, groupID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) RemoveParticipant(ctx context.Context, groupID, participantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, participantID)
	return nil
}

func (f *fakeMessenger) SendGroupMessage(ctx context.Context, groupID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupMessages = append(f.groupMessages, text)
	return nil
}

func (f *fakeMessenger) NotifyOperator(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.operatorMsgs = append(f.operatorMsgs, text)
	return nil
}

func (f *fakeMessenger) IsModerator(ctx context.Context, groupID string) (bool, error) {
	return f.isModerator, f.modErr
}

func (f *fakeMessenger) ListGroups(ctx context.Context) ([]GroupInfo, error) {
	return []GroupInfo{{ID: "g1", Name: "Test Group", Participants: 12, BotIsAdmin: f.isModerator}}, nil
}

func testMessage() pipeline.Message {
	return pipeline.Message{ID: "m1", GroupID: "g1", SenderID: "s1", Text: "spam"}
}

func decision(action pipeline.Action) pipeline.Decision {
	return pipeline.Decision{
		EventID: "evt-1",
		Action:  action,
		Reasons: []string{"test reason"},
		Local:   spam.Analysis{Score: 90, IsSuspicious: true},
	}
}

func TestExecuteDelete(t *testing.T) {
	m := &fakeMessenger{isModerator: true}
	counters := stats.NewCounters()
	e := NewActionExecutor(m, counters, stats.NewMemCountStore())

	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionDelete)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(m.deleted) != 1 {
		t.Errorf("deleted = %v, want one entry", m.deleted)
	}
	if s := counters.Get(); s.MessagesDeleted != 1 {
		t.Errorf("messagesDeleted = %d, want 1", s.MessagesDeleted)
	}
}

func TestExecuteDeleteAndRemove(t *testing.T) {
	m := &fakeMessenger{isModerator: true}
	counters := stats.NewCounters()
	e := NewActionExecutor(m, counters, nil)

	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionDeleteAndRemove)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(m.deleted) != 1 || len(m.removed) != 1 {
		t.Errorf("deleted = %v removed = %v", m.deleted, m.removed)
	}
	s := counters.Get()
	if s.MessagesDeleted != 1 || s.UsersRemoved != 1 {
		t.Errorf("counters = %+v", s)
	}
}

func TestExecuteWarn(t *testing.T) {
	m := &fakeMessenger{isModerator: true}
	counters := stats.NewCounters()
	e := NewActionExecutor(m, counters, nil)

	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionWarn)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(m.groupMessages) != 1 {
		t.Errorf("groupMessages = %v, want one warning", m.groupMessages)
	}
	if s := counters.Get(); s.WarningsSent != 1 {
		t.Errorf("warningsSent = %d, want 1", s.WarningsSent)
	}
}

// Without moderator privilege every privileged action degrades to an
// operator notification carrying the evidence.
func TestExecuteDowngradesWithoutPrivilege(t *testing.T) {
	for _, action := range []pipeline.Action{
		pipeline.ActionWarn, pipeline.ActionDelete, pipeline.ActionDeleteAndRemove,
	} {
		t.Run(string(action), func(t *testing.T) {
			m := &fakeMessenger{isModerator: false}
			counters := stats.NewCounters()
			e := NewActionExecutor(m, counters, nil)

			if err := e.Execute(context.Background(), testMessage(), decision(action)); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(m.deleted) != 0 || len(m.removed) != 0 || len(m.groupMessages) != 0 {
				t.Error("privileged action performed without privilege")
			}
			if len(m.operatorMsgs) != 1 {
				t.Fatalf("operatorMsgs = %v, want one alert", m.operatorMsgs)
			}
			if !strings.Contains(m.operatorMsgs[0], "test reason") {
				t.Errorf("alert lost the evidence: %q", m.operatorMsgs[0])
			}
			if s := counters.Get(); s.MessagesDeleted+s.UsersRemoved+s.WarningsSent != 0 {
				t.Errorf("counters bumped without enforcement: %+v", s)
			}
		})
	}
}

func TestExecuteModeratorCheckErrorDowngrades(t *testing.T) {
	m := &fakeMessenger{isModerator: true, modErr: errors.New("connection lost")}
	e := NewActionExecutor(m, stats.NewCounters(), nil)

	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionDelete)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(m.deleted) != 0 {
		t.Error("delete performed despite failed moderator check")
	}
	if len(m.operatorMsgs) != 1 {
		t.Errorf("operatorMsgs = %v, want downgrade alert", m.operatorMsgs)
	}
}

// Platform failures are reported, not propagated, and failed actions do not
// count in the stats.
func TestExecuteSwallowsActionFailure(t *testing.T) {
	m := &fakeMessenger{isModerator: true, deleteErr: errors.New("message gone")}
	counters := stats.NewCounters()
	e := NewActionExecutor(m, counters, nil)

	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionDelete)); err != nil {
		t.Fatalf("Execute returned error, want swallowed failure: %v", err)
	}
	if s := counters.Get(); s.MessagesDeleted != 0 {
		t.Errorf("messagesDeleted = %d for a failed delete", s.MessagesDeleted)
	}
	if len(m.operatorMsgs) != 1 || !strings.Contains(m.operatorMsgs[0], "delete") {
		t.Errorf("operatorMsgs = %v, want a failure report", m.operatorMsgs)
	}
}

// A partial delete_and_remove still records the half that worked.
func TestExecutePartialFailure(t *testing.T) {
	m := &fakeMessenger{isModerator: true, removeErr: errors.New("not permitted")}
	counters := stats.NewCounters()
	e := NewActionExecutor(m, counters, nil)

	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionDeleteAndRemove)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	s := counters.Get()
	if s.MessagesDeleted != 1 || s.UsersRemoved != 0 {
		t.Errorf("counters = %+v, want delete counted and remove not", s)
	}
}

// Counters reflect exactly the number of successful platform calls.
func TestExecuteCountersMatchActions(t *testing.T) {
	m := &fakeMessenger{isModerator: true}
	counters := stats.NewCounters()
	e := NewActionExecutor(m, counters, nil)

	const k = 4
	for i := 0; i < k; i++ {
		if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionDelete)); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if s := counters.Get(); s.MessagesDeleted != k {
		t.Errorf("messagesDeleted = %d, want %d", s.MessagesDeleted, k)
	}
}

func TestExecuteAllowIsNoop(t *testing.T) {
	m := &fakeMessenger{isModerator: true}
	e := NewActionExecutor(m, stats.NewCounters(), nil)
	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionAllow)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(m.deleted)+len(m.removed)+len(m.groupMessages)+len(m.operatorMsgs) != 0 {
		t.Error("allow decision touched the platform")
	}
}

func TestAnnounceStartup(t *testing.T) {
	m := &fakeMessenger{isModerator: true}
	if err := AnnounceStartup(context.Background(), m, "1.0.0"); err != nil {
		t.Fatalf("AnnounceStartup: %v", err)
	}
	if len(m.operatorMsgs) != 1 || !strings.Contains(m.operatorMsgs[0], "1 group(s)") {
		t.Errorf("operatorMsgs = %v", m.operatorMsgs)
	}
}

func TestExecuteRecordsActionHistory(t *testing.T) {
	m := &fakeMessenger{isModerator: true}
	store := stats.NewMemCountStore()
	e := NewActionExecutor(m, stats.NewCounters(), store)

	if err := e.Execute(context.Background(), testMessage(), decision(pipeline.ActionDelete)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	n, err := store.GetCount(context.Background(), "group/delete", "g1", stats.PeriodTotal)
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if n != 1 {
		t.Errorf("group delete count = %d, want 1", n)
	}
}
