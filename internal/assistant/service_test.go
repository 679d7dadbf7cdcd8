// ABOUTME: Tests for the run orchestrator
// ABOUTME: Covers the poll loop, tool-call resolution, reply extraction, and failure degradation

package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/leads"
	"github.com/2389/parley/internal/runtime"
	"github.com/2389/parley/internal/store"
	"github.com/2389/parley/internal/threadcache"
	"github.com/2389/parley/internal/tools"
)

type fixture struct {
	svc     *Service
	store   *store.MockStore
	runtime *runtime.MockRuntime
	cache   *threadcache.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mockStore := store.NewMockStore()
	mockRuntime := runtime.NewMockRuntime()
	cache := threadcache.New(time.Hour)
	t.Cleanup(cache.Close)

	resolver := tools.NewResolver(leads.NewService(mockStore, nil), nil)
	svc := New(mockStore, mockRuntime, resolver, cache, Config{
		PollInterval: time.Millisecond,
	}, nil)
	return &fixture{svc: svc, store: mockStore, runtime: mockRuntime, cache: cache}
}

func assistantMessage(id string, createdAt int64, text ...string) runtime.Message {
	return runtime.Message{ID: id, Role: runtime.RoleAssistant, CreatedAt: createdAt, Text: text}
}

func TestAsk_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusCompleted}
	f.runtime.Messages = []runtime.Message{
		{ID: "msg_user", Role: runtime.RoleUser, CreatedAt: 10, Text: []string{"hello"}},
		assistantMessage("msg_reply", 11, "Hi! How can I help?"),
	}

	reply := f.svc.Ask(context.Background(), "100", store.Profile{FirstName: "Ada"}, "hello")
	assert.Equal(t, "Hi! How can I help?", reply)

	require.Equal(t, []string{"hello"}, f.runtime.UserMessages)

	// The interaction was recorded and the counter bumped
	user, err := f.store.GetUser(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, 1, user.MessageCount)
	assert.Equal(t, "Ada", user.FirstName)

	history, err := f.store.ListInteractionsByUser(context.Background(), "100", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].UserText)
	assert.Equal(t, "Hi! How can I help?", history[0].AssistantText)
}

func TestAsk_PicksLatestAssistantMessage(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusCompleted}
	// Listing order deliberately does not match creation order
	f.runtime.Messages = []runtime.Message{
		assistantMessage("msg_new", 200, "newest reply"),
		assistantMessage("msg_old", 100, "older reply"),
		{ID: "msg_user", Role: runtime.RoleUser, CreatedAt: 150, Text: []string{"question"}},
	}

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "question")
	assert.Equal(t, "newest reply", reply)
}

func TestAsk_JoinsTextSegments(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusCompleted}
	f.runtime.Messages = []runtime.Message{
		assistantMessage("msg_1", 10, "first paragraph", "second paragraph"),
	}

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, "first paragraph\nsecond paragraph", reply)
}

func TestAsk_EmptyReply_ReturnsFallbackString(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusCompleted}
	f.runtime.Messages = nil

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, DefaultEmptyReply, reply)
}

func TestAsk_PollsUntilCompleted(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{
		runtime.StatusQueued,
		runtime.StatusInProgress,
		runtime.StatusInProgress,
		runtime.StatusCompleted,
	}
	f.runtime.Messages = []runtime.Message{assistantMessage("msg_1", 10, "done")}

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, "done", reply)
	assert.Equal(t, 4, f.runtime.GetRunCalls)
}

func TestAsk_Timeout_ExactlyBudgetStatusChecks(t *testing.T) {
	f := newFixture(t)
	// Stays in_progress forever
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusInProgress}

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, DefaultApologyReply, reply)
	assert.Equal(t, DefaultPollBudget, f.runtime.GetRunCalls, "terminates after exactly the budgeted status checks")
}

func TestAsk_TerminalFailureStatuses(t *testing.T) {
	for _, status := range []runtime.RunStatus{runtime.StatusFailed, runtime.StatusCancelled, runtime.StatusExpired} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusInProgress, status}

			reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
			assert.Equal(t, DefaultApologyReply, reply)
			assert.Equal(t, 2, f.runtime.GetRunCalls, "no further polling after a terminal status")
		})
	}
}

func TestAsk_RequiresAction_ResolvesAndContinues(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{
		runtime.StatusInProgress,
		runtime.StatusRequiresAction,
		runtime.StatusCompleted,
	}
	f.runtime.ToolCallsAt[1] = []runtime.ToolCall{
		{
			ID:        "call_good",
			Name:      "gather_user_info",
			Arguments: `{"name":"Ada Lovelace","email":"ada@example.com","phone_number":"+44 20 7946 0958"}`,
		},
		{
			ID:        "call_broken",
			Name:      "gather_user_info",
			Arguments: `{broken`,
		},
	}
	f.runtime.Messages = []runtime.Message{assistantMessage("msg_1", 10, "Thanks, saved your details!")}

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "my details")
	assert.Equal(t, "Thanks, saved your details!", reply)

	// Exactly one batch with exactly two outputs, one per call
	require.Len(t, f.runtime.SubmittedOutputs, 1)
	batch := f.runtime.SubmittedOutputs[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "call_good", batch[0].CallID)
	assert.Contains(t, batch[0].Output, `"success":true`)
	assert.Equal(t, "call_broken", batch[1].CallID)
	assert.Contains(t, batch[1].Output, `"success":false`)
}

func TestAsk_RequiresActionWithNoCalls_Fails(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusRequiresAction}
	// No tool calls scripted for the suspension

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, DefaultApologyReply, reply)
	assert.Empty(t, f.runtime.SubmittedOutputs)
}

func TestAsk_SubmitFailure_Degrades(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusRequiresAction}
	f.runtime.ToolCallsAt[0] = []runtime.ToolCall{
		{ID: "call_1", Name: "gather_user_info", Arguments: `{"name":"Ada","email":"ada@example.com","phone_number":"12345678"}`},
	}
	f.runtime.SubmitErr = errors.New("submit rejected")

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, DefaultApologyReply, reply)
}

func TestAsk_RuntimeDown_ReturnsApology(t *testing.T) {
	f := newFixture(t)
	f.runtime.CreateThreadErr = errors.New("runtime down")

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, DefaultApologyReply, reply)
}

func TestAsk_RecordingFailure_DoesNotAffectReply(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusCompleted}
	f.runtime.Messages = []runtime.Message{assistantMessage("msg_1", 10, "all good")}

	// Thread resolution succeeds, then writes start failing so the
	// best-effort recording path errors out
	_, err := f.store.UpsertUser(context.Background(), "100", "", store.Profile{})
	require.NoError(t, err)
	require.NoError(t, f.store.SetThreadID(context.Background(), "100", "thread_pre"))
	f.store.FailWrites = true

	reply := f.svc.Ask(context.Background(), "100", store.Profile{}, "hi")
	assert.Equal(t, "all good", reply, "recording failures are swallowed")
}

func TestAsk_ContextCancelled_StopsPolling(t *testing.T) {
	f := newFixture(t)
	f.runtime.StatusScript = []runtime.RunStatus{runtime.StatusInProgress}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply := f.svc.Ask(ctx, "100", store.Profile{}, "hi")
	assert.Equal(t, DefaultApologyReply, reply)
	assert.Less(t, f.runtime.GetRunCalls, DefaultPollBudget)
}
