// ABOUTME: Run orchestration for the remote assistant
// ABOUTME: Drives submit, poll, tool resolution and reply extraction for each user message

package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/parley/internal/runtime"
	"github.com/2389/parley/internal/store"
	"github.com/2389/parley/internal/threadcache"
)

// Default poll tuning: one status check per second, sixty checks total.
const (
	DefaultPollInterval = time.Second
	DefaultPollBudget   = 60
)

// Default user-facing strings, overridable via Config.
const (
	DefaultApologyReply = "Sorry, I encountered an error while processing your request. Please try again later."
	DefaultEmptyReply   = "I couldn't generate a response. Please try again."
)

// errUnresolvedAction means a run suspended for tool calls but none could be
// resolved, so the run can never complete.
var errUnresolvedAction = errors.New("could not resolve required action")

// ToolResolver is what the orchestrator needs from the tool layer: one
// output per pending call, in listing order.
type ToolResolver interface {
	Resolve(ctx context.Context, telegramID string, calls []runtime.ToolCall) []runtime.ToolOutput
}

// Config tunes the orchestrator.
type Config struct {
	PollInterval time.Duration
	PollBudget   int
	ApologyReply string
	EmptyReply   string
}

// Service orchestrates one assistant run per incoming user message: thread
// resolution, message submit, the bounded poll loop, tool-call resolution,
// reply extraction and best-effort interaction recording.
//
// Concurrent calls for the same user are not serialized. Two racing first
// messages may each mint a thread; the durable upsert makes the last write
// win and the loser orphans one remote thread. Accepted for chat traffic.
type Service struct {
	store    store.Store
	runtime  runtime.Runtime
	resolver ToolResolver
	fallback *threadcache.Cache
	logger   *slog.Logger

	pollInterval time.Duration
	pollBudget   int
	apologyReply string
	emptyReply   string
}

// New creates the orchestrator. Zero-value Config fields fall back to the
// package defaults.
func New(st store.Store, rt runtime.Runtime, resolver ToolResolver, fallback *threadcache.Cache, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollBudget <= 0 {
		cfg.PollBudget = DefaultPollBudget
	}
	if cfg.ApologyReply == "" {
		cfg.ApologyReply = DefaultApologyReply
	}
	if cfg.EmptyReply == "" {
		cfg.EmptyReply = DefaultEmptyReply
	}
	return &Service{
		store:        st,
		runtime:      rt,
		resolver:     resolver,
		fallback:     fallback,
		logger:       logger.With("component", "assistant"),
		pollInterval: cfg.PollInterval,
		pollBudget:   cfg.PollBudget,
		apologyReply: cfg.ApologyReply,
		emptyReply:   cfg.EmptyReply,
	}
}

// Ask submits a user message and returns the assistant's reply. It never
// fails: any error is logged and converted to the apology string here, so
// nothing below the message-delivery layer sees an exception.
func (s *Service) Ask(ctx context.Context, telegramID string, profile store.Profile, text string) string {
	reply, err := s.ask(ctx, telegramID, profile, text)
	if err != nil {
		s.logger.Error("ask failed", "error", err, "telegram_id", telegramID)
		return s.apologyReply
	}
	if reply == "" {
		return s.emptyReply
	}
	return reply
}

// ask runs the full request lifecycle and propagates failures to Ask.
func (s *Service) ask(ctx context.Context, telegramID string, profile store.Profile, text string) (string, error) {
	threadID, err := s.resolveThread(ctx, telegramID)
	if err != nil {
		return "", err
	}

	if err := s.runtime.AddUserMessage(ctx, threadID, text); err != nil {
		return "", fmt.Errorf("appending user message: %w", err)
	}

	run, err := s.runtime.CreateRun(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}

	if err := s.awaitRun(ctx, telegramID, threadID, run.ID); err != nil {
		return "", err
	}

	messages, err := s.runtime.ListMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("listing messages: %w", err)
	}
	reply := latestAssistantText(messages)
	if reply == "" {
		s.logger.Warn("no assistant reply found in thread", "thread_id", threadID)
	}

	s.recordInteraction(ctx, telegramID, threadID, profile, text, reply)

	return reply, nil
}

// awaitRun polls the run until it completes, fails, or exhausts the budget.
// A requires_action suspension is resolved in-loop and consumes iterations
// from the same budget as ordinary polling.
func (s *Service) awaitRun(ctx context.Context, telegramID, threadID, runID string) error {
	for attempt := 0; attempt < s.pollBudget; attempt++ {
		run, err := s.runtime.GetRun(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("fetching run status: %w", err)
		}

		switch {
		case run.Status == runtime.StatusCompleted:
			return nil

		case run.Status.TerminalFailure():
			return fmt.Errorf("run ended with status %s", run.Status)

		case run.Status == runtime.StatusRequiresAction:
			if len(run.ToolCalls) == 0 {
				return errUnresolvedAction
			}
			outputs := s.resolver.Resolve(ctx, telegramID, run.ToolCalls)
			if len(outputs) == 0 {
				return errUnresolvedAction
			}
			if err := s.runtime.SubmitToolOutputs(ctx, threadID, runID, outputs); err != nil {
				return fmt.Errorf("submitting tool outputs: %w", err)
			}
		}

		// queued, in_progress, or just resumed: wait before the next check
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}

	return fmt.Errorf("timed out waiting for run %s after %d attempts", runID, s.pollBudget)
}

// recordInteraction refreshes the user record and appends the exchange to
// history. Failures here are logged and swallowed; they never affect the
// reply already produced.
func (s *Service) recordInteraction(ctx context.Context, telegramID, threadID string, profile store.Profile, userText, assistantText string) {
	user, err := s.store.UpsertUser(ctx, telegramID, threadID, profile)
	if err != nil {
		s.logger.Error("failed to refresh user record", "error", err, "telegram_id", telegramID)
		return
	}

	err = s.store.RecordInteraction(ctx, &store.Interaction{
		ID:            uuid.New().String(),
		TelegramID:    user.TelegramID,
		ThreadID:      threadID,
		UserText:      userText,
		AssistantText: assistantText,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		s.logger.Error("failed to record interaction", "error", err, "telegram_id", telegramID)
	}
}

// latestAssistantText selects the most recently created assistant message
// and joins its text segments with newlines. The remote listing does not
// guarantee ordering, so messages are sorted by creation time, descending.
func latestAssistantText(messages []runtime.Message) string {
	assistant := make([]runtime.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == runtime.RoleAssistant {
			assistant = append(assistant, msg)
		}
	}
	if len(assistant) == 0 {
		return ""
	}
	sort.SliceStable(assistant, func(i, j int) bool {
		return assistant[i].CreatedAt > assistant[j].CreatedAt
	})
	return strings.Join(assistant[0].Text, "\n")
}
