// ABOUTME: Mock Runtime implementation for testing
// ABOUTME: Scripts run status sequences and records submitted tool outputs

package runtime

import (
	"context"
	"fmt"
	"sync"
)

// MockRuntime is a scripted Runtime for tests. Status transitions for a run
// are consumed from StatusScript in order; the last entry repeats once the
// script is exhausted.
type MockRuntime struct {
	mu sync.Mutex

	// Failure injection
	CreateThreadErr error
	AddMessageErr   error
	CreateRunErr    error
	GetRunErr       error
	SubmitErr       error
	ListMessagesErr error

	// StatusScript is consumed by successive GetRun calls.
	StatusScript []RunStatus
	// ToolCallsAt maps a script index to the tool calls returned when the
	// scripted status at that index is requires_action.
	ToolCallsAt map[int][]ToolCall

	// Messages returned by ListMessages.
	Messages []Message

	// Recorded activity
	ThreadsCreated   int
	UserMessages     []string
	GetRunCalls      int
	SubmittedOutputs [][]ToolOutput

	nextThread int
}

// NewMockRuntime creates an empty mock. With no script, runs complete
// immediately.
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{ToolCallsAt: make(map[int][]ToolCall)}
}

// CreateThread mints sequential thread handles (thread_mock_1, ...).
func (m *MockRuntime) CreateThread(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateThreadErr != nil {
		return "", m.CreateThreadErr
	}
	m.nextThread++
	m.ThreadsCreated++
	return fmt.Sprintf("thread_mock_%d", m.nextThread), nil
}

// AddUserMessage records the appended text.
func (m *MockRuntime) AddUserMessage(ctx context.Context, threadID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AddMessageErr != nil {
		return m.AddMessageErr
	}
	m.UserMessages = append(m.UserMessages, text)
	return nil
}

// CreateRun starts a scripted run.
func (m *MockRuntime) CreateRun(ctx context.Context, threadID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateRunErr != nil {
		return nil, m.CreateRunErr
	}
	return &Run{ID: "run_mock_1", Status: StatusQueued}, nil
}

// GetRun returns the next scripted status.
func (m *MockRuntime) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}

	idx := m.GetRunCalls
	m.GetRunCalls++

	status := StatusCompleted
	if len(m.StatusScript) > 0 {
		if idx >= len(m.StatusScript) {
			idx = len(m.StatusScript) - 1
		}
		status = m.StatusScript[idx]
	}

	run := &Run{ID: runID, Status: status}
	if status == StatusRequiresAction {
		run.ToolCalls = m.ToolCallsAt[idx]
	}
	return run, nil
}

// SubmitToolOutputs records the submitted batch.
func (m *MockRuntime) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SubmitErr != nil {
		return m.SubmitErr
	}
	batch := make([]ToolOutput, len(outputs))
	copy(batch, outputs)
	m.SubmittedOutputs = append(m.SubmittedOutputs, batch)
	return nil
}

// ListMessages returns the configured message list.
func (m *MockRuntime) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListMessagesErr != nil {
		return nil, m.ListMessagesErr
	}
	out := make([]Message, len(m.Messages))
	copy(out, m.Messages)
	return out, nil
}
