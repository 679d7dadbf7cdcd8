// ABOUTME: Runtime interface and data types for the remote assistant boundary
// ABOUTME: Defines Run, ToolCall, ToolOutput, Message and the run status lifecycle

package runtime

import (
	"context"
	"errors"
)

// ErrNoThread is returned when a conversation thread could not be established.
var ErrNoThread = errors.New("could not establish a conversation thread")

// RunStatus is the remote, authoritative state of an assistant run.
type RunStatus string

const (
	StatusQueued         RunStatus = "queued"
	StatusInProgress     RunStatus = "in_progress"
	StatusRequiresAction RunStatus = "requires_action"
	StatusCompleted      RunStatus = "completed"
	StatusFailed         RunStatus = "failed"
	StatusCancelled      RunStatus = "cancelled"
	StatusExpired        RunStatus = "expired"
)

// TerminalFailure reports whether the status ends the run unsuccessfully.
func (s RunStatus) TerminalFailure() bool {
	switch s {
	case StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Run is one asynchronous execution of the assistant against a thread.
// ToolCalls is populated only while the run is in requires_action.
type Run struct {
	ID        string
	Status    RunStatus
	ToolCalls []ToolCall
}

// ToolCall is a function invocation requested by the assistant mid-run.
// Arguments is the raw JSON argument payload.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolOutput answers one ToolCall. Every pending call must receive exactly
// one output before the run can resume.
type ToolOutput struct {
	CallID string
	Output string
}

// Message roles as reported by the remote runtime.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a thread's history. Text holds the textual
// segments of the message content in listing order; non-text segments are
// dropped at the boundary.
type Message struct {
	ID        string
	Role      string
	CreatedAt int64 // unix seconds, as reported by the runtime
	Text      []string
}

// Runtime is the remote assistant boundary: thread lifecycle, message
// append, run execution and the tool-output resume protocol. Every method
// is a network call.
type Runtime interface {
	// CreateThread mints a new conversation thread and returns its handle.
	CreateThread(ctx context.Context) (string, error)

	// AddUserMessage appends text as a user turn to the thread's history.
	AddUserMessage(ctx context.Context, threadID, text string) error

	// CreateRun starts a run of the configured assistant on the thread.
	CreateRun(ctx context.Context, threadID string) (*Run, error)

	// GetRun fetches the current state of a run, including pending tool
	// calls when the run is suspended in requires_action.
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)

	// SubmitToolOutputs resumes a suspended run with one output per pending
	// tool call, submitted as a single batch.
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error

	// ListMessages returns the thread's messages.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
