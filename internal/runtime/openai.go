// ABOUTME: OpenAI Assistants API implementation of the Runtime interface
// ABOUTME: Wraps the beta threads/runs endpoints of github.com/openai/openai-go

package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIRuntime implements Runtime against the OpenAI Assistants API.
// The assistant itself (instructions, model, tool schemas) is configured
// remotely; this client only drives threads and runs for it.
type OpenAIRuntime struct {
	client      openai.Client
	assistantID string
	logger      *slog.Logger
}

// NewOpenAIRuntime creates a runtime client for the given API key and
// assistant ID. baseURL overrides the API endpoint when non-empty (used in
// tests and for proxies).
func NewOpenAIRuntime(apiKey, assistantID, baseURL string) *OpenAIRuntime {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIRuntime{
		client:      openai.NewClient(opts...),
		assistantID: assistantID,
		logger:      slog.Default().With("component", "runtime"),
	}
}

// CreateThread mints a new conversation thread.
func (r *OpenAIRuntime) CreateThread(ctx context.Context) (string, error) {
	thread, err := r.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	r.logger.Debug("thread created", "thread_id", thread.ID)
	return thread.ID, nil
}

// AddUserMessage appends a user turn to the thread.
func (r *OpenAIRuntime) AddUserMessage(ctx context.Context, threadID, text string) error {
	_, err := r.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return fmt.Errorf("adding user message: %w", err)
	}
	return nil
}

// CreateRun starts a run of the configured assistant on the thread.
func (r *OpenAIRuntime) CreateRun(ctx context.Context, threadID string) (*Run, error) {
	run, err := r.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: r.assistantID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	r.logger.Debug("run created", "thread_id", threadID, "run_id", run.ID)
	return convertRun(run), nil
}

// GetRun fetches the current state of a run.
func (r *OpenAIRuntime) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	run, err := r.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return nil, fmt.Errorf("fetching run: %w", err)
	}
	return convertRun(run), nil
}

// SubmitToolOutputs resumes a suspended run with the full output batch.
func (r *OpenAIRuntime) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error {
	params := openai.BetaThreadRunSubmitToolOutputsParams{
		ToolOutputs: make([]openai.BetaThreadRunSubmitToolOutputsParamsToolOutput, 0, len(outputs)),
	}
	for _, out := range outputs {
		params.ToolOutputs = append(params.ToolOutputs, openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
			ToolCallID: openai.String(out.CallID),
			Output:     openai.String(out.Output),
		})
	}
	if _, err := r.client.Beta.Threads.Runs.SubmitToolOutputs(ctx, threadID, runID, params); err != nil {
		return fmt.Errorf("submitting tool outputs: %w", err)
	}
	r.logger.Debug("tool outputs submitted", "run_id", runID, "count", len(outputs))
	return nil
}

// ListMessages returns the thread's messages with text segments extracted.
func (r *OpenAIRuntime) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	page, err := r.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{})
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	messages := make([]Message, 0, len(page.Data))
	for _, msg := range page.Data {
		m := Message{
			ID:        msg.ID,
			Role:      string(msg.Role),
			CreatedAt: msg.CreatedAt,
		}
		for _, content := range msg.Content {
			// Only textual segments carry the reply; images etc. are dropped
			if content.Type == "text" {
				m.Text = append(m.Text, content.Text.Value)
			}
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// convertRun maps an API run to the local representation, lifting pending
// tool calls out of the required_action envelope.
func convertRun(run *openai.Run) *Run {
	converted := &Run{
		ID:     run.ID,
		Status: RunStatus(run.Status),
	}
	if run.Status == openai.RunStatusRequiresAction &&
		run.RequiredAction.Type == "submit_tool_outputs" {
		for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
	}
	return converted
}
