// ABOUTME: Resolves tool calls emitted by suspended assistant runs
// ABOUTME: Closed dispatch over supported operations, one output per call

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/2389/parley/internal/leads"
	"github.com/2389/parley/internal/runtime"
)

// Op identifies a supported tool operation. Dispatch is a closed set;
// unknown names are answered with a failure output rather than dropped.
type Op string

// OpGatherUserInfo captures the end user's contact details as a lead.
const OpGatherUserInfo Op = "gather_user_info"

// opFromName maps a tool-call name to a known Op.
func opFromName(name string) (Op, bool) {
	switch Op(name) {
	case OpGatherUserInfo:
		return OpGatherUserInfo, true
	}
	return "", false
}

// outcome is the structured payload submitted back to the assistant for
// each tool call. Exactly one of Message/Error is set.
type outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Resolver turns pending tool calls into tool outputs. Validation failures
// are reported back to the assistant, not the end user, so it can ask a
// follow-up question.
type Resolver struct {
	leads  *leads.Service
	logger *slog.Logger
}

// NewResolver creates a tool-call resolver backed by the lead service.
func NewResolver(leadSvc *leads.Service, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		leads:  leadSvc,
		logger: logger.With("component", "tools"),
	}
}

// Resolve produces exactly one output per call, in the order the calls were
// listed. A failure on one call never aborts its siblings.
func (r *Resolver) Resolve(ctx context.Context, telegramID string, calls []runtime.ToolCall) []runtime.ToolOutput {
	outputs := make([]runtime.ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, runtime.ToolOutput{
			CallID: call.ID,
			Output: marshalOutcome(r.resolveCall(ctx, telegramID, call)),
		})
	}
	return outputs
}

// resolveCall handles a single tool call.
func (r *Resolver) resolveCall(ctx context.Context, telegramID string, call runtime.ToolCall) outcome {
	op, known := opFromName(call.Name)
	if !known {
		r.logger.Warn("unsupported tool call", "name", call.Name, "call_id", call.ID)
		return outcome{Success: false, Error: fmt.Sprintf("Function '%s' is not supported", call.Name)}
	}

	r.logger.Info("processing tool call", "op", string(op), "call_id", call.ID, "telegram_id", telegramID)

	switch op {
	case OpGatherUserInfo:
		return r.gatherUserInfo(ctx, telegramID, call.Arguments)
	}

	// Unreachable while opFromName stays in sync with the switch
	return outcome{Success: false, Error: fmt.Sprintf("Function '%s' is not supported", call.Name)}
}

// gatherArgs is the wire shape of gather_user_info arguments.
type gatherArgs struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// gatherUserInfo validates and persists the lead described by rawArgs.
func (r *Resolver) gatherUserInfo(ctx context.Context, telegramID, rawArgs string) outcome {
	var args gatherArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		r.logger.Error("malformed tool call arguments", "error", err)
		return outcome{Success: false, Error: "Internal error processing function call"}
	}

	data := leads.Data{
		Name:  args.Name,
		Email: args.Email,
		Phone: args.PhoneNumber,
	}
	// additional_info is free-form JSON supplied by the assistant; keep the
	// raw value rather than forcing a schema on it
	if extra := gjson.Get(rawArgs, "additional_info"); extra.Exists() {
		data.Extra = extra.Raw
	}

	if errs := leads.Validate(data); len(errs) > 0 {
		return outcome{Success: false, Error: strings.Join(errs, ", ")}
	}

	lead, err := r.leads.Capture(ctx, telegramID, data)
	if err != nil {
		r.logger.Error("failed to store lead", "error", err, "telegram_id", telegramID)
		return outcome{Success: false, Error: "Failed to store lead information in the database"}
	}

	r.logger.Info("lead stored from tool call", "lead_id", lead.ID)
	return outcome{Success: true, Message: fmt.Sprintf("Successfully stored lead information for %s", args.Name)}
}

// marshalOutcome encodes an outcome for submission. Marshaling a plain
// struct of strings cannot fail, so errors are ignored.
func marshalOutcome(o outcome) string {
	data, _ := json.Marshal(o)
	return string(data)
}
