// Package llm implements the LLM Adapter (C7): a single OpenAI-wire-format
// chat-completion client the Chat Orchestrator calls once per iteration,
// translating between chatmodel's provider-agnostic types and the
// provider's wire format, and classifying every failure into a small
// taxonomy the orchestrator can react to without knowing provider details.
package llm

import (
	"context"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/tool"
)

// ErrorClass categorizes a CreateChatCompletion failure so the caller can
// decide whether to retry, fail the request, or surface a user-facing
// message without inspecting provider-specific status codes or bodies.
type ErrorClass string

const (
	ErrQuotaExceeded ErrorClass = "QUOTA_EXCEEDED"
	ErrRateLimited   ErrorClass = "RATE_LIMITED"
	ErrAuth          ErrorClass = "AUTH_ERROR"
	ErrNetwork       ErrorClass = "NETWORK_ERROR"
	ErrServer        ErrorClass = "SERVER_ERROR"
	ErrClient        ErrorClass = "CLIENT_ERROR"
	ErrUnknown       ErrorClass = "UNKNOWN_ERROR"
)

// Error wraps a classified adapter failure.
type Error struct {
	Class   ErrorClass
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return "llm: " + string(e.Class) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return "llm: " + string(e.Class) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Result is one chat-completion response: the assistant's text (may be
// empty when the model only calls tools), the tool calls it asked for,
// and the token usage charged for this single call.
type Result struct {
	Message   string
	ToolCalls []chatmodel.ToolCall
	Usage     chatmodel.Usage
}

// Adapter is the contract the Chat Orchestrator (C8) depends on. A
// concrete adapter owns retry/backoff and wire-format translation; the
// orchestrator only ever sees chatmodel types and a classified error.
type Adapter interface {
	CreateChatCompletion(ctx context.Context, messages []chatmodel.Message, tools []tool.Definition) (Result, error)
}
