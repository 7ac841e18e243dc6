// Package orchestrator implements the Chat Orchestrator (C8): the
// iterative tool-calling loop between the LLM Adapter and the Tool
// Registry. One Orchestrator is built once at startup and shared
// read-only across requests; all per-request state lives in a single
// run's call stack.
package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/llm"
	"github.com/dataloomhq/dataloom/internal/observability"
	"github.com/dataloomhq/dataloom/internal/prompt"
	"github.com/dataloomhq/dataloom/internal/tokens"
	"github.com/dataloomhq/dataloom/internal/tool"
)

// Config bounds one orchestrator run.
type Config struct {
	MaxToolIterations int
	WorkflowTimeout   time.Duration
	StorageMessageCap int
	TokenBudget       int
}

// Request is one /chat invocation's input, already validated by the
// HTTP surface (C9).
type Request struct {
	Message      string
	ChatHistory  []chatmodel.Message
	DatabasePath string
	Widgets      []chatmodel.WidgetSummary
}

// Response is what the HTTP surface serializes back to the client on
// success.
type Response struct {
	Message              string
	Usage                chatmodel.Usage
	ToolResults          []chatmodel.ToolResult
	Iterations           int
	ReachedMaxIterations bool
}

// TimeoutError signals the wall-clock deadline was exceeded.
type TimeoutError struct{}

func (TimeoutError) Error() string { return "orchestrator: workflow timed out" }

// AdapterError wraps a classified LLM Adapter failure so the HTTP
// surface can map it to the generic 503 the spec calls for without
// inspecting the adapter's own error type.
type AdapterError struct {
	Cause error
}

func (e *AdapterError) Error() string { return "orchestrator: llm adapter failed: " + e.Cause.Error() }
func (e *AdapterError) Unwrap() error { return e.Cause }

// Orchestrator runs the bounded tool-calling loop.
type Orchestrator struct {
	cfg       Config
	adapter   llm.Adapter
	tools     *tool.Registry
	metrics   *observability.Metrics
	modelName string
	now       func() time.Time
}

// New builds an Orchestrator. metrics may be nil (observability disabled).
// modelName is used only to label tracing spans.
func New(cfg Config, adapter llm.Adapter, tools *tool.Registry, metrics *observability.Metrics, modelName string) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		adapter:   adapter,
		tools:     tools,
		metrics:   metrics,
		modelName: modelName,
		now:       time.Now,
	}
}

// Run executes the loop described in SPEC_FULL.md/spec.md §4.8 for one
// request: build messages, call the LLM adapter, dispatch any requested
// tools, and repeat until the model stops calling tools, the iteration
// cap is hit, or the wall-clock deadline is breached.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Response, error) {
	start := o.now()
	deadline := start.Add(o.cfg.WorkflowTimeout)

	history := truncateHistory(req.ChatHistory, o.cfg.StorageMessageCap)

	defs := o.tools.Definitions()
	messages := []chatmodel.Message{
		{Role: chatmodel.RoleSystem, Content: prompt.Build(defs, start)},
	}
	messages = append(messages, history...)
	messages = append(messages, chatmodel.Message{Role: chatmodel.RoleUser, Content: req.Message})

	if o.cfg.TokenBudget > 0 {
		messages = tokens.TrimToBudget(messages, o.cfg.TokenBudget)
	}

	rc := &chatmodel.Context{DatabasePath: req.DatabasePath, Widgets: req.Widgets}

	var usage chatmodel.Usage
	var toolResults []chatmodel.ToolResult
	iteration := 0

	for iteration < o.cfg.MaxToolIterations {
		if o.now().After(deadline) {
			o.recordTermination("timeout")
			return Response{}, TimeoutError{}
		}
		iteration++

		result, err := o.callLLM(ctx, messages, defs, iteration)
		if err != nil {
			o.recordTermination("error")
			return Response{}, &AdapterError{Cause: err}
		}
		usage.Add(result.Usage)

		if len(result.ToolCalls) == 0 {
			o.recordTermination("completed")
			return Response{
				Message:     result.Message,
				Usage:       usage,
				ToolResults: toolResults,
				Iterations:  iteration,
			}, nil
		}

		messages = append(messages, chatmodel.Message{
			Role:      chatmodel.RoleAssistant,
			Content:   result.Message,
			ToolCalls: result.ToolCalls,
		})

		for _, call := range result.ToolCalls {
			toolResult := o.dispatchTool(ctx, rc, call)
			toolResults = append(toolResults, toolResult)
			messages = append(messages, toolResultMessage(toolResult))
		}
	}

	// Iteration cap reached: one final call without tools so the model
	// must answer in prose rather than keep requesting tool calls.
	final, err := o.adapter.CreateChatCompletion(ctx, messages, nil)
	if err != nil {
		o.recordTermination("error")
		return Response{}, &AdapterError{Cause: err}
	}
	usage.Add(final.Usage)
	o.recordTermination("max_iterations")

	return Response{
		Message:              final.Message,
		Usage:                usage,
		ToolResults:          toolResults,
		Iterations:           o.cfg.MaxToolIterations,
		ReachedMaxIterations: true,
	}, nil
}

func (o *Orchestrator) callLLM(ctx context.Context, messages []chatmodel.Message, defs []tool.Definition, iteration int) (llm.Result, error) {
	ctx, iterSpan := observability.StartIteration(ctx, iteration)
	defer iterSpan.End()

	llmCtx, llmSpan := observability.StartLLMCall(ctx, o.modelName)
	defer llmSpan.End()

	callStart := o.now()
	result, err := o.adapter.CreateChatCompletion(llmCtx, messages, defs)
	o.metrics.RecordLLMCall(time.Since(callStart))
	return result, err
}

func (o *Orchestrator) dispatchTool(ctx context.Context, rc *chatmodel.Context, call chatmodel.ToolCall) chatmodel.ToolResult {
	ctx, span := observability.StartToolExecute(ctx, call.Name)
	defer span.End()

	start := o.now()
	result := o.tools.Dispatch(ctx, rc, call)
	o.metrics.RecordToolCall(call.Name, time.Since(start))
	o.metrics.RecordToolIteration(call.Name)
	return result
}

func (o *Orchestrator) recordTermination(reason string) {
	o.metrics.RecordTermination(reason)
}

// toolResultMessage serializes the full ToolOutput (success/action/data
// or error) as the tool-role message content, so the model sees the
// same structured result the HTTP response's toolResults carries.
func toolResultMessage(tr chatmodel.ToolResult) chatmodel.Message {
	body, err := json.Marshal(tr.Result)
	if err != nil {
		body = []byte(tr.Result.Error)
	}
	return chatmodel.Message{Role: chatmodel.RoleTool, Content: string(body), ToolCallID: tr.ToolCallID}
}

// truncateHistory keeps only the last cap entries, preserving recency,
// per STORAGE_MESSAGE_LIMIT.
func truncateHistory(history []chatmodel.Message, cap int) []chatmodel.Message {
	if cap <= 0 || len(history) <= cap {
		return history
	}
	return history[len(history)-cap:]
}
