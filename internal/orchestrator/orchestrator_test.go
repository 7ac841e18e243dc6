package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/llm"
	"github.com/dataloomhq/dataloom/internal/tool"
)

type stubAdapter struct {
	calls     int
	responses []llm.Result
	err       error
}

func (s *stubAdapter) CreateChatCompletion(ctx context.Context, messages []chatmodel.Message, tools []tool.Definition) (llm.Result, error) {
	if s.err != nil {
		return llm.Result{}, s.err
	}
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		return s.responses[len(s.responses)-1], nil
	}
	return s.responses[idx], nil
}

type echoTool struct{}

func (echoTool) Definition() tool.Definition {
	return tool.Definition{Name: "echo", Description: "echo", ParameterSchema: map[string]any{"type": "object"}}
}

func (echoTool) Execute(ctx context.Context, rc *chatmodel.Context, args map[string]any) chatmodel.ToolOutput {
	return chatmodel.Success("echoed", args)
}

func newRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	if err := r.Register(echoTool{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func baseConfig() Config {
	return Config{MaxToolIterations: 10, WorkflowTimeout: 5 * time.Minute, StorageMessageCap: 200}
}

func TestRun_NoToolCallsReturnsImmediately(t *testing.T) {
	adapter := &stubAdapter{responses: []llm.Result{
		{Message: "hello there", Usage: chatmodel.Usage{TotalTokens: 10}},
	}}
	orc := New(baseConfig(), adapter, newRegistry(t), nil, "test-model")

	resp, err := orc.Run(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "hello there" || resp.Iterations != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRun_DispatchesToolCallsAndContinues(t *testing.T) {
	adapter := &stubAdapter{responses: []llm.Result{
		{ToolCalls: []chatmodel.ToolCall{{ID: "1", Name: "echo", Arguments: `{"x":1}`}}},
		{Message: "done"},
	}}
	orc := New(baseConfig(), adapter, newRegistry(t), nil, "test-model")

	resp, err := orc.Run(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "done" || resp.Iterations != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.ToolResults) != 1 || resp.ToolResults[0].Result.Action != "echoed" {
		t.Fatalf("unexpected tool results: %+v", resp.ToolResults)
	}
}

func TestRun_UnknownToolRecordsToolErrorAndContinues(t *testing.T) {
	adapter := &stubAdapter{responses: []llm.Result{
		{ToolCalls: []chatmodel.ToolCall{{ID: "1", Name: "nonexistent", Arguments: `{}`}}},
		{Message: "done"},
	}}
	orc := New(baseConfig(), adapter, newRegistry(t), nil, "test-model")

	resp, err := orc.Run(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ToolResults) != 1 || resp.ToolResults[0].Result.Action != "tool_error" {
		t.Fatalf("expected tool_error, got %+v", resp.ToolResults)
	}
}

func TestRun_ReachesMaxIterationsAndMakesFinalToollessCall(t *testing.T) {
	responses := make([]llm.Result, 0, 10)
	for i := 0; i < 10; i++ {
		responses = append(responses, llm.Result{
			ToolCalls: []chatmodel.ToolCall{{ID: "1", Name: "echo", Arguments: `{}`}},
		})
	}
	adapter := &stubAdapter{responses: responses}
	cfg := baseConfig()
	cfg.MaxToolIterations = 3

	orc := New(cfg, adapter, newRegistry(t), nil, "test-model")
	resp, err := orc.Run(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.ReachedMaxIterations || resp.Iterations != 3 {
		t.Fatalf("expected max-iterations response, got %+v", resp)
	}
}

func TestRun_LLMFailureReturnsAdapterError(t *testing.T) {
	adapter := &stubAdapter{err: errors.New("boom")}
	orc := New(baseConfig(), adapter, newRegistry(t), nil, "test-model")

	_, err := orc.Run(context.Background(), Request{Message: "hi"})
	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("expected *AdapterError, got %T (%v)", err, err)
	}
}

func TestRun_TimeoutBeforeFirstIteration(t *testing.T) {
	adapter := &stubAdapter{responses: []llm.Result{{Message: "should not be reached"}}}
	cfg := baseConfig()
	cfg.WorkflowTimeout = -1 * time.Second

	orc := New(cfg, adapter, newRegistry(t), nil, "test-model")
	_, err := orc.Run(context.Background(), Request{Message: "hi"})
	if _, ok := err.(TimeoutError); !ok {
		t.Fatalf("expected TimeoutError, got %T (%v)", err, err)
	}
}

func TestTruncateHistory_KeepsLastNEntries(t *testing.T) {
	history := make([]chatmodel.Message, 5)
	for i := range history {
		history[i] = chatmodel.Message{Role: chatmodel.RoleUser, Content: "msg"}
	}
	out := truncateHistory(history, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
}
