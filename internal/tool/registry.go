package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/registry"
)

// Registry is the process-wide, insertion-ordered set of registered
// tools. It is built once at startup and never mutated afterward - the
// orchestrator and system-prompt builder both depend on its ordering
// being stable across requests.
type Registry struct {
	inner *registry.Registry[Tool]
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{inner: registry.New[Tool]()}
}

// Register adds t under its declared name. Returns an error on an
// empty or duplicate name.
func (r *Registry) Register(t Tool) error {
	name := t.Definition().Name
	if name == "" {
		return fmt.Errorf("tool: cannot register a tool with an empty name")
	}
	return r.inner.Register(name, t)
}

// Definitions returns every registered tool's Definition in
// registration order, for the system-prompt builder and the wire-level
// tools[] catalog sent to the LLM provider.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, r.inner.Count())
	for _, t := range r.inner.List() {
		defs = append(defs, t.Definition())
	}
	return defs
}

// Dispatch resolves call.Name and runs it, translating an unknown tool
// name and malformed argument JSON into the same ToolOutput failure
// shape a tool's own Execute would produce, so the orchestrator's
// per-call handling never needs a separate code path for either.
func (r *Registry) Dispatch(ctx context.Context, rc *chatmodel.Context, call chatmodel.ToolCall) chatmodel.ToolResult {
	t, ok := r.inner.Get(call.Name)
	if !ok {
		return chatmodel.ToolResult{
			ToolCallID: call.ID,
			Result:     chatmodel.Failure("tool_error", fmt.Sprintf("Tool '%s' not found", call.Name), nil),
		}
	}

	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		raw = "{}"
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return chatmodel.ToolResult{
			ToolCallID: call.ID,
			Result:     chatmodel.Failure("parse_error", "Invalid tool arguments", err),
		}
	}

	return chatmodel.ToolResult{
		ToolCallID: call.ID,
		Result:     t.Execute(ctx, rc, args),
	}
}
