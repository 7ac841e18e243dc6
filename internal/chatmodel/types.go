// Package chatmodel holds the wire-adjacent data model shared by the LLM
// Adapter, the Tool Registry/Implementations, and the Chat Orchestrator:
// Message, ToolCall, ToolResult, ToolOutput, per-request Context, and the
// widget/query shapes the tools operate on. Keeping these in one leaf
// package avoids an import cycle between llm, tool, and orchestrator.
package chatmodel

// Role identifies who authored a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in the conversation sent to/received from the LLM
// Adapter. ToolCalls is populated only on assistant messages that invoke
// tools; ToolCallID is populated only on tool-role messages carrying a
// result back for a specific call.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

// ToolCall is one invocation the model asked the engine to make.
// Arguments is the raw JSON string the provider returned, kept as-is so
// adapters/tests can round-trip the exact wire bytes.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult pairs a ToolOutput with the call that produced it.
type ToolResult struct {
	ToolCallID string     `json:"toolCallId"`
	Result     ToolOutput `json:"result"`
}

// ToolOutput is the tagged success/failure payload every tool returns.
// Exactly one of Data (success) or Error (failure) is meaningful,
// discriminated by Success.
type ToolOutput struct {
	Success       bool   `json:"success"`
	Action        string `json:"action"`
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	OriginalError string `json:"originalError,omitempty"`
}

// Success builds a successful ToolOutput.
func Success(action string, data any) ToolOutput {
	return ToolOutput{Success: true, Action: action, Data: data}
}

// Failure builds a failed ToolOutput. originalErr may be empty when there
// is no underlying error to preserve for logs.
func Failure(action, userMessage string, originalErr error) ToolOutput {
	out := ToolOutput{Success: false, Action: action, Error: userMessage}
	if originalErr != nil {
		out.OriginalError = originalErr.Error()
	}
	return out
}

// Usage accumulates token usage across every LLM Adapter call made
// during one request. Monotonically increasing.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates other into u in place.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// WidgetDimensions is a widget's grid footprint, 1..4 per axis.
type WidgetDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WidgetType enumerates the two kinds of dashboard widget the engine
// knows about.
type WidgetType string

const (
	WidgetTypeDataTable WidgetType = "data-table"
	WidgetTypeGraph     WidgetType = "graph"
)

// WidgetSummary is the caller-supplied, opaque-to-the-core view of one
// dashboard widget; the core never mutates it, only reads it (list_widgets)
// or proposes a new version of it (create_widget/edit_widget).
type WidgetSummary struct {
	ID            int              `json:"id"`
	Title         string           `json:"title"`
	Type          WidgetType       `json:"type"`
	Query         string           `json:"query"`
	Dimensions    WidgetDimensions `json:"dimensions"`
	HasResults    bool             `json:"hasResults"`
	ChartFunction string           `json:"chartFunction,omitempty"`
}

// Context is the per-request, read-only bundle shared by reference with
// every tool invoked while handling one /chat request. It is never
// mutated by a tool.
type Context struct {
	DatabasePath string
	Widgets      []WidgetSummary
}

// QueryResult is the paginated, column-ordered result of executing one
// validated SELECT.
type QueryResult struct {
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	TotalRows  int      `json:"totalRows"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
	HasMore    bool     `json:"hasMore"`
}
