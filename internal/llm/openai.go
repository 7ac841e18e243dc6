package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/config"
	"github.com/dataloomhq/dataloom/internal/httpclient"
	"github.com/dataloomhq/dataloom/internal/tool"
)

// OpenAIAdapter talks to any OpenAI-compatible chat-completions endpoint.
// Credential presence is validated once by config.LLMConfig.Validate at
// startup; the constructor here does not repeat that check.
type OpenAIAdapter struct {
	cfg    config.LLMConfig
	client *httpclient.Client
}

// NewOpenAIAdapter builds an adapter from an already-validated LLMConfig.
func NewOpenAIAdapter(cfg config.LLMConfig) *OpenAIAdapter {
	return &OpenAIAdapter{
		cfg: cfg,
		client: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIRateLimitHeaders),
		),
	}
}

type openAIRequest struct {
	Model               string          `json:"model"`
	Messages            []openAIMessage `json:"messages"`
	MaxTokens           int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         float64         `json:"temperature"`
	Tools               []openAITool    `json:"tools,omitempty"`
	ToolChoice          string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIResponse struct {
	Choices []openAIChoice  `json:"choices"`
	Usage   openAIUsage     `json:"usage"`
	Error   *openAIAPIError `json:"error,omitempty"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// CreateChatCompletion sends one non-streaming chat-completion request
// and translates the result back into chatmodel/llm types.
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, messages []chatmodel.Message, tools []tool.Definition) (Result, error) {
	body, err := json.Marshal(a.buildRequest(messages, tools))
	if err != nil {
		return Result{}, &Error{Class: ErrUnknown, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, &Error{Class: ErrUnknown, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, httpErr := a.client.Do(req)
	if resp == nil {
		return Result{}, classifyTransportError(nil, httpErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &Error{Class: ErrNetwork, Message: "failed to read response body", Cause: err}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if httpErr != nil {
			return Result{}, classifyTransportError(resp, httpErr)
		}
		return Result{}, &Error{Class: ErrUnknown, Message: "failed to decode response", Cause: err}
	}
	if parsed.Error != nil {
		return Result{}, classifyAPIError(resp.StatusCode, parsed.Error)
	}
	if httpErr != nil {
		return Result{}, classifyTransportError(resp, httpErr)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, &Error{Class: ErrUnknown, Message: "no choices returned"}
	}

	choice := parsed.Choices[0]

	return Result{
		Message:   choice.Message.Content,
		ToolCalls: convertToolCalls(choice.Message.ToolCalls),
		Usage: chatmodel.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}

func (a *OpenAIAdapter) buildRequest(messages []chatmodel.Message, tools []tool.Definition) openAIRequest {
	wireMessages := make([]openAIMessage, len(messages))
	for i, m := range messages {
		wm := openAIMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
		if len(m.ToolCalls) > 0 {
			wm.ToolCalls = make([]openAIToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				wm.ToolCalls[j] = openAIToolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: openAIFunctionCall{Name: tc.Name, Arguments: tc.Arguments},
				}
			}
		}
		wireMessages[i] = wm
	}

	req := openAIRequest{
		Model:       a.cfg.Model,
		Messages:    wireMessages,
		Temperature: a.cfg.Temperature,
	}

	if strings.HasPrefix(a.cfg.Model, "o1-") || strings.HasPrefix(a.cfg.Model, "o3-") {
		req.MaxCompletionTokens = a.cfg.MaxTokens
	} else {
		req.MaxTokens = a.cfg.MaxTokens
	}

	if len(tools) > 0 {
		req.Tools = make([]openAITool, len(tools))
		for i, t := range tools {
			req.Tools[i] = openAITool{
				Type: "function",
				Function: openAIToolFunction{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.ParameterSchema,
				},
			}
		}
		req.ToolChoice = "auto"
	}

	return req
}

func convertToolCalls(calls []openAIToolCall) []chatmodel.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]chatmodel.ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = chatmodel.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
	}
	return out
}

func classifyTransportError(resp *http.Response, err error) error {
	if retryErr, ok := err.(*httpclient.RetryableError); ok {
		return &Error{Class: classifyStatus(retryErr.StatusCode), Message: retryErr.Message, Cause: retryErr}
	}
	if resp != nil {
		return &Error{Class: classifyStatus(resp.StatusCode), Message: "request failed", Cause: err}
	}
	return &Error{Class: ErrNetwork, Message: "request failed", Cause: err}
}

func classifyAPIError(statusCode int, apiErr *openAIAPIError) error {
	class := classifyStatus(statusCode)
	if apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota" {
		class = ErrQuotaExceeded
	}
	return &Error{Class: class, Message: apiErr.Message}
}

func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrAuth
	case statusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case statusCode == http.StatusPaymentRequired:
		return ErrQuotaExceeded
	case statusCode >= 500:
		return ErrServer
	case statusCode >= 400:
		return ErrClient
	case statusCode == 0:
		return ErrNetwork
	default:
		return ErrUnknown
	}
}
