package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dataloomhq/dataloom/internal/orchestrator"

// StartIteration opens the orchestrator.iteration span for one pass of
// the tool-calling loop.
func StartIteration(ctx context.Context, iteration int) (context.Context, trace.Span) {
	return GetTracer(tracerName).Start(ctx, "orchestrator.iteration",
		trace.WithAttributes(attribute.Int("dataloom.iteration", iteration)))
}

// StartToolExecute opens the tool.execute child span for a single tool
// dispatch.
func StartToolExecute(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return GetTracer(tracerName).Start(ctx, "tool.execute",
		trace.WithAttributes(attribute.String("dataloom.tool", toolName)))
}

// StartLLMCall opens the llm.chat_completion child span for one
// chat-completion request.
func StartLLMCall(ctx context.Context, model string) (context.Context, trace.Span) {
	return GetTracer(tracerName).Start(ctx, "llm.chat_completion",
		trace.WithAttributes(attribute.String("dataloom.model", model)))
}
