// Package httpapi implements the HTTP Surface (C9) and the HTTP Router
// (D2): a go-chi mux exposing POST /chat, POST /query, GET /schema, and
// GET /metrics, with request-id/recoverer/timeout middleware matching
// the teacher's transport layer conventions.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataloomhq/dataloom/internal/observability"
	"github.com/dataloomhq/dataloom/internal/orchestrator"
)

const tracerName = "github.com/dataloomhq/dataloom/internal/httpapi"

// Server bundles the dependencies the HTTP handlers need.
type Server struct {
	Orchestrator   *orchestrator.Orchestrator
	Metrics        *observability.Metrics
	UploadsDir     string
	RequestTimeout time.Duration
	MaxMessageLen  int
	MaxHistoryLen  int
	Logger         *slog.Logger
}

// Router builds the chi mux. Timeout is the workflow deadline plus a
// small grace margin, so a request that legitimately hits the
// orchestrator's own 408 still gets a chance to produce that response
// instead of being cut off by the router first.
func (s *Server) Router() http.Handler {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)
	r.Use(middleware.Timeout(s.RequestTimeout))

	r.Post("/chat", s.handleChat)
	r.Post("/query", s.handleQuery)
	r.Get("/schema", s.handleSchema)
	r.Get("/metrics", s.Metrics.Handler().ServeHTTP)

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
// written, defaulting to 200 if the handler never calls WriteHeader.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// metricsMiddleware opens an OTel span per request and records one
// Prometheus observation, labeled by the chi route pattern rather than
// the raw path so two requests to different filenames don't create
// distinct label series.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		tracer := observability.GetTracer(tracerName)
		ctx, span := tracer.Start(r.Context(), "http.request", trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
			attribute.String("http.user_agent", r.UserAgent()),
		))
		defer span.End()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		duration := time.Since(start)
		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}

		span.SetAttributes(attribute.Int("http.status_code", wrapped.statusCode))
		if wrapped.statusCode >= 500 {
			span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
		} else {
			span.SetStatus(codes.Ok, http.StatusText(wrapped.statusCode))
		}

		s.Metrics.RecordHTTPRequest(r.Method, pattern, http.StatusText(wrapped.statusCode), duration)
	})
}
