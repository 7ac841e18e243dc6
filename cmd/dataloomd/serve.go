package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dataloomhq/dataloom/internal/config"
	"github.com/dataloomhq/dataloom/internal/httpapi"
	"github.com/dataloomhq/dataloom/internal/llm"
	"github.com/dataloomhq/dataloom/internal/logging"
	"github.com/dataloomhq/dataloom/internal/observability"
	"github.com/dataloomhq/dataloom/internal/orchestrator"
	"github.com/dataloomhq/dataloom/internal/tool"
)

// serveShutdownGrace bounds how long in-flight requests get to finish
// once a shutdown signal arrives.
const serveShutdownGrace = 15 * time.Second

// requestGraceMargin is added on top of the orchestrator's own workflow
// deadline so a /chat call that legitimately times out internally gets
// the chance to produce that response before the router's own timeout
// middleware cuts the connection.
const requestGraceMargin = 5 * time.Second

// ServeCmd starts the HTTP server.
type ServeCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		fatalf("failed to load configuration: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fatalf("invalid log level: %v", err)
	}
	logging.Init(level, os.Stderr, cfg.LogFormat)
	logger := logging.Default()

	if cli.Config != "" {
		watcher, err := config.NewWatcher(cli.Config, func(reloaded *config.Config) {
			newLevel, err := logging.ParseLevel(reloaded.LogLevel)
			if err != nil {
				logger.Warn("config reload: invalid log level, keeping previous", "error", err)
				return
			}
			logging.Init(newLevel, os.Stderr, reloaded.LogFormat)
			logger = logging.Default()
			logger.Info("config reloaded", "log_level", reloaded.LogLevel, "log_format", reloaded.LogFormat)
		})
		if err != nil {
			logger.Warn("config: failed to start watcher, hot-reload disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	manager, err := observability.NewManager(ctx, observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		TracingEnabled: cfg.Observability.TracingEnabled,
		SamplingRate:   cfg.Observability.SamplingRate,
		MetricsEnabled: cfg.Observability.MetricsEnabled,
	})
	if err != nil {
		fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Error("observability shutdown failed", "error", err)
		}
	}()

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		fatalf("failed to create uploads directory %s: %v", cfg.UploadsDir, err)
	}

	registry := buildToolRegistry()
	adapter := llm.NewOpenAIAdapter(cfg.LLM)

	orc := orchestrator.New(orchestrator.Config{
		MaxToolIterations: cfg.Orchestrator.MaxToolIterations,
		WorkflowTimeout:   cfg.Orchestrator.WorkflowTimeout(),
		StorageMessageCap: cfg.Orchestrator.StorageMessageCap,
		TokenBudget:       cfg.Orchestrator.TokenBudget,
	}, adapter, registry, manager.Metrics(), cfg.LLM.Model)

	server := &httpapi.Server{
		Orchestrator:   orc,
		Metrics:        manager.Metrics(),
		UploadsDir:     cfg.UploadsDir,
		RequestTimeout: cfg.Orchestrator.WorkflowTimeout() + requestGraceMargin,
		MaxMessageLen:  cfg.Orchestrator.MaxMessageLen,
		MaxHistoryLen:  cfg.Orchestrator.MaxChatHistoryLen,
		Logger:         logger,
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dataloomd listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serveShutdownGrace)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("dataloomd stopped")
	return nil
}

// buildToolRegistry registers every tool the Chat Orchestrator may
// invoke: schema introspection, widget listing, read-only SQL
// execution, and widget creation/editing.
func buildToolRegistry() *tool.Registry {
	registry := tool.NewRegistry()
	tools := []tool.Tool{
		tool.NewSchemaInfoTool(),
		tool.NewListWidgetsTool(),
		tool.NewSQLQueryTool(),
		tool.NewCreateWidgetTool(),
		tool.NewEditWidgetTool(),
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			slog.Error("failed to register tool", "tool", t.Definition().Name, "error", err)
		}
	}
	return registry
}
