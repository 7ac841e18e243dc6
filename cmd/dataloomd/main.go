// Command dataloomd is the CLI entrypoint for the data-exploration chat
// backend.
//
// Usage:
//
//	dataloomd serve --config config.yaml
//	dataloomd validate-config --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve          ServeCmd          `cmd:"" help:"Start the HTTP server."`
	ValidateConfig ValidateConfigCmd `cmd:"" name:"validate-config" help:"Validate a configuration file and exit."`

	Config string `short:"c" env:"DATALOOM_CONFIG" help:"Path to YAML config file." type:"path"`
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("dataloomd"),
		kong.Description("dataloomd - data-exploration chat backend"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()
	return ctx, cancel
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
