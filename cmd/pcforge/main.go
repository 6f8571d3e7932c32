// Package main implements the pcforge CLI: a process that watches a tree
// of .pc sources and serves their live preview/mutation adapters over
// NATS.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/pcforge/config"
)

// Build information (set via ldflags).
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		sourceRoot string
		natsURL    string
		devMode    bool
	)

	rootCmd := &cobra.Command{
		Use:   "pcforge [source-root]",
		Short: "Live preview engine for .pc declarative documents",
		Long: `pcforge watches a tree of .pc source files, evaluates and diffs their
rendered output on every change, and serves the resulting patch stream to
editor/preview clients over NATS.`,
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				sourceRoot = args[0]
			}
			return runServe(cmd.Context(), sourceRoot, natsURL, devMode)
		},
	}

	rootCmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL (default: embedded)")
	rootCmd.Flags().BoolVar(&devMode, "dev", false, "enable author-facing diagnostics (index-fallback repeat-key warnings, etc.)")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func runServe(ctx context.Context, sourceRoot, natsURL string, devMode bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	loader := config.NewLoader(logger)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if sourceRoot != "" {
		cfg.Source.Root = sourceRoot
	}
	if natsURL != "" {
		cfg.NATS.URL = natsURL
		cfg.NATS.Embedded = false
	}
	if devMode {
		cfg.Dev.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer app.Shutdown(5 * time.Second)

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start app: %w", err)
	}

	<-ctx.Done()
	return nil
}
