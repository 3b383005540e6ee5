// Package main is the entry point for the review-bridge CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/runoshun/review-bridge/internal/app"
	"github.com/runoshun/review-bridge/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

// newRootCommand is a function variable so tests can replace the command tree.
var newRootCommand = cli.NewRootCommand

func main() {
	os.Exit(exitCode(run(), os.Stderr))
}

func run() error {
	// SIGINT/SIGTERM cancel the running worker
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	rootCmd := newRootCommand(container, version)
	return rootCmd.ExecuteContext(ctx)
}

// exitCode prints err to w and returns the process exit status.
// Errors already written by the command are not printed again.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if !errors.Is(err, cli.ErrReported) {
		_, _ = fmt.Fprintln(w, err)
	}
	return 1
}
