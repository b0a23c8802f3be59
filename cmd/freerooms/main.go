package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"freerooms/cmd/freerooms/commands"
	appLog "freerooms/internal/log"
)

// Version information (set via ldflags during build)
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := commands.Execute(ctx, Version, Commit); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}
