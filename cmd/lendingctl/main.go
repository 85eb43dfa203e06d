// Package main provides lendingctl, the operations tool of the library lending core.
// It migrates the database schema and runs the overdue and due date notification sweeps.
//
// Configuration is read from LENDING_* environment variables, see package config.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
