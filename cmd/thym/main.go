// Package main is the entry point for the thym plugin installer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DSS32/thym/internal/project"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Cancelling stops the running operation at its next checkpoint.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		st := project.StatusFromError(err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", st)
		if st.Cause != nil && st.Cause.Error() != st.Message {
			fmt.Fprintf(os.Stderr, "  cause: %v\n", st.Cause)
		}
		return 1
	}
	return 0
}
