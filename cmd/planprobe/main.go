package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/planprobe/planprobe/cmd/planprobe/cmd"
	"github.com/planprobe/planprobe/internal/setup"
)

func main() {
	// SIGINT/SIGTERM cancel the context, aborting the in-flight query.
	// Results already stored stay stored.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		// Installer failures carry the installer's own exit status; everything
		// else maps to 1.
		os.Exit(setup.ExitCode(err))
	}
}
