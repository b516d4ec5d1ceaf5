// Command newslens-ctl operates a running newslens automation over its control surface
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"newslens/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Named("ctl").Error().Err(err).Msg("newslens-ctl failed")
		stop()
		os.Exit(1)
	}
}
