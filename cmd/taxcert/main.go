package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/internal/cli"
)

func main() {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		// A second signal falls through to the default handler
		stop()
		log.Warn().Msg("Interrupt received, shutting down gracefully...")
	}()

	// Execute CLI (app initialization happens inside cli.Execute)
	cli.Execute(ctx)
}
