package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sjsage522/listingworker/cmd"
	"sjsage522/listingworker/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Default.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal, finishing current page")
			cancel()
		case <-ctx.Done():
		}
	}()

	cmd.ExecuteContext(ctx)
}
