package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbsmedya/zoneaudit/internal/logger"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM. The chunk in flight
// completes before the analysis stops.
func signalContext(parent context.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Warn("Received shutdown signal - finishing current chunk...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
