package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/azmilabs/tutor-agent/internal/builder"
	"go.uber.org/zap"
)

func main() {
	app, logger, err := builder.BuildTutorCLI()
	if err != nil {
		log.Fatal("Failed to build tutor CLI:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal",
			zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Error("tutor CLI error",
				zap.Error(err))
			cancel()
			os.Exit(1)
		}
	}
}
