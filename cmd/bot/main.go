package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/app"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New()
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting bot")
	if err := a.Start(ctx); err != nil {
		logger.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
