package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fixme-backend/internal/shared/config"
	"fixme-backend/internal/shared/server"
	"fixme-backend/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	telemetry.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
