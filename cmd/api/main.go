package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wallet-ledger/config"
	"wallet-ledger/internal/app"
	"wallet-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("WLG_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Ledger")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		stop()
		os.Exit(1)
	}

	log.Info().Msg("Server exited")
}
