package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"wallet-ledger/config"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	"wallet-ledger/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fmt.Println("Error: migration command is required")
		fmt.Println("Usage: migrate [-config file] [command] [args]")
		fmt.Println("Commands: up, down, status, redo, version")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := pgStorage.RunMigrations(ctx, cfg.Database.DSN(), args[0], log); err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("Migration failed")
		cancel()
		os.Exit(1)
	}

	log.Info().Str("command", args[0]).Msg("Migration finished")
}
