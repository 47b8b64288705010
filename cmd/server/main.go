package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/app"
	"github.com/iliyamo/movies-api/internal/config"
	"github.com/iliyamo/movies-api/internal/database"
	"github.com/iliyamo/movies-api/internal/logging"
	"github.com/iliyamo/movies-api/internal/repository"
)

const usage = `usage:
  server                                 run the HTTP API
  server seed-user <email> <password> [name]   create a user if the email is free`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Env, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	switch {
	case len(args) == 0 || args[0] == "serve":
		err = serve(ctx, cfg, logger)
	case args[0] == "seed-user":
		err = seedUser(ctx, cfg, logger, args[1:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

func seedUser(ctx context.Context, cfg config.Config, logger *zap.Logger, args []string) error {
	if len(args) < 2 {
		return errors.New(usage)
	}
	seed := config.SeedConfig{Email: args[0], Password: args[1], Name: cfg.Seed.Name}
	if len(args) > 2 {
		seed.Name = args[2]
	}

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	created, err := database.SeedUser(ctx, repository.NewUserRepo(db), seed, cfg.BcryptCost, logger)
	if err != nil {
		return err
	}
	if !created {
		logger.Info("user already exists", zap.String("email", seed.Email))
	}
	return nil
}
