package main

import (
	"context"
	"fmt"
	"os"

	"github.com/codesleeps/palmers/internal/admin"
	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server"
	"github.com/codesleeps/palmers/internal/server/auth"
	"github.com/codesleeps/palmers/internal/server/config"
	"github.com/codesleeps/palmers/internal/server/repositories/repomanager"
	"github.com/codesleeps/palmers/internal/server/services"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.NewJSONLogger(os.Stderr, cfg.Debug)

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return err
	}

	lockouts, closeStore, err := server.OpenLockoutStore(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// no token codec: account maintenance never signs sessions
	accounts := services.NewUserService(db, rm, auth.NewPasswordHasher(auth.DefaultHashCost), nil, lockouts, cfg, logger)

	return admin.NewApp(accounts, os.Stdout).Run(ctx, os.Args[1:])
}
