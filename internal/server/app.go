// Package server wires configuration, storage, the lockout store and the
// REST API together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server/auth"
	"github.com/codesleeps/palmers/internal/server/config"
	"github.com/codesleeps/palmers/internal/server/httpx"
	"github.com/codesleeps/palmers/internal/server/lockout"
	"github.com/codesleeps/palmers/internal/server/repositories/repomanager"
	"github.com/codesleeps/palmers/internal/server/services"
	"golang.org/x/sync/errgroup"
)

// generatedSecretBytes is the size of the per-process secret used when the
// development opt-in allows running without one.
const generatedSecretBytes = 32

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	closers []func() error
	server  *httpx.Server
}

// NewApp opens the database, applies migrations and builds the HTTP stack.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.Debug)

	secret, err := signingSecret(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: c, logger: logger, db: db, closers: []func() error{db.Close}}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close(ctx)
		return nil, err
	}

	lockouts, closeStore, err := OpenLockoutStore(ctx, c.RedisURL, logger)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	tokens, err := auth.NewTokenCodec(secret, c.TokenTTL)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("token codec: %w", err)
	}

	us := services.NewUserService(db, rm, auth.NewPasswordHasher(auth.DefaultHashCost), tokens, lockouts, c, logger)
	cs := services.NewCompetitorService(db, rm, logger)

	cookies := auth.CookieWriter{Secure: c.IsProduction(), MaxAge: c.TokenTTL}
	handler := httpx.NewHandler(us, cs, cookies, c.Environment, logger)
	router := httpx.NewRouter(handler, httpx.NewAuthenticator(us, logger),
		httpx.RouterOptions{CORSOrigins: c.AllowedOrigins(), Production: c.IsProduction()}, logger)

	app.server = httpx.NewServer(c.HTTPAddr, router, logger)
	return app, nil
}

// signingSecret returns the configured secret, or a random one when the
// development opt-in is in effect.
func signingSecret(ctx context.Context, c *config.Config, logger logging.Logger) ([]byte, error) {
	if c.SecretKey != "" {
		return []byte(c.SecretKey), nil
	}
	if !c.InsecureSecretAllowed() {
		return nil, config.ErrMissingSecret
	}
	s, err := common.MakeRandHexString(generatedSecretBytes)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	logger.Warn(ctx, "JWT_SECRET not set; using a random per-process secret, sessions will not survive a restart")
	return []byte(s), nil
}

// OpenLockoutStore returns a Redis-backed store when redisURL is set and an
// in-memory one otherwise. The returned func releases the connection.
func OpenLockoutStore(ctx context.Context, redisURL string, logger logging.Logger) (lockout.Store, func() error, error) {
	if redisURL == "" {
		logger.Info(ctx, "login lockout state kept in memory")
		return lockout.NewMemoryStore(), func() error { return nil }, nil
	}

	client, err := lockout.Connect(redisURL)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "login lockout state kept in redis")
	return lockout.NewRedisStore(client), client.Close, nil
}

// watchSignals cancels the run when a signal arrives on sigs and returns once
// either that happens or ctx ends.
func (app *App) watchSignals(ctx context.Context, sigs <-chan os.Signal, cancel context.CancelFunc) error {
	select {
	case sig := <-sigs:
		app.logger.Info(ctx, "shutdown signal received", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}
	return nil
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// releases the database and lockout store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigs)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.watchSignals(gctx, sigs, cancelFunc)
	})
	g.Go(func() error {
		return app.server.Run(gctx)
	})

	err := g.Wait()
	app.close(ctx)
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}
	return err
}

func (app *App) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(ctx, "close failed", "error", err)
		}
	}
	app.closers = nil
}
