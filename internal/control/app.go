// Package control assembles the proxy: database handle, result cache, token
// authority, gateway and HTTP server, with lifecycle management.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/vietddude/queryproxy/internal/api"
	"github.com/vietddude/queryproxy/internal/auth"
	"github.com/vietddude/queryproxy/internal/cache"
	"github.com/vietddude/queryproxy/internal/core/config"
	"github.com/vietddude/queryproxy/internal/executor"
	"github.com/vietddude/queryproxy/internal/gateway"
	"github.com/vietddude/queryproxy/internal/history"
)

// App is the running proxy instance.
type App struct {
	db     *sqlx.DB
	cache  cache.Store
	server *api.Server
	log    *slog.Logger
}

// NewApp initializes all dependencies from configuration.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default()

	db, err := executor.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	var recorder gateway.Recorder
	var source api.HistorySource
	if cfg.History.Enabled {
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		repo := history.NewRepo(db, log)
		recorder = repo
		source = repo
		log.Info("Query history enabled")
	}

	var store cache.Store
	if cfg.Cache.RedisURL != "" {
		store, err = cache.NewRedis(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis cache: %w", err)
		}
		log.Info("Using Redis result cache", "ttl", cfg.Cache.TTL)
	} else {
		store = cache.NewMemory(cfg.Cache.TTL)
		log.Info("Using in-memory result cache", "ttl", cfg.Cache.TTL)
	}

	creds := auth.NewStaticStore(cfg.Auth.Username, cfg.Auth.PasswordHash)
	authority := auth.NewAuthority(creds, []byte(cfg.Auth.Secret),
		time.Duration(cfg.Auth.TokenLifetimeMinutes)*time.Minute)

	exec := executor.New(db, log)
	gw := gateway.New(authority, exec, store, recorder, cfg.Retry, log)
	server := api.NewServer(authority, authority, gw, exec, source, cfg.Server.Port, log)

	return &App{
		db:     db,
		cache:  store,
		server: server,
		log:    log,
	}, nil
}

// Start launches the HTTP server.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts everything down gracefully.
func (a *App) Stop(ctx context.Context) error {
	if err := a.server.Stop(ctx); err != nil {
		return err
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close failed", "error", err)
	}
	return a.db.Close()
}
