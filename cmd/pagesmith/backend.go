package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pagesmith/internal/auth"
	"pagesmith/internal/cache"
	"pagesmith/internal/config"
	"pagesmith/internal/database"
	"pagesmith/internal/gateway"
	"pagesmith/internal/session"
	"pagesmith/internal/theme"
)

// backend is the storage the commands run against: PostgreSQL and Valkey,
// or the in-memory gateway with --memory.
type backend struct {
	records  gateway.Records
	sessions auth.Sessions
	css      theme.Cache

	db     *sql.DB
	valkey *redis.Client
}

// openBackend connects to the configured stores. withValkey also connects
// the session store and the stylesheet cache; commands that only read
// records skip it.
func openBackend(ctx context.Context, cfg *config.Config, withValkey bool) (*backend, error) {
	if memoryMode {
		mem := gateway.NewMemory()
		if err := database.Seed(ctx, mem, seedOptions(cfg)); err != nil {
			return nil, err
		}
		slog.Warn("running on the in-memory gateway, data is lost on exit")
		return &backend{records: mem, sessions: session.NewMemoryStore(cfg.SessionTTL)}, nil
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	b := &backend{records: gateway.NewPostgres(db), db: db}
	if !withValkey {
		return b, nil
	}

	client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect valkey: %w", err)
	}
	b.valkey = client
	b.sessions = session.NewStore(client, cfg.SessionTTL)
	b.css = cache.NewStylesheetCache(client, cfg.StylesheetTTL)
	return b, nil
}

func (b *backend) Close() error {
	var errs []error
	if b.valkey != nil {
		errs = append(errs, b.valkey.Close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	return errors.Join(errs...)
}

// themeService builds a theme service over the backend. css stays a nil
// interface without Valkey.
func (b *backend) themeService() *theme.Service {
	return theme.NewService(b.records, nil, b.css)
}

func seedOptions(cfg *config.Config) database.SeedOptions {
	return database.SeedOptions{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword}
}

// commandContext bounds the one-shot commands.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}
