package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pagesmith/internal/auth"
	"pagesmith/internal/config"
	"pagesmith/internal/content"
	"pagesmith/internal/database"
	"pagesmith/internal/gateway"
	"pagesmith/internal/handlers"
	"pagesmith/internal/middleware"
	"pagesmith/internal/router"
	"pagesmith/internal/storage"
	"pagesmith/internal/validate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  "Connects to PostgreSQL and Valkey, applies pending migrations and serves the JSON API until SIGINT or SIGTERM.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr(), "memory", memoryMode)

	ctx := context.Background()
	b, err := openBackend(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.db != nil {
		if err := database.Migrate(b.db); err != nil {
			return err
		}
		// Development databases get the admin account and built-in themes.
		if cfg.IsDev() {
			if err := database.Seed(ctx, b.records, seedOptions(cfg)); err != nil {
				return err
			}
		}
	}

	// Object storage is optional; media uploads answer 503 without it.
	var blobs handlers.Blobs
	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return err
	}
	if storageClient != nil {
		blobs = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	} else {
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	authSvc := auth.NewService(b.records, b.sessions)
	gw := gateway.New(b.records, authSvc)
	themes := b.themeService()
	if err := themes.Load(ctx, nil); err != nil {
		slog.Warn("initial theme load failed, retrying on first request", "error", err)
	}

	secureCookies := !cfg.IsDev()
	api := handlers.New(handlers.Deps{
		Auth:          authSvc,
		Themes:        themes,
		Content:       content.NewService(b.records),
		Records:       b.records,
		Blobs:         blobs,
		Locale:        validate.Language(cfg.Locale),
		SecureCookies: secureCookies,
	})

	// 10 sign-in attempts per minute per client IP.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.New(gw, api, router.Options{
			SecureCookies: secureCookies,
			LoginLimiter:  loginLimiter,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}
