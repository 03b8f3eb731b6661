// Package main запускает HTTP-сервер магазина CUENTY.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/cuenty/internal/backend"
	"github.com/mmeshcher/cuenty/internal/cache"
	"github.com/mmeshcher/cuenty/internal/config"
	"github.com/mmeshcher/cuenty/internal/handler"
	"github.com/mmeshcher/cuenty/internal/middleware"
	"github.com/mmeshcher/cuenty/internal/repository"
	"github.com/mmeshcher/cuenty/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var readCache service.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
		if err != nil {
			sugar.Warnw("redis unavailable, cache disabled", "addr", cfg.RedisAddr, "error", err.Error())
		} else {
			defer rc.Close()
			readCache = rc
		}
	}

	auth := middleware.NewAdminAuth(cfg.AdminSecret)

	svc := service.NewService(repo, readCache, auth, logger, service.Options{
		StrictTransitions: cfg.StrictOrderTransitions,
	})
	defer svc.Close()

	err = svc.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
	if err != nil {
		sugar.Fatalw("bootstrap admin error", "error", err.Error())
	}

	backendClient := backend.NewClient(cfg.BackendURL, logger)
	if !backendClient.Configured() {
		sugar.Warn("BACKEND_URL is not set, combo and payment-config routes will answer 502")
	}

	h := handler.NewHandler(svc, backendClient, logger, auth)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		svc.RunExpirationSweep(ctx, cfg.SweepInterval)
		return nil
	})

	if backendClient.Configured() {
		g.Go(func() error {
			if err := backendClient.Check(ctx); err != nil && ctx.Err() == nil {
				sugar.Warnw("secondary backend unreachable", "url", cfg.BackendURL, "error", err.Error())
			}
			return nil
		})
	}

	g.Go(func() error {
		sugar.Infow("starting cuenty server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Остановка сервера по сигналу или при ошибке в другой горутине.
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
