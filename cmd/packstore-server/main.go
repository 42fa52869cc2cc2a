package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/packstore/packstore/pkg/packstore/api"
	"github.com/packstore/packstore/pkg/packstore/cache"
	"github.com/packstore/packstore/pkg/packstore/config"
)

// ServerEnv holds the flat process environment for the server binary.
// Index and provider wiring goes through the config package's env mapping.
type ServerEnv struct {
	CacheSweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" env-default:"1m"`
	CacheMaxIdle       time.Duration `env:"CACHE_MAX_IDLE" env-default:"5m"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var env ServerEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv("PACKSTORE_"))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	svc, err := serverConfig.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	// Background eviction over everything the service ever registers.
	manager := cache.NewManager()
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(env.CacheSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				manager.Track(svc.ListStorages()...)
				n, err := manager.SweepIdle(sweepCtx, env.CacheMaxIdle)
				if err != nil {
					slog.Error("Cache sweep failed", "err", err)
					continue
				}
				if n > 0 {
					slog.Info("Cache sweep", "unloaded_chunks", n, "resident_bytes", manager.ResidentBytes())
				}
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(api.RequestLogger(logger))
	r.Mount("/api/v1", api.NewHandler(svc).Routes())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: r,
	}

	go func() {
		slog.Info("Packstore server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"index_backend", serverConfig.IndexBackend,
			"providers", len(serverConfig.Providers),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}
