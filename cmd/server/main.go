package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/omadadoc/internal/api"
	"github.com/dgallion1/omadadoc/internal/cache"
	"github.com/dgallion1/omadadoc/internal/config"
	"github.com/dgallion1/omadadoc/internal/metrics"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "error", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if path := os.Getenv("OMADADOC_CONFIG"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			slog.Error("load configuration", "error", err)
			os.Exit(1)
		}
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Parsed documents expire once unused for CacheTTL.
	store := cache.NewStore(cfg.CacheTTL)
	go store.Run(ctx, cfg.CacheCleanupInterval)

	m := metrics.New()
	m.RegisterCacheSize(store.Len)

	srv := api.NewServer(store, log, cfg, m)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting omadadoc", "port", cfg.Port, "cache_ttl", cfg.CacheTTL, "auth", cfg.APIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
