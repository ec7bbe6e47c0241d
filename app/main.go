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

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/poke-comb/app/api"
	"github.com/lysyi3m/poke-comb/app/cache"
	"github.com/lysyi3m/poke-comb/app/cfg"
	"github.com/lysyi3m/poke-comb/app/database"
	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

const cacheJanitorInterval = 5 * time.Minute

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting Poke Comb server", "version", appCfg.Version)

	// A single Redis client backs both the cache and the favorites store
	// when either is configured to use it.
	var redisClient *redis.Client
	if appCfg.CacheBackend == "redis" || appCfg.StorageBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", appCfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		slog.Info("Connected to Redis", "addr", appCfg.RedisAddr)
	}

	var favorites database.FavoriteRepository
	switch appCfg.StorageBackend {
	case "redis":
		favorites = database.NewRedisFavoriteRepository(redisClient)
		slog.Info("Using Redis favorites storage")
	default:
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

		favorites = database.NewSQLFavoriteRepository(db)
	}

	var store cache.Store
	if appCfg.CacheBackend == "redis" {
		store = cache.NewRedis(redisClient)
		slog.Info("Using Redis cache")
	} else {
		memory := cache.NewMemory()
		memory.StartJanitor(cacheJanitorInterval)
		defer memory.Stop()
		store = memory
	}

	httpClient := &http.Client{Timeout: time.Duration(appCfg.HTTPTimeout) * time.Second}
	catalog := pokeapi.NewClient(appCfg.PokeAPIURL, appCfg.UserAgent, httpClient, store)

	handler := api.NewHandler(catalog, favorites)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Poke Comb server shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
