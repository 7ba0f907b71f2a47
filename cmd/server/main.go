package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sathishkumar1405/chat-app/internal/api"
	"github.com/Sathishkumar1405/chat-app/internal/config"
	"github.com/Sathishkumar1405/chat-app/internal/metrics"
	"github.com/Sathishkumar1405/chat-app/internal/relay"
	"github.com/Sathishkumar1405/chat-app/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the persistent store: PostgreSQL when configured, SQLite
	// otherwise (development default).
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgStore.Close()
		logger.Info().Msg("connected to PostgreSQL")
		db = pgStore
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer sqliteStore.Close()
		logger.Info().Msg("using SQLite store")
		db = sqliteStore
	}

	// Initialize Redis store
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// The relay owns one registry per server instance.
	registry := relay.NewRegistry()
	rly := relay.New(registry, db, logger)
	if redisStore != nil {
		rly.SetPresence(redisStore)
	}

	// Sweep expired messages. The read paths already exclude them; the sweep
	// keeps the table from accumulating dead rows.
	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go runPurgeLoop(purgeCtx, db, time.Duration(cfg.PurgeInterval)*time.Second, logger)

	// Create router
	router := api.NewRouter(logger, db, redisStore, rly)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// runPurgeLoop deletes expired messages on a fixed interval.
func runPurgeLoop(ctx context.Context, db store.DataStore, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := db.PurgeExpiredMessages(ctx, time.Now().UnixMilli())
			if err != nil {
				logger.Error().Err(err).Msg("expired message purge failed")
				continue
			}
			if n > 0 {
				metrics.MessagesPurged.Add(float64(n))
				logger.Info().Int64("purged", n).Msg("expired messages removed")
			}
		case <-ctx.Done():
			return
		}
	}
}
