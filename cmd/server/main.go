package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/digitguess/internal/api"
	"github.com/mcoot/digitguess/internal/factory"
	"github.com/mcoot/digitguess/internal/services/auth"
	"github.com/mcoot/digitguess/internal/services/solo"
	redisstorage "github.com/mcoot/digitguess/internal/storage/redis"
	sqlitestorage "github.com/mcoot/digitguess/internal/storage/sqlite"
)

// How often expired sessions and idle event hubs are swept
const sweepInterval = 5 * time.Minute

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A missing .env file is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not load .env", slog.String("error", err.Error()))
	}

	cfg, err := configFromEnv(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		SoloController:     app.SoloController,
		RoomController:     app.RoomController,
		LeaderboardService: app.LeaderboardService,
		HubManager:         app.HubManager,
		StorageType:        app.StorageType,
	})

	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			logger.Error("invalid PORT", slog.String("port", port))
			os.Exit(1)
		}
		serverConfig.Port = p
	}
	server := api.NewServer(router, serverConfig, logger)
	server.RegisterOnShutdown(app.HubManager.Close)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweep(ctx, app, logger)

	logger.Info("server started", slog.String("addr", server.Addr()))
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// configFromEnv builds the factory config from environment variables
func configFromEnv(logger *slog.Logger) (factory.Config, error) {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		AuthConfig:  auth.DefaultConfig(),
		SoloConfig:  solo.DefaultConfig(),
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if path := os.Getenv("SQLITE_PATH"); path != "" {
			sqliteCfg.Path = path
		}
		cfg.SQLiteConfig = &sqliteCfg
	}

	if raw := os.Getenv("SESSION_DURATION"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, err
		}
		cfg.AuthConfig.SessionDuration = d
	}

	if raw := os.Getenv("LOCK_SOLO_AFTER_WIN"); raw != "" {
		lock, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, err
		}
		cfg.SoloConfig.LockAfterCompletion = lock
	}

	return cfg, nil
}

// sweep periodically drops expired sessions and event hubs nobody is watching
func sweep(ctx context.Context, app *factory.App, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.AuthService.CleanExpiredSessions(ctx); err != nil {
				logger.Warn("session sweep failed", slog.String("error", err.Error()))
			}
			app.HubManager.CleanupEmptyHubs()
		}
	}
}
