package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/digitguess/internal/api/sse"
	"github.com/mcoot/digitguess/internal/dependencies/clock"
	"github.com/mcoot/digitguess/internal/dependencies/random"
	"github.com/mcoot/digitguess/internal/services/auth"
	"github.com/mcoot/digitguess/internal/services/leaderboard"
	"github.com/mcoot/digitguess/internal/services/room"
	"github.com/mcoot/digitguess/internal/services/scoring"
	"github.com/mcoot/digitguess/internal/services/secret"
	"github.com/mcoot/digitguess/internal/services/solo"
	"github.com/mcoot/digitguess/internal/storage"
	"github.com/mcoot/digitguess/internal/storage/memory"
	redisstorage "github.com/mcoot/digitguess/internal/storage/redis"
	sqlitestorage "github.com/mcoot/digitguess/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	ScoringService     *scoring.Service
	SecretGenerator    *secret.Generator
	LeaderboardService *leaderboard.Service
	SoloController     *solo.Controller
	RoomController     *room.Controller
	AuthService        *auth.Service
	HubManager         *sse.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// SoloConfig holds the solo post-win policy (optional)
	SoloConfig solo.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLiteConfig holds the database path (optional, defaults to sqlite.DefaultConfig())
	SQLiteConfig *sqlitestorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	store, err := newStorage(storageType, cfg)
	if err != nil {
		return nil, err
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(store, clock.New(), random.New(), authCfg, cfg.SoloConfig, logger)
	app.StorageType = storageType
	logger.Info("application wired", slog.String("storage", storageType))
	return app, nil
}

func newStorage(storageType string, cfg Config) (storage.Storage, error) {
	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("redis storage: %w", err)
		}
		return store, nil
	case StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if cfg.SQLiteConfig != nil {
			sqliteCfg = *cfg.SQLiteConfig
		}
		store, err := sqlitestorage.New(sqliteCfg)
		if err != nil {
			return nil, fmt.Errorf("sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	soloCfg solo.Config,
	logger *slog.Logger,
) *App {
	scoringService := scoring.New()
	generator := secret.New(rnd)
	leaderboardService := leaderboard.New(store, clk, logger)
	soloController := solo.NewController(store, scoringService, generator, clk, rnd, logger, soloCfg)
	roomController := room.NewController(store, scoringService, generator, leaderboardService, clk, rnd, logger)
	authService := auth.New(store, clk, authCfg, logger)
	hubManager := sse.NewHubManager(logger)
	roomController.SetEventPublisher(hubManager)

	return &App{
		Storage:            store,
		StorageType:        StorageTypeMemory,
		Clock:              clk,
		Random:             rnd,
		ScoringService:     scoringService,
		SecretGenerator:    generator,
		LeaderboardService: leaderboardService,
		SoloController:     soloController,
		RoomController:     roomController,
		AuthService:        authService,
		HubManager:         hubManager,
	}
}

// Close releases the event hubs and any storage connections
func (a *App) Close() error {
	a.HubManager.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
