package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/digitguess/internal/api/handler"
	"github.com/mcoot/digitguess/internal/api/middleware"
	"github.com/mcoot/digitguess/internal/api/response"
	"github.com/mcoot/digitguess/internal/api/sse"
	"github.com/mcoot/digitguess/internal/services/auth"
	"github.com/mcoot/digitguess/internal/services/leaderboard"
	"github.com/mcoot/digitguess/internal/services/room"
	"github.com/mcoot/digitguess/internal/services/solo"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	SoloController     solo.ControllerInterface
	RoomController     room.ControllerInterface
	LeaderboardService leaderboard.ServiceInterface
	HubManager         *sse.HubManager
	StorageType        string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.SoloController)
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.HubManager)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.LeaderboardService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Solo game routes
	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Start).Methods(http.MethodPost)
	games.HandleFunc("", gameHandler.List).Methods(http.MethodGet)
	games.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{id}/guesses", gameHandler.Guess).Methods(http.MethodPost)

	// Room routes
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/code/{code}", roomHandler.GetByCode).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/opponent-secret", roomHandler.SetOpponentSecret).Methods(http.MethodPut)
	rooms.HandleFunc("/{id}/guesses", roomHandler.Guess).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/status", roomHandler.Status).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/summary", roomHandler.Summary).Methods(http.MethodGet)
	rooms.HandleFunc("/{id}/reset", roomHandler.Reset).Methods(http.MethodPost)
	rooms.HandleFunc("/{id}/events", roomHandler.Events).Methods(http.MethodGet)

	// Leaderboard
	board := api.PathPrefix("/leaderboard").Subrouter()
	board.Use(authMiddleware)
	board.HandleFunc("", leaderboardHandler.Top).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.StorageType)).Methods(http.MethodGet)

	return r
}

func healthHandler(storageType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}
}
