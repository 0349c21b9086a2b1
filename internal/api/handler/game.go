package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/digitguess/internal/api/middleware"
	"github.com/mcoot/digitguess/internal/api/request"
	"github.com/mcoot/digitguess/internal/api/response"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/secret"
	"github.com/mcoot/digitguess/internal/services/solo"
)

// GameHandler handles solo game endpoints
type GameHandler struct {
	soloController solo.ControllerInterface
}

// NewGameHandler creates a new solo game handler
func NewGameHandler(soloController solo.ControllerInterface) *GameHandler {
	return &GameHandler{soloController: soloController}
}

// Start handles POST /api/v1/games
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.StartGameRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	rule, err := model.ParseScoringRule(req.Rule)
	if err != nil {
		WriteError(w, err)
		return
	}
	digits := req.DigitCount
	if digits == 0 {
		digits = secret.DefaultDigitCount
	}

	game, err := h.soloController.Start(r.Context(), player.ID, digits, rule)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(game))
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	games, err := h.soloController.ListGames(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModel(games))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	game, ok := h.ownedGame(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(game))
}

// Guess handles POST /api/v1/games/{id}/guesses
func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	game, ok := h.ownedGame(w, r)
	if !ok {
		return
	}

	var req request.GuessRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Guess == "" {
		WriteError(w, NewInvalidRequestError("guess is required"))
		return
	}

	outcome, err := h.soloController.SubmitGuess(r.Context(), game.ID, req.Guess)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SoloGuessResultFromOutcome(outcome))
}

// ownedGame loads the game in the path. Another player's game reads as not found.
func (h *GameHandler) ownedGame(w http.ResponseWriter, r *http.Request) (*model.GameSession, bool) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	game, err := h.soloController.GetGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return nil, false
	}
	if game.OwnerID != player.ID {
		WriteError(w, model.ErrGameNotFound)
		return nil, false
	}
	return game, true
}
