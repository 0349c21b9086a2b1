package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/digitguess/internal/api/middleware"
	"github.com/mcoot/digitguess/internal/api/request"
	"github.com/mcoot/digitguess/internal/api/response"
	"github.com/mcoot/digitguess/internal/api/sse"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/room"
	"github.com/mcoot/digitguess/internal/services/secret"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomController room.ControllerInterface
	hubManager     *sse.HubManager
}

// NewRoomHandler creates a new room handler. hubManager may be nil to disable event streams.
func NewRoomHandler(roomController room.ControllerInterface, hubManager *sse.HubManager) *RoomHandler {
	return &RoomHandler{
		roomController: roomController,
		hubManager:     hubManager,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateRoomRequest
	if !decode(w, r, &req) {
		return
	}

	mode, err := model.ParseRoomMode(req.Mode)
	if err != nil {
		WriteError(w, err)
		return
	}
	policy := model.PolicyFastest
	if req.WinningPolicy != "" {
		if policy, err = model.ParseWinningPolicy(req.WinningPolicy); err != nil {
			WriteError(w, err)
			return
		}
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

	snap, err := h.roomController.CreateRoom(r.Context(), *player, room.CreateRoomParams{
		Mode:           mode,
		WinningPolicy:  policy,
		Rule:           rule,
		DigitCount:     digits,
		OpponentSecret: req.OpponentSecret,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(snap))
}

// Join handles POST /api/v1/rooms/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.JoinRoomRequest
	if !decode(w, r, &req) {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		WriteError(w, NewInvalidRequestError("code is required"))
		return
	}

	snap, err := h.roomController.JoinRoom(r.Context(), model.RoomCode(code), *player, req.Secret)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(snap))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.roomController.GetRoom(r.Context(), roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(snap))
}

// GetByCode handles GET /api/v1/rooms/code/{code}
func (h *RoomHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"]))
	snap, err := h.roomController.GetRoomByCode(r.Context(), model.RoomCode(code))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(snap))
}

// SetOpponentSecret handles PUT /api/v1/rooms/{id}/opponent-secret
func (h *RoomHandler) SetOpponentSecret(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.SetSecretRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Secret == "" {
		WriteError(w, NewInvalidRequestError("secret is required"))
		return
	}

	snap, err := h.roomController.SetOpponentSecret(r.Context(), roomID(r), player.ID, req.Secret)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(snap))
}

// Guess handles POST /api/v1/rooms/{id}/guesses
func (h *RoomHandler) Guess(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.GuessRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Guess == "" {
		WriteError(w, NewInvalidRequestError("guess is required"))
		return
	}

	outcome, err := h.roomController.SubmitGuess(r.Context(), roomID(r), *player, req.Guess)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomGuessResultFromOutcome(outcome))
}

// Status handles GET /api/v1/rooms/{id}/status
func (h *RoomHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.roomController.RoomStatus(r.Context(), roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomStatusFromModel(status))
}

// Summary handles GET /api/v1/rooms/{id}/summary
func (h *RoomHandler) Summary(w http.ResponseWriter, r *http.Request) {
	standings, err := h.roomController.Summary(r.Context(), roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomSummaryFromModel(standings))
}

// Reset handles POST /api/v1/rooms/{id}/reset
func (h *RoomHandler) Reset(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.ResetRoomRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	snap, err := h.roomController.ResetRoom(r.Context(), roomID(r), player.ID, req.OpponentSecret)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(snap))
}

// Events handles GET /api/v1/rooms/{id}/events
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	if h.hubManager == nil {
		http.Error(w, "Event streams disabled", http.StatusNotImplemented)
		return
	}

	snap, err := h.roomController.GetRoom(r.Context(), roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubManager.GetOrCreateHub(snap.Room.ID)
	sse.ServeSSE(w, r, hub, player.ID)
}

func roomID(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["id"])
}
