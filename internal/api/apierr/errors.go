package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeLengthMismatch     = "LENGTH_MISMATCH"
	CodeInvalidGuess       = "INVALID_GUESS"
	CodeInvalidSecret      = "INVALID_SECRET"
	CodeInvalidDigitCount  = "INVALID_DIGIT_COUNT"
	CodeInvalidMode        = "INVALID_MODE"
	CodeInvalidPolicy      = "INVALID_POLICY"
	CodeInvalidRule        = "INVALID_RULE"
	CodeInvalidDisplayName = "INVALID_DISPLAY_NAME"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotCreator         = "NOT_CREATOR"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeProgressNotFound   = "PROGRESS_NOT_FOUND"
	CodeSecretNotReady     = "SECRET_NOT_READY"
	CodeSecretAlreadySet   = "SECRET_ALREADY_SET"
	CodeOpponentNotJoined  = "OPPONENT_NOT_JOINED"
	CodeRoomFull           = "ROOM_FULL"
	CodeGameComplete       = "GAME_COMPLETE"
	CodeAlreadySolved      = "ALREADY_SOLVED"
	CodeRoundInProgress    = "ROUND_IN_PROGRESS"
	CodeRoomCodesExhausted = "ROOM_CODES_EXHAUSTED"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

func newError(status int, code, message string) *httpError {
	return &httpError{status, APIError{Code: code, Message: message}}
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Input errors
	case errors.Is(err, model.ErrLengthMismatch):
		return newError(http.StatusUnprocessableEntity, CodeLengthMismatch, "Length does not match the secret")
	case errors.Is(err, model.ErrInvalidGuess):
		return newError(http.StatusBadRequest, CodeInvalidGuess, "Guess must contain only digits")
	case errors.Is(err, model.ErrInvalidSecret):
		return newError(http.StatusBadRequest, CodeInvalidSecret, "Secret must contain only digits")
	case errors.Is(err, model.ErrInvalidDigitCount):
		return newError(http.StatusBadRequest, CodeInvalidDigitCount, "Invalid digit count")
	case errors.Is(err, model.ErrInvalidMode):
		return newError(http.StatusBadRequest, CodeInvalidMode, "Mode must be bot or two_player")
	case errors.Is(err, model.ErrInvalidPolicy):
		return newError(http.StatusBadRequest, CodeInvalidPolicy, "Winning policy must be fastest or lowest_turns")
	case errors.Is(err, model.ErrInvalidRule):
		return newError(http.StatusBadRequest, CodeInvalidRule, "Rule must be strict or relaxed")

	// Not found
	case errors.Is(err, model.ErrPlayerNotFound):
		return newError(http.StatusNotFound, CodePlayerNotFound, "Player not found")
	case errors.Is(err, model.ErrGameNotFound):
		return newError(http.StatusNotFound, CodeGameNotFound, "Game not found")
	case errors.Is(err, model.ErrRoomNotFound):
		return newError(http.StatusNotFound, CodeRoomNotFound, "Room not found")
	case errors.Is(err, model.ErrProgressNotFound):
		return newError(http.StatusNotFound, CodeProgressNotFound, "Player progress not found")

	// Room state
	case errors.Is(err, model.ErrSecretNotReady):
		he := newError(http.StatusConflict, CodeSecretNotReady, "Opponent has not supplied a secret yet")
		he.apiError.Retryable = true
		return he
	case errors.Is(err, model.ErrOpponentNotJoined):
		return newError(http.StatusConflict, CodeOpponentNotJoined, "Opponent has not joined yet")
	case errors.Is(err, model.ErrSecretAlreadySet):
		return newError(http.StatusConflict, CodeSecretAlreadySet, "Secret has already been set")
	case errors.Is(err, model.ErrRoomFull):
		return newError(http.StatusConflict, CodeRoomFull, "Room is full")
	case errors.Is(err, model.ErrGameComplete):
		return newError(http.StatusConflict, CodeGameComplete, "Game is already complete")
	case errors.Is(err, model.ErrAlreadySolved):
		return newError(http.StatusConflict, CodeAlreadySolved, "Already solved this round")
	case errors.Is(err, model.ErrRoundInProgress):
		return newError(http.StatusConflict, CodeRoundInProgress, "Round is still in progress")
	case errors.Is(err, model.ErrForbidden):
		return newError(http.StatusForbidden, CodeForbidden, "No role in this room")
	case errors.Is(err, model.ErrNotCreator):
		return newError(http.StatusForbidden, CodeNotCreator, "Only the room creator can perform this action")
	case errors.Is(err, model.ErrRoomCodeExhausted), errors.Is(err, model.ErrRoomCodeTaken):
		return newError(http.StatusServiceUnavailable, CodeRoomCodesExhausted, "Could not allocate a room code")

	// Auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return newError(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password")
	case errors.Is(err, auth.ErrInvalidSession), errors.Is(err, model.ErrSessionNotFound):
		return newError(http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired session")
	case errors.Is(err, auth.ErrUsernameExists):
		return newError(http.StatusConflict, CodeUsernameExists, "Username already exists")
	case errors.Is(err, auth.ErrInvalidDisplayName):
		return newError(http.StatusBadRequest, CodeInvalidDisplayName, "Display name is required")

	default:
		return newError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return newError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return newError(http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return newError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
}
