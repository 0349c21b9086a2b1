package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/auth"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{model.ErrLengthMismatch, http.StatusUnprocessableEntity},
		{model.ErrInvalidGuess, http.StatusBadRequest},
		{model.ErrInvalidDigitCount, http.StatusBadRequest},
		{model.ErrRoomNotFound, http.StatusNotFound},
		{model.ErrGameNotFound, http.StatusNotFound},
		{model.ErrSecretNotReady, http.StatusConflict},
		{model.ErrOpponentNotJoined, http.StatusConflict},
		{model.ErrRoomFull, http.StatusConflict},
		{model.ErrForbidden, http.StatusForbidden},
		{model.ErrNotCreator, http.StatusForbidden},
		{model.ErrRoundInProgress, http.StatusConflict},
		{model.ErrRoomCodeExhausted, http.StatusServiceUnavailable},
		{auth.ErrInvalidSession, http.StatusUnauthorized},
		{auth.ErrUsernameExists, http.StatusConflict},
		{fmt.Errorf("update room: %w", model.ErrRoomFull), http.StatusConflict},
		{fmt.Errorf("storage down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestWriteErrorSecretNotReadyIsRetryable(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("guess: %w", model.ErrSecretNotReady))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeSecretNotReady, resp.Error.Code)
	assert.True(t, resp.Error.Retryable)
}

func TestWriteErrorInvalidRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, NewInvalidRequestError("guess is required"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
	assert.Equal(t, "guess is required", resp.Error.Message)
	assert.False(t, resp.Error.Retryable)
}
