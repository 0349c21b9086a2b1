package model

import "errors"

// Common errors used across the application
var (
	// Input errors
	ErrLengthMismatch    = errors.New("guess length does not match secret length")
	ErrInvalidGuess      = errors.New("guess must contain only digits")
	ErrInvalidSecret     = errors.New("secret must contain only digits")
	ErrInvalidDigitCount = errors.New("invalid digit count")
	ErrInvalidMode       = errors.New("invalid room mode")
	ErrInvalidPolicy     = errors.New("invalid winning policy")
	ErrInvalidRule       = errors.New("invalid scoring rule")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Solo game errors
	ErrGameNotFound = errors.New("game not found")
	ErrGameComplete = errors.New("game is already complete")

	// Room errors
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomCodeTaken     = errors.New("room code already in use")
	ErrRoomCodeExhausted = errors.New("could not allocate a unique room code")
	ErrRoomFull          = errors.New("room is full")
	ErrSecretNotReady    = errors.New("opponent has not supplied a secret yet")
	ErrSecretAlreadySet  = errors.New("secret has already been set")
	ErrOpponentNotJoined = errors.New("opponent has not joined yet")
	ErrForbidden         = errors.New("player has no role in this room")
	ErrNotCreator        = errors.New("player is not the room creator")
	ErrAlreadySolved     = errors.New("player has already solved this round")
	ErrRoundInProgress   = errors.New("round is still in progress")
	ErrProgressNotFound  = errors.New("player progress not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
)
