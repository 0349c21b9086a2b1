package model

import "time"

// EventType identifies the type of room event
type EventType string

const (
	EventPlayerJoined  EventType = "player_joined"
	EventSecretSet     EventType = "secret_set"
	EventGuessScored   EventType = "guess_scored"
	EventRoomCompleted EventType = "room_completed"
	EventRoomReset     EventType = "room_reset"
)

// RoomEvent is published whenever a room's visible state changes
type RoomEvent struct {
	Type      EventType
	Timestamp time.Time
	RoomID    RoomID
	PlayerID  PlayerID // The player who triggered the event
	Payload   any      // Type-specific data
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	DisplayName string
	Role        PlayerRole
}

// SecretSetPayload identifies which slot was filled, never the secret itself
type SecretSetPayload struct {
	Slot SecretSlot
}

// GuessScoredPayload contains data for guess scored events
type GuessScoredPayload struct {
	DisplayName string
	Turns       int
	Result      ScoreResult
	Completed   bool
}

// RoomCompletedPayload contains data for room completed events
type RoomCompletedPayload struct {
	Winner *PlayerID // nil if the room closed without a finisher
	Turns  int
}

// RoomResetPayload contains data for room reset events
type RoomResetPayload struct {
	Round int
}
