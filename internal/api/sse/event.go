package sse

import (
	"time"

	"github.com/mcoot/digitguess/internal/model"
)

// Event is the JSON data line of a room event
type Event struct {
	Type      string    `json:"type"`
	RoomID    string    `json:"room_id"`
	PlayerID  string    `json:"player_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

type playerJoined struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type secretSet struct {
	Slot string `json:"slot"`
}

type guessScored struct {
	DisplayName      string `json:"display_name"`
	Turns            int    `json:"turns"`
	NumbersCorrect   int    `json:"numbers_correct"`
	PositionsCorrect int    `json:"positions_correct"`
	Completed        bool   `json:"completed"`
}

type roomCompleted struct {
	Winner *string `json:"winner"`
	Turns  int     `json:"turns"`
}

type roomReset struct {
	Round int `json:"round"`
}

// EventFromModel converts a room event to its wire form. Guesses are never included.
func EventFromModel(e model.RoomEvent) Event {
	out := Event{
		Type:      string(e.Type),
		RoomID:    string(e.RoomID),
		PlayerID:  string(e.PlayerID),
		Timestamp: e.Timestamp,
	}

	switch p := e.Payload.(type) {
	case model.PlayerJoinedPayload:
		out.Payload = playerJoined{DisplayName: p.DisplayName, Role: string(p.Role)}
	case model.SecretSetPayload:
		out.Payload = secretSet{Slot: string(p.Slot)}
	case model.GuessScoredPayload:
		out.Payload = guessScored{
			DisplayName:      p.DisplayName,
			Turns:            p.Turns,
			NumbersCorrect:   p.Result.NumbersCorrect,
			PositionsCorrect: p.Result.PositionsCorrect,
			Completed:        p.Completed,
		}
	case model.RoomCompletedPayload:
		var winner *string
		if p.Winner != nil {
			w := string(*p.Winner)
			winner = &w
		}
		out.Payload = roomCompleted{Winner: winner, Turns: p.Turns}
	case model.RoomResetPayload:
		out.Payload = roomReset{Round: p.Round}
	}
	return out
}
