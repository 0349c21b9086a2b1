package model

import "time"

// DefaultLeaderboardSize is the number of entries returned when no limit is given
const DefaultLeaderboardSize = 10

// LeaderboardEntry is a player's best bot-room result.
// Keyed by the stable player id; the display name is kept for rendering only.
type LeaderboardEntry struct {
	PlayerID    PlayerID
	DisplayName string
	BestTurns   int
	UpdatedAt   time.Time
}
