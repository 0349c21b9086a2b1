package redis

import (
	"fmt"

	"github.com/mcoot/digitguess/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "digitguess"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// sessionKey returns the Redis key for an AuthSession
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// gameKey returns the Redis key for a solo GameSession
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// gamesForOwnerIndexKey returns the Redis key for the SET of games owned by a player
func gamesForOwnerIndexKey(ownerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:games_for_owner:%s", keyPrefix, ownerID)
}

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// rosterKey returns the Redis key for the HASH of player progress in a room
func rosterKey(id model.RoomID) string {
	return fmt.Sprintf("%s:roster:%s", keyPrefix, id)
}

// roomCodeIndexKey returns the Redis key for the room code -> room_id index
func roomCodeIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:room_code:%s", keyPrefix, code)
}

// leaderboardKey returns the Redis key for the sorted set of best turns
func leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", keyPrefix)
}

// leaderboardEntriesKey returns the Redis key for the HASH of leaderboard display data
func leaderboardEntriesKey() string {
	return fmt.Sprintf("%s:leaderboard:entries", keyPrefix)
}
