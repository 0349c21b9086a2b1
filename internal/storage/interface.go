package storage

import (
	"context"
	"time"

	"github.com/mcoot/digitguess/internal/model"
)

// GameMutation mutates a game session inside a storage transaction.
// Returning an error aborts the transaction and leaves the stored game untouched.
type GameMutation func(game *model.GameSession) error

// RoomMutation mutates a room and its roster inside a storage transaction.
// The snapshot is read atomically; new roster entries may be appended.
// Returning an error aborts the transaction and leaves all records untouched.
type RoomMutation func(snap *model.RoomSnapshot) error

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Auth session operations
	SaveSession(ctx context.Context, session *model.AuthSession) error
	GetSession(ctx context.Context, token string) (*model.AuthSession, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) error

	// Solo game operations
	CreateGame(ctx context.Context, game *model.GameSession) error
	GetGame(ctx context.Context, id model.GameID) (*model.GameSession, error)
	UpdateGame(ctx context.Context, id model.GameID, fn GameMutation) (*model.GameSession, error)
	ListGamesByOwner(ctx context.Context, ownerID model.PlayerID) ([]*model.GameSession, error)

	// Room operations
	// CreateRoom fails with model.ErrRoomCodeTaken if the code is in use
	CreateRoom(ctx context.Context, snap *model.RoomSnapshot) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error)
	GetRoomIDByCode(ctx context.Context, code model.RoomCode) (model.RoomID, error)
	UpdateRoom(ctx context.Context, id model.RoomID, fn RoomMutation) (*model.RoomSnapshot, error)

	// Leaderboard operations
	// RecordBestTurns inserts the entry or lowers an existing BestTurns, reporting whether it changed
	RecordBestTurns(ctx context.Context, entry model.LeaderboardEntry) (bool, error)
	GetLeaderboardEntry(ctx context.Context, playerID model.PlayerID) (*model.LeaderboardEntry, error)
	// TopLeaderboard returns up to limit entries by ascending BestTurns; a limit of zero or less yields none
	TopLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}
