package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are cloned on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	sessions          map[string]*model.AuthSession
	games             map[model.GameID]*model.GameSession
	rooms             map[model.RoomID]*model.RoomSnapshot
	roomCodeIndex     map[model.RoomCode]model.RoomID
	leaderboard       map[model.PlayerID]*model.LeaderboardEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		sessions:          make(map[string]*model.AuthSession),
		games:             make(map[model.GameID]*model.GameSession),
		rooms:             make(map[model.RoomID]*model.RoomSnapshot),
		roomCodeIndex:     make(map[model.RoomCode]model.RoomID),
		leaderboard:       make(map[model.PlayerID]*model.LeaderboardEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rp
	s.registeredPlayers[rp.PlayerID] = &r
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	playerID, ok := s.usernameIndex[username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.GetRegisteredPlayer(ctx, playerID)
}

// Auth session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	s.sessions[session.Token] = &sess
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.AuthSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	sess := *session
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Solo game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game.Clone()
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutation) (*model.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.games[id] = working
	return working.Clone(), nil
}

func (s *Storage) ListGamesByOwner(ctx context.Context, ownerID model.PlayerID) ([]*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var games []*model.GameSession
	for _, game := range s.games {
		if game.OwnerID == ownerID {
			games = append(games, game.Clone())
		}
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, snap *model.RoomSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.roomCodeIndex[snap.Room.Code]; taken {
		return model.ErrRoomCodeTaken
	}
	s.rooms[snap.Room.ID] = snap.Clone()
	s.roomCodeIndex[snap.Room.Code] = snap.Room.ID
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return snap.Clone(), nil
}

func (s *Storage) GetRoomIDByCode(ctx context.Context, code model.RoomCode) (model.RoomID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roomCodeIndex[code]
	if !ok {
		return "", model.ErrRoomNotFound
	}
	return id, nil
}

func (s *Storage) UpdateRoom(ctx context.Context, id model.RoomID, fn storage.RoomMutation) (*model.RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.rooms[id] = working
	return working.Clone(), nil
}

// Leaderboard operations

func (s *Storage) RecordBestTurns(ctx context.Context, entry model.LeaderboardEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.leaderboard[entry.PlayerID]
	if ok && entry.BestTurns >= existing.BestTurns {
		return false, nil
	}
	e := entry
	s.leaderboard[entry.PlayerID] = &e
	return true, nil
}

func (s *Storage) GetLeaderboardEntry(ctx context.Context, playerID model.PlayerID) (*model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.leaderboard[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	e := *entry
	return &e, nil
}

func (s *Storage) TopLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		return []model.LeaderboardEntry{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]model.LeaderboardEntry, 0, len(s.leaderboard))
	for _, e := range s.leaderboard {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestTurns != entries[j].BestTurns {
			return entries[i].BestTurns < entries[j].BestTurns
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
