package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/storage"
)

// ErrTxRetriesExhausted is returned when an optimistic transaction keeps conflicting
var ErrTxRetriesExhausted = errors.New("redis transaction retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// reader is the subset of commands shared by *redis.Client and *redis.Tx
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// watch runs fn as an optimistic transaction over keys, retrying on conflict
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrTxRetriesExhausted
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}
	return s.client.Set(ctx, playerKey(player.ID), data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0) // No TTL
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, registeredPlayerKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var rp model.RegisteredPlayer
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	// Look up player ID from username index
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Auth session operations

// SaveSession stores the session with a key TTL matching its lifetime
func (s *Storage) SaveSession(ctx context.Context, session *model.AuthSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, sessionKey(session.Token), data, ttl).Err()
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.AuthSession, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// DeleteExpiredSessions is a no-op; Redis expires session keys itself
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	return nil
}

// Solo game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.GameSession) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), data, 0)
	pipe.SAdd(ctx, gamesForOwnerIndexKey(game.OwnerID), string(game.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameSession, error) {
	return readGame(ctx, s.client, id)
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutation) (*model.GameSession, error) {
	key := gameKey(id)
	var updated *model.GameSession

	err := s.watch(ctx, func(tx *redis.Tx) error {
		game, err := readGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(game); err != nil {
			return err
		}
		data, err := json.Marshal(game)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			updated = game
		}
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) ListGamesByOwner(ctx context.Context, ownerID model.PlayerID) ([]*model.GameSession, error) {
	ids, err := s.client.SMembers(ctx, gamesForOwnerIndexKey(ownerID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(model.GameID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	games := make([]*model.GameSession, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // Missing key
		}
		var game model.GameSession
		if err := json.Unmarshal([]byte(str), &game); err != nil {
			return nil, err
		}
		games = append(games, &game)
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

func readGame(ctx context.Context, r reader, id model.GameID) (*model.GameSession, error) {
	data, err := r.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.GameSession
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// Room operations

// CreateRoom claims the room code and writes the room and roster in one transaction
func (s *Storage) CreateRoom(ctx context.Context, snap *model.RoomSnapshot) error {
	codeKey := roomCodeIndexKey(snap.Room.Code)

	roomData, err := json.Marshal(snap.Room)
	if err != nil {
		return err
	}
	rosterFields, err := encodeRoster(snap.Roster)
	if err != nil {
		return err
	}

	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, codeKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrRoomCodeTaken
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, codeKey, string(snap.Room.ID), 0)
			pipe.Set(ctx, roomKey(snap.Room.ID), roomData, 0)
			if len(rosterFields) > 0 {
				pipe.HSet(ctx, rosterKey(snap.Room.ID), rosterFields)
			}
			return nil
		})
		return err
	}, codeKey)
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error) {
	return readRoom(ctx, s.client, id)
}

func (s *Storage) GetRoomIDByCode(ctx context.Context, code model.RoomCode) (model.RoomID, error) {
	id, err := s.client.Get(ctx, roomCodeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrRoomNotFound
		}
		return "", err
	}
	return model.RoomID(id), nil
}

// UpdateRoom watches the room and its roster so that concurrent writers
// serialize; a conflicting commit re-reads and re-applies fn.
func (s *Storage) UpdateRoom(ctx context.Context, id model.RoomID, fn storage.RoomMutation) (*model.RoomSnapshot, error) {
	rKey, pKey := roomKey(id), rosterKey(id)
	var updated *model.RoomSnapshot

	err := s.watch(ctx, func(tx *redis.Tx) error {
		snap, err := readRoom(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}

		roomData, err := json.Marshal(snap.Room)
		if err != nil {
			return err
		}
		rosterFields, err := encodeRoster(snap.Roster)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rKey, roomData, 0)
			if len(rosterFields) > 0 {
				pipe.HSet(ctx, pKey, rosterFields)
			}
			return nil
		})
		if err == nil {
			updated = snap
		}
		return err
	}, rKey, pKey)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func readRoom(ctx context.Context, r reader, id model.RoomID) (*model.RoomSnapshot, error) {
	data, err := r.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	if room.Secrets == nil {
		room.Secrets = make(map[model.SecretSlot]model.Secret)
	}

	fields, err := r.HGetAll(ctx, rosterKey(id)).Result()
	if err != nil {
		return nil, err
	}

	roster := make([]*model.PlayerProgress, 0, len(fields))
	for _, v := range fields {
		var p model.PlayerProgress
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, err
		}
		roster = append(roster, &p)
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].JoinSeq < roster[j].JoinSeq
	})

	return &model.RoomSnapshot{Room: &room, Roster: roster}, nil
}

func encodeRoster(roster []*model.PlayerProgress) (map[string]any, error) {
	fields := make(map[string]any, len(roster))
	for _, p := range roster {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		fields[string(p.PlayerID)] = string(data)
	}
	return fields, nil
}

// Leaderboard operations

// RecordBestTurns watches the sorted set so the score and its entry details are
// written together, and only when the new turns beat the stored best.
func (s *Storage) RecordBestTurns(ctx context.Context, entry model.LeaderboardEntry) (bool, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}

	zKey, hKey := leaderboardKey(), leaderboardEntriesKey()
	var improved bool
	err = s.watch(ctx, func(tx *redis.Tx) error {
		improved = false
		best, err := tx.ZScore(ctx, zKey, string(entry.PlayerID)).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		case int(best) <= entry.BestTurns:
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, zKey, redis.Z{Score: float64(entry.BestTurns), Member: string(entry.PlayerID)})
			pipe.HSet(ctx, hKey, string(entry.PlayerID), data)
			return nil
		})
		if err == nil {
			improved = true
		}
		return err
	}, zKey, hKey)
	if err != nil {
		return false, fmt.Errorf("record best turns: %w", err)
	}
	return improved, nil
}

func (s *Storage) GetLeaderboardEntry(ctx context.Context, playerID model.PlayerID) (*model.LeaderboardEntry, error) {
	score, err := s.client.ZScore(ctx, leaderboardKey(), string(playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	entry := model.LeaderboardEntry{PlayerID: playerID}
	data, err := s.client.HGet(ctx, leaderboardEntriesKey(), string(playerID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, err
		}
	}
	// The sorted set is authoritative for the score
	entry.BestTurns = int(score)
	return &entry, nil
}

func (s *Storage) TopLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		return []model.LeaderboardEntry{}, nil
	}

	members, err := s.client.ZRangeWithScores(ctx, leaderboardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Member.(string)
	}
	details, err := s.client.HMGet(ctx, leaderboardEntriesKey(), ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(members))
	for i, m := range members {
		entry := model.LeaderboardEntry{PlayerID: model.PlayerID(ids[i])}
		if str, ok := details[i].(string); ok {
			if err := json.Unmarshal([]byte(str), &entry); err != nil {
				return nil, err
			}
		}
		entry.BestTurns = int(m.Score)
		entries[i] = entry
	}
	return entries, nil
}
