package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/storage"
)

// timeLayout is fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Storage is a SQLite-backed implementation of the storage interface.
// The pool holds a single connection, so every transaction is serialized.
type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations
func New(cfg Config) (*Storage, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Storage) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a transaction, rolling back if it fails
func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, is_guest, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, is_guest = excluded.is_guest`,
		string(player.ID), player.DisplayName, boolInt(player.IsGuest), formatTime(player.CreatedAt),
	)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var (
		player    model.Player
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, display_name, is_guest, created_at FROM players WHERE id = ?", string(id),
	).Scan(&player.ID, &player.DisplayName, &player.IsGuest, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	if player.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &player, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registered_players (player_id, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET password_hash = excluded.password_hash, updated_at = excluded.updated_at`,
		string(rp.PlayerID), rp.Username, rp.PasswordHash, formatTime(rp.CreatedAt), formatTime(rp.UpdatedAt),
	)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	return s.getRegisteredPlayer(ctx, "player_id", string(playerID))
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	return s.getRegisteredPlayer(ctx, "username", username)
}

func (s *Storage) getRegisteredPlayer(ctx context.Context, column, value string) (*model.RegisteredPlayer, error) {
	var (
		rp                   model.RegisteredPlayer
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT player_id, username, password_hash, created_at, updated_at FROM registered_players WHERE "+column+" = ?",
		value,
	).Scan(&rp.PlayerID, &rp.Username, &rp.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	if rp.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rp, nil
}

// Auth session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.AuthSession) error {
	playerJSON, err := json.Marshal(session.Player)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, player_id, player_json, created_at, expires_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET player_json = excluded.player_json, expires_at = excluded.expires_at`,
		session.Token, string(session.PlayerID), string(playerJSON),
		formatTime(session.CreatedAt), formatTime(session.ExpiresAt),
	)
	return err
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.AuthSession, error) {
	var (
		session                          model.AuthSession
		playerJSON, createdAt, expiresAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, player_id, player_json, created_at, expires_at FROM sessions WHERE token = ?", token,
	).Scan(&session.Token, &session.PlayerID, &playerJSON, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(playerJSON), &session.Player); err != nil {
		return nil, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", formatTime(now))
	return err
}

// Solo game operations

const gameColumns = "id, owner_id, secret, digit_count, rule, turns, completed, history_json, created_at, updated_at"

func (s *Storage) CreateGame(ctx context.Context, game *model.GameSession) error {
	history, err := json.Marshal(game.History)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO games ("+gameColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		string(game.ID), string(game.OwnerID), string(game.Secret), game.DigitCount, string(game.Rule),
		game.Turns, boolInt(game.Completed), string(history),
		formatTime(game.CreatedAt), formatTime(game.UpdatedAt),
	)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameSession, error) {
	return readGame(ctx, s.db, id)
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutation) (*model.GameSession, error) {
	var updated *model.GameSession
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		game, err := readGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(game); err != nil {
			return err
		}
		history, err := json.Marshal(game.History)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE games SET turns = ?, completed = ?, history_json = ?, updated_at = ? WHERE id = ?`,
			game.Turns, boolInt(game.Completed), string(history), formatTime(game.UpdatedAt), string(id),
		)
		if err != nil {
			return err
		}
		updated = game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) ListGamesByOwner(ctx context.Context, ownerID model.PlayerID) ([]*model.GameSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE owner_id = ? ORDER BY created_at DESC", string(ownerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*model.GameSession
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func readGame(ctx context.Context, q queryer, id model.GameID) (*model.GameSession, error) {
	row := q.QueryRowContext(ctx, "SELECT "+gameColumns+" FROM games WHERE id = ?", string(id))
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGameNotFound
	}
	return game, err
}

func scanGame(row scanner) (*model.GameSession, error) {
	var (
		game                          model.GameSession
		history, createdAt, updatedAt string
	)
	err := row.Scan(&game.ID, &game.OwnerID, &game.Secret, &game.DigitCount, &game.Rule,
		&game.Turns, &game.Completed, &history, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(history), &game.History); err != nil {
		return nil, err
	}
	if game.History == nil {
		game.History = []model.GuessRecord{}
	}
	if game.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if game.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &game, nil
}

// Room operations

const roomColumns = "id, code, creator_id, mode, winning_policy, rule, digit_count, secrets_json, state, round, completed_at, completion_counter, created_at, updated_at"

const playerColumns = "room_id, player_id, display_name, role, join_seq, turns, completed, completed_seq, last_guess, last_numbers, last_positions, joined_at, updated_at"

func (s *Storage) CreateRoom(ctx context.Context, snap *model.RoomSnapshot) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms WHERE code = ?", string(snap.Room.Code)).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrRoomCodeTaken
		}
		if err := writeRoom(ctx, tx, snap.Room, true); err != nil {
			return err
		}
		return writeRoster(ctx, tx, snap.Room.ID, snap.Roster)
	})
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error) {
	var snap *model.RoomSnapshot
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		snap, err = readRoom(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Storage) GetRoomIDByCode(ctx context.Context, code model.RoomCode) (model.RoomID, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM rooms WHERE code = ?", string(code)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrRoomNotFound
	}
	if err != nil {
		return "", err
	}
	return model.RoomID(id), nil
}

func (s *Storage) UpdateRoom(ctx context.Context, id model.RoomID, fn storage.RoomMutation) (*model.RoomSnapshot, error) {
	var updated *model.RoomSnapshot
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		snap, err := readRoom(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
		if err := writeRoom(ctx, tx, snap.Room, false); err != nil {
			return err
		}
		if err := writeRoster(ctx, tx, snap.Room.ID, snap.Roster); err != nil {
			return err
		}
		updated = snap
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func readRoom(ctx context.Context, q queryer, id model.RoomID) (*model.RoomSnapshot, error) {
	var (
		room                          model.Room
		secrets, createdAt, updatedAt string
		completedAt                   sql.NullString
	)
	err := q.QueryRowContext(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = ?", string(id)).Scan(
		&room.ID, &room.Code, &room.CreatorID, &room.Mode, &room.WinningPolicy, &room.Rule,
		&room.DigitCount, &secrets, &room.State, &room.Round, &completedAt,
		&room.CompletionCounter, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(secrets), &room.Secrets); err != nil {
		return nil, err
	}
	if room.Secrets == nil {
		room.Secrets = make(map[model.SecretSlot]model.Secret)
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		room.CompletedAt = &t
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		"SELECT "+playerColumns+" FROM room_players WHERE room_id = ? ORDER BY join_seq", string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []*model.PlayerProgress
	for rows.Next() {
		var (
			p                   model.PlayerProgress
			joinedAt, updatedAt string
		)
		err := rows.Scan(&p.RoomID, &p.PlayerID, &p.DisplayName, &p.Role, &p.JoinSeq, &p.Turns,
			&p.Completed, &p.CompletedSeq, &p.LastGuess, &p.LastResult.NumbersCorrect,
			&p.LastResult.PositionsCorrect, &joinedAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		if p.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		roster = append(roster, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &model.RoomSnapshot{Room: &room, Roster: roster}, nil
}

func writeRoom(ctx context.Context, q queryer, room *model.Room, insert bool) error {
	secrets, err := json.Marshal(room.Secrets)
	if err != nil {
		return err
	}
	var completedAt sql.NullString
	if room.CompletedAt != nil {
		completedAt = sql.NullString{String: formatTime(*room.CompletedAt), Valid: true}
	}

	if insert {
		_, err = q.ExecContext(ctx,
			"INSERT INTO rooms ("+roomColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			string(room.ID), string(room.Code), string(room.CreatorID), string(room.Mode),
			string(room.WinningPolicy), string(room.Rule), room.DigitCount, string(secrets),
			string(room.State), room.Round, completedAt, room.CompletionCounter,
			formatTime(room.CreatedAt), formatTime(room.UpdatedAt),
		)
		return err
	}

	_, err = q.ExecContext(ctx, `
		UPDATE rooms SET secrets_json = ?, state = ?, round = ?, completed_at = ?,
			completion_counter = ?, updated_at = ?
		WHERE id = ?`,
		string(secrets), string(room.State), room.Round, completedAt,
		room.CompletionCounter, formatTime(room.UpdatedAt), string(room.ID),
	)
	return err
}

// writeRoster upserts progress rows; membership is never removed
func writeRoster(ctx context.Context, q queryer, roomID model.RoomID, roster []*model.PlayerProgress) error {
	for _, p := range roster {
		_, err := q.ExecContext(ctx, `
			INSERT INTO room_players (`+playerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(room_id, player_id) DO UPDATE SET
				display_name = excluded.display_name,
				turns = excluded.turns,
				completed = excluded.completed,
				completed_seq = excluded.completed_seq,
				last_guess = excluded.last_guess,
				last_numbers = excluded.last_numbers,
				last_positions = excluded.last_positions,
				updated_at = excluded.updated_at`,
			string(roomID), string(p.PlayerID), p.DisplayName, string(p.Role), p.JoinSeq, p.Turns,
			boolInt(p.Completed), p.CompletedSeq, p.LastGuess, p.LastResult.NumbersCorrect,
			p.LastResult.PositionsCorrect, formatTime(p.JoinedAt), formatTime(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("write progress for %s: %w", p.PlayerID, err)
		}
	}
	return nil
}

// Leaderboard operations

// RecordBestTurns upserts only when the new result is strictly lower
func (s *Storage) RecordBestTurns(ctx context.Context, entry model.LeaderboardEntry) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard (player_id, display_name, best_turns, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			display_name = excluded.display_name,
			best_turns = excluded.best_turns,
			updated_at = excluded.updated_at
		WHERE excluded.best_turns < leaderboard.best_turns`,
		string(entry.PlayerID), entry.DisplayName, entry.BestTurns, formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) GetLeaderboardEntry(ctx context.Context, playerID model.PlayerID) (*model.LeaderboardEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT player_id, display_name, best_turns, updated_at FROM leaderboard WHERE player_id = ?",
		string(playerID),
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Storage) TopLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	// SQLite reads a negative LIMIT as unbounded
	if limit <= 0 {
		return []model.LeaderboardEntry{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, display_name, best_turns, updated_at FROM leaderboard
		ORDER BY best_turns ASC, player_id ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (model.LeaderboardEntry, error) {
	var (
		entry     model.LeaderboardEntry
		updatedAt string
	)
	if err := row.Scan(&entry.PlayerID, &entry.DisplayName, &entry.BestTurns, &updatedAt); err != nil {
		return entry, err
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return entry, err
	}
	entry.UpdatedAt = t
	return entry, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
