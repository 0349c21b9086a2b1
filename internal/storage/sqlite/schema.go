package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	is_guest     INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS registered_players (
	player_id     TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	token       TEXT PRIMARY KEY,
	player_id   TEXT NOT NULL,
	player_json TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	expires_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions (expires_at);

CREATE TABLE IF NOT EXISTS games (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	secret       TEXT NOT NULL,
	digit_count  INTEGER NOT NULL,
	rule         TEXT NOT NULL,
	turns        INTEGER NOT NULL,
	completed    INTEGER NOT NULL,
	history_json TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS games_owner ON games (owner_id, created_at);

CREATE TABLE IF NOT EXISTS rooms (
	id                 TEXT PRIMARY KEY,
	code               TEXT NOT NULL UNIQUE,
	creator_id         TEXT NOT NULL,
	mode               TEXT NOT NULL,
	winning_policy     TEXT NOT NULL,
	rule               TEXT NOT NULL,
	digit_count        INTEGER NOT NULL,
	secrets_json       TEXT NOT NULL,
	state              TEXT NOT NULL,
	round              INTEGER NOT NULL,
	completed_at       TEXT,
	completion_counter INTEGER NOT NULL,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS room_players (
	room_id          TEXT NOT NULL REFERENCES rooms(id),
	player_id        TEXT NOT NULL,
	display_name     TEXT NOT NULL,
	role             TEXT NOT NULL,
	join_seq         INTEGER NOT NULL,
	turns            INTEGER NOT NULL,
	completed        INTEGER NOT NULL,
	completed_seq    INTEGER NOT NULL,
	last_guess       TEXT NOT NULL,
	last_numbers     INTEGER NOT NULL,
	last_positions   INTEGER NOT NULL,
	joined_at        TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	PRIMARY KEY (room_id, player_id)
);

CREATE TABLE IF NOT EXISTS leaderboard (
	player_id    TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	best_turns   INTEGER NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS leaderboard_best ON leaderboard (best_turns, player_id);
`
