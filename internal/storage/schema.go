// FILE: internal/storage/schema.go
package storage

import "time"

// UserRecord represents a user account in the database
type UserRecord struct {
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"` // stored lowercase
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// GameRecord represents a row in the games table
type GameRecord struct {
	GameID    string    `db:"game_id"`
	Player1ID string    `db:"player1_id"`
	Player2ID *string   `db:"player2_id"`
	Status    string    `db:"status"` // waiting, active, completed
	WinnerID  *string   `db:"winner_id"`
	Revision  int64     `db:"revision"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MoveRecord represents a row in the moves table
type MoveRecord struct {
	MoveID       int64     `db:"move_id"`
	GameID       string    `db:"game_id"`
	MoveNumber   int       `db:"move_number"`
	PlayerID     string    `db:"player_id"`
	Position     int       `db:"position"`
	ClientMoveID *string   `db:"client_move_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// SchemaSQLite defines the SQLite database structure
const SchemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	email TEXT UNIQUE NOT NULL COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	player1_id TEXT NOT NULL,
	player2_id TEXT,
	status TEXT NOT NULL DEFAULT 'waiting' CHECK(status IN ('waiting', 'active', 'completed')),
	winner_id TEXT,
	revision INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	move_number INTEGER NOT NULL,
	player_id TEXT NOT NULL,
	position INTEGER NOT NULL CHECK(position BETWEEN 0 AND 8),
	client_move_id TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, move_number),
	UNIQUE(game_id, client_move_id)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_player1 ON games(player1_id);
CREATE INDEX IF NOT EXISTS idx_games_player2 ON games(player2_id);
CREATE INDEX IF NOT EXISTS idx_games_status_updated ON games(status, updated_at);
`

// SchemaPostgres defines the PostgreSQL database structure
const SchemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	player1_id TEXT NOT NULL,
	player2_id TEXT,
	status TEXT NOT NULL DEFAULT 'waiting' CHECK(status IN ('waiting', 'active', 'completed')),
	winner_id TEXT,
	revision BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS moves (
	move_id BIGSERIAL PRIMARY KEY,
	game_id TEXT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
	move_number INTEGER NOT NULL,
	player_id TEXT NOT NULL,
	position INTEGER NOT NULL CHECK(position BETWEEN 0 AND 8),
	client_move_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE(game_id, move_number),
	UNIQUE(game_id, client_move_id)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_player1 ON games(player1_id);
CREATE INDEX IF NOT EXISTS idx_games_player2 ON games(player2_id);
CREATE INDEX IF NOT EXISTS idx_games_status_updated ON games(status, updated_at);
`

const dropPostgres = `
DROP TABLE IF EXISTS moves;
DROP TABLE IF EXISTS games;
DROP TABLE IF EXISTS users;
`
