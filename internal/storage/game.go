// FILE: internal/storage/game.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const gameColumns = `game_id, player1_id, player2_id, status, winner_id, revision, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*GameRecord, error) {
	var g GameRecord
	err := row.Scan(
		&g.GameID, &g.Player1ID, &g.Player2ID, &g.Status,
		&g.WinnerID, &g.Revision, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGame inserts a new game row
func (s *Store) CreateGame(ctx context.Context, record GameRecord) error {
	query := s.rebind(`INSERT INTO games (` + gameColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		record.GameID, record.Player1ID, record.Player2ID, record.Status,
		record.WinnerID, record.Revision, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// GetGame retrieves a game by ID
func (s *Store) GetGame(ctx context.Context, gameID string) (*GameRecord, error) {
	query := s.rebind(`SELECT ` + gameColumns + ` FROM games WHERE game_id = ?`)

	g, err := scanGame(s.db.QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return g, nil
}

// JoinGame seats playerID as the second player and activates the game. It
// reports false when the game is no longer waiting for an opponent.
func (s *Store) JoinGame(ctx context.Context, gameID, playerID string, now time.Time) (bool, error) {
	query := s.rebind(`UPDATE games
		SET player2_id = ?, status = 'active', revision = revision + 1, updated_at = ?
		WHERE game_id = ? AND status = 'waiting' AND player2_id IS NULL`)

	res, err := s.db.ExecContext(ctx, query, playerID, now, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to join game %s: %w", gameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CompleteGame marks a game completed with an optional winner. It reports
// false when the game is already completed or its revision is no longer
// the one the caller decided on.
func (s *Store) CompleteGame(ctx context.Context, gameID string, winnerID *string, revision int64, now time.Time) (bool, error) {
	query := s.rebind(`UPDATE games
		SET status = 'completed', winner_id = ?, revision = revision + 1, updated_at = ?
		WHERE game_id = ? AND revision = ? AND status <> 'completed'`)

	res, err := s.db.ExecContext(ctx, query, winnerID, now, gameID, revision)
	if err != nil {
		return false, fmt.Errorf("failed to complete game %s: %w", gameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListMoves returns the move log of a game ordered by move number
func (s *Store) ListMoves(ctx context.Context, gameID string) ([]MoveRecord, error) {
	query := s.rebind(`SELECT move_id, game_id, move_number, player_id, position, client_move_id, created_at
		FROM moves WHERE game_id = ? ORDER BY move_number ASC`)

	rows, err := s.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	moves := []MoveRecord{}
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(
			&m.MoveID, &m.GameID, &m.MoveNumber, &m.PlayerID,
			&m.Position, &m.ClientMoveID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}

// AppendMove records a move and bumps the game revision in one transaction.
// A non-nil winnerID also completes the game. The game must still be active
// and the move number unused, otherwise ErrConflict is returned and nothing
// is written.
func (s *Store) AppendMove(ctx context.Context, record MoveRecord, winnerID *string) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := `UPDATE games SET revision = revision + 1, updated_at = ? WHERE game_id = ? AND status = 'active'`
	args := []any{record.CreatedAt, record.GameID}
	if winnerID != nil {
		update = `UPDATE games SET status = 'completed', winner_id = ?, revision = revision + 1, updated_at = ?
			WHERE game_id = ? AND status = 'active'`
		args = []any{*winnerID, record.CreatedAt, record.GameID}
	}

	res, err := tx.ExecContext(ctx, s.rebind(update), args...)
	if err != nil {
		return fmt.Errorf("failed to update game %s: %w", record.GameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}

	insert := s.rebind(`INSERT INTO moves (game_id, move_number, player_id, position, client_move_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, insert,
		record.GameID, record.MoveNumber, record.PlayerID,
		record.Position, record.ClientMoveID, record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert move: %w", err)
	}

	return s.commit(tx)
}

// purgeBatch bounds the number of ids bound into one DELETE
const purgeBatch = 500

// PurgeCompletedGames deletes completed games last updated before cutoff
// together with their moves, returning the ids removed
func (s *Store) PurgeCompletedGames(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		s.rebind(`SELECT game_id FROM games WHERE status = 'completed' AND updated_at < ?`), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired games: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	for start := 0; start < len(ids); start += purgeBatch {
		batch := ids[start:min(start+purgeBatch, len(ids))]
		in := strings.TrimSuffix(strings.Repeat("?, ", len(batch)), ", ")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM moves WHERE game_id IN (`+in+`)`), args...); err != nil {
			return nil, fmt.Errorf("failed to delete moves: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM games WHERE game_id IN (`+in+`)`), args...); err != nil {
			return nil, fmt.Errorf("failed to delete games: %w", err)
		}
	}

	if err := s.commit(tx); err != nil {
		return nil, err
	}
	return ids, nil
}

// QueryGames retrieves games with optional filtering, "*" or empty matches all
func (s *Store) QueryGames(ctx context.Context, gameID, playerID string) ([]GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE 1=1`

	var args []any

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}

	if playerID != "" && playerID != "*" {
		query += " AND (player1_id = ? OR player2_id = ?)"
		args = append(args, playerID, playerID)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, *g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}
