// FILE: internal/storage/user.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `user_id, email, password_hash, created_at`

// CreateUser inserts a user, returning ErrDuplicate when the email is taken
func (s *Store) CreateUser(ctx context.Context, record UserRecord) error {
	query := s.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		record.UserID, record.Email, record.PasswordHash, record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return s.getUser(ctx, query, email)
}

// GetUserByID retrieves user by unique user ID
func (s *Store) GetUserByID(ctx context.Context, userID string) (*UserRecord, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE user_id = ?`)
	return s.getUser(ctx, query, userID)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*UserRecord, error) {
	var user UserRecord
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UserID, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// GetAllUsers retrieves all users, newest first
func (s *Store) GetAllUsers(ctx context.Context) ([]UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var user UserRecord
		if err := rows.Scan(&user.UserID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
