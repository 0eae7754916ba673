// FILE: internal/service/user.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"go.uber.org/zap"

	"tictactoe/internal/core"
	"tictactoe/internal/storage"
)

// User represents a registered user account
type User struct {
	UserID    string
	Email     string
	CreatedAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers an account and returns it
func (s *Service) CreateUser(ctx context.Context, email, password string) (*User, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}

	if err := s.store.CreateUser(ctx, record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, core.EmailTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", record.UserID))
	return &User{UserID: record.UserID, Email: record.Email, CreatedAt: record.CreatedAt}, nil
}

// AuthenticateUser verifies credentials and returns the account
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	record, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		// Always hash to prevent timing attacks
		auth.HashPassword(password)
		return nil, core.InvalidCredential
	}

	if err := auth.VerifyPassword(password, record.PasswordHash); err != nil {
		return nil, core.InvalidCredential
	}

	return &User{UserID: record.UserID, Email: record.Email, CreatedAt: record.CreatedAt}, nil
}

// GetUserByID retrieves user information by user ID
func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	record, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.UserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &User{UserID: record.UserID, Email: record.Email, CreatedAt: record.CreatedAt}, nil
}

// GenerateUserToken creates a JWT for user and returns it with its expiry
func (s *Service) GenerateUserToken(user *User) (string, time.Time, error) {
	claims := map[string]any{
		"email": user.Email,
	}

	expiresAt := s.now().Add(s.cfg.TokenTTL)
	token, err := auth.GenerateHS256Token(s.cfg.JWTSecret, user.UserID, claims, s.cfg.TokenTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateToken verifies JWT token and returns user ID with claims
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	return auth.ValidateHS256Token(s.cfg.JWTSecret, token)
}
