// FILE: internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"go.uber.org/zap"

	"tictactoe/internal/cache"
	"tictactoe/internal/metrics"
	"tictactoe/internal/storage"
)

const (
	DefaultTokenTTL    = 7 * 24 * time.Hour
	DefaultRetention   = 30 * 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
)

// Store is the persistence the service needs
type Store interface {
	CreateGame(ctx context.Context, record storage.GameRecord) error
	GetGame(ctx context.Context, gameID string) (*storage.GameRecord, error)
	JoinGame(ctx context.Context, gameID, playerID string, now time.Time) (bool, error)
	CompleteGame(ctx context.Context, gameID string, winnerID *string, revision int64, now time.Time) (bool, error)
	ListMoves(ctx context.Context, gameID string) ([]storage.MoveRecord, error)
	AppendMove(ctx context.Context, record storage.MoveRecord, winnerID *string) error
	PurgeCompletedGames(ctx context.Context, cutoff time.Time) ([]string, error)

	CreateUser(ctx context.Context, record storage.UserRecord) error
	GetUserByEmail(ctx context.Context, email string) (*storage.UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (*storage.UserRecord, error)

	IsHealthy() bool
	Close() error
}

// Config tunes the service
type Config struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	Retention time.Duration
}

// Service coordinates game lifecycle, move validation, caching and users.
// It keeps no game state in process; every request reads the store.
type Service struct {
	store  Store
	cache  cache.Cache
	waiter *WaitRegistry
	logger *zap.Logger
	cfg    Config
	now    func() time.Time
}

// New creates a service; a nil cache selects the in-process cache
func New(store Store, c cache.Cache, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("jwt secret required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if c == nil {
		c = cache.NewMemory(cache.DefaultTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  store,
		cache:  c,
		waiter: NewWaitRegistry(),
		logger: logger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// CacheBackend names the cache in use
func (s *Service) CacheBackend() string {
	return s.cache.Name()
}

// RegisterWait registers a client to wait for a game revision change
func (s *Service) RegisterWait(gameID string, revision int64, ctx context.Context) <-chan struct{} {
	return s.waiter.RegisterWait(gameID, revision, ctx)
}

// afterMutation drops the cached response and wakes long-poll clients.
// Invalidation runs before the mutating request returns; revision is the
// game's revision after the write.
func (s *Service) afterMutation(ctx context.Context, gameID string, revision int64) {
	s.cache.Invalidate(ctx, gameID, revision)
	s.waiter.NotifyGame(gameID, revision)
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	if closer, ok := s.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}

	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	return errors.Join(errs...)
}

// RunCleanupJob periodically removes completed games past retention
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired(ctx)
		}
	}
}

func (s *Service) cleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.Retention)
	purged, err := s.store.PurgeCompletedGames(ctx, cutoff)
	if err != nil {
		s.logger.Warn("cleanup: failed to purge completed games", zap.Error(err))
		return
	}
	if len(purged) == 0 {
		return
	}

	// Purged games must not be served from cache; pollers wake and read 404
	for _, gameID := range purged {
		s.cache.Invalidate(ctx, gameID, math.MaxInt64)
		s.waiter.RemoveGame(gameID)
	}

	metrics.RecordPurge(int64(len(purged)))
	s.logger.Info("cleanup: purged completed games", zap.Int("count", len(purged)), zap.Time("cutoff", cutoff))
}
