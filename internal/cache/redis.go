// FILE: internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tictactoe/internal/core"
)

const (
	keyPrefix   = "ttt:game:"
	floorPrefix = "ttt:floor:"
)

// setScript writes the response unless its revision is below the floor
// left by the last invalidation.
// KEYS: game, floor. ARGV: payload, revision, ttl ms.
var setScript = redis.NewScript(`
local floor = tonumber(redis.call('GET', KEYS[2]) or '-1')
if tonumber(ARGV[2]) < floor then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// invalidateScript raises the floor to the given revision and drops the
// response. KEYS: game, floor. ARGV: revision, ttl ms.
var invalidateScript = redis.NewScript(`
local floor = tonumber(redis.call('GET', KEYS[2]) or '-1')
if tonumber(ARGV[1]) > floor then
	redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
else
	redis.call('PEXPIRE', KEYS[2], ARGV[2])
end
redis.call('DEL', KEYS[1])
return 1
`)

// Redis stores responses in Redis so that several server processes share
// one cache. Expiry is delegated to the key TTL.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to redisURL (redis://host:port/db) and pings it
func NewRedis(redisURL string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required for redis cache")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(rdb, ttl, logger), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{rdb: rdb, ttl: ttl, logger: logger}
}

func gameKey(id string) string { return keyPrefix + id }
func floorKey(id string) string { return floorPrefix + id }

func (r *Redis) Get(ctx context.Context, gameID string) (*core.GameResponse, bool) {
	raw, err := r.rdb.Get(ctx, gameKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("cache get failed", zap.String("game_id", gameID), zap.Error(err))
		return nil, false
	}

	var resp core.GameResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		r.logger.Warn("cache entry corrupt", zap.String("game_id", gameID), zap.Error(err))
		r.rdb.Del(ctx, gameKey(gameID))
		return nil, false
	}
	return &resp, true
}

func (r *Redis) Set(ctx context.Context, gameID string, resp *core.GameResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	keys := []string{gameKey(gameID), floorKey(gameID)}
	err = setScript.Run(ctx, r.rdb, keys, raw, resp.GameInfo.Revision, r.ttl.Milliseconds()).Err()
	if err != nil {
		r.logger.Warn("cache set failed", zap.String("game_id", gameID), zap.Error(err))
	}
}

func (r *Redis) Invalidate(ctx context.Context, gameID string, revision int64) {
	keys := []string{gameKey(gameID), floorKey(gameID)}
	if err := invalidateScript.Run(ctx, r.rdb, keys, revision, r.ttl.Milliseconds()).Err(); err != nil {
		r.logger.Warn("cache invalidate failed", zap.String("game_id", gameID), zap.Error(err))
	}
}

func (r *Redis) Name() string { return "redis" }

// Close releases the client
func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
