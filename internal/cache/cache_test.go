package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe/internal/core"
)

func sampleResponse(id string) *core.GameResponse {
	cooldown := 4
	p2 := "p2"
	resp := &core.GameResponse{
		GameID: id,
		GameState: core.GameState{
			CurrentPlayer: core.O,
			CooldownSpot:  &cooldown,
			Moves: core.SymbolMoves{
				X: []core.MoveRef{{Position: 0, MoveIndex: 0}},
				O: []core.MoveRef{},
			},
		},
		GameInfo: core.GameInfo{
			ID:        id,
			Player1ID: "p1",
			Player2ID: &p2,
			Status:    core.StatusActive,
			Revision:  3,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			UpdatedAt: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC),
		},
	}
	resp.GameState.Board[0] = core.X
	return resp
}

func withRevision(resp *core.GameResponse, revision int64) *core.GameResponse {
	resp.GameInfo.Revision = revision
	return resp
}

func TestMemoryHitAndExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(100 * time.Millisecond)

	_, ok := m.Get(ctx, "g1")
	assert.False(t, ok)

	m.Set(ctx, "g1", sampleResponse("g1"))
	got, ok := m.Get(ctx, "g1")
	require.True(t, ok)
	assert.Equal(t, "g1", got.GameID)
	assert.Equal(t, 1, m.Len())

	assert.Eventually(t, func() bool {
		_, ok := m.Get(ctx, "g1")
		return !ok
	}, 2*time.Second, 20*time.Millisecond, "entry expires after the ttl")
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	m.Set(ctx, "g1", sampleResponse("g1"))
	m.Set(ctx, "g2", sampleResponse("g2"))

	m.Invalidate(ctx, "g1", 4)
	_, ok := m.Get(ctx, "g1")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "g2")
	assert.True(t, ok, "invalidation is per game")
}

func TestMemoryRejectsResponseOlderThanInvalidation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	m.Invalidate(ctx, "g1", 4)
	m.Set(ctx, "g1", withRevision(sampleResponse("g1"), 3))
	_, ok := m.Get(ctx, "g1")
	assert.False(t, ok, "a read that started before the write must not be cached")

	m.Set(ctx, "g1", withRevision(sampleResponse("g1"), 4))
	got, ok := m.Get(ctx, "g1")
	require.True(t, ok)
	assert.Equal(t, int64(4), got.GameInfo.Revision)

	// an out of order invalidation never lowers the floor
	m.Invalidate(ctx, "g1", 2)
	m.Set(ctx, "g1", withRevision(sampleResponse("g1"), 3))
	_, ok = m.Get(ctx, "g1")
	assert.False(t, ok)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Set(ctx, "g", sampleResponse("g"))
				m.Get(ctx, "g")
				m.Invalidate(ctx, "g", int64(j))
			}
		}()
	}
	wg.Wait()
}

func newRedisCache(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis("redis://"+mr.Addr()+"/0", ttl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisCache(t, 30*time.Second)

	want := sampleResponse("g1")
	r.Set(ctx, "g1", want)
	assert.True(t, mr.Exists("ttt:game:g1"))

	got, ok := r.Get(ctx, "g1")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisExpiryAndInvalidate(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisCache(t, 30*time.Second)

	r.Set(ctx, "g1", sampleResponse("g1"))
	mr.FastForward(31 * time.Second)
	_, ok := r.Get(ctx, "g1")
	assert.False(t, ok)

	r.Set(ctx, "g1", sampleResponse("g1"))
	r.Invalidate(ctx, "g1", 4)
	_, ok = r.Get(ctx, "g1")
	assert.False(t, ok)
}

func TestRedisRejectsResponseOlderThanInvalidation(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisCache(t, 30*time.Second)

	r.Invalidate(ctx, "g1", 4)
	assert.True(t, mr.Exists("ttt:floor:g1"))

	r.Set(ctx, "g1", withRevision(sampleResponse("g1"), 3))
	assert.False(t, mr.Exists("ttt:game:g1"))

	r.Set(ctx, "g1", withRevision(sampleResponse("g1"), 4))
	got, ok := r.Get(ctx, "g1")
	require.True(t, ok)
	assert.Equal(t, int64(4), got.GameInfo.Revision)

	r.Invalidate(ctx, "g1", 2)
	r.Set(ctx, "g1", withRevision(sampleResponse("g1"), 3))
	assert.False(t, mr.Exists("ttt:game:g1"), "the floor only moves up")

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists("ttt:floor:g1"), "floors expire with the ttl")
}

func TestRedisCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisCache(t, 0)

	require.NoError(t, mr.Set("ttt:game:g1", "{not json"))
	_, ok := r.Get(ctx, "g1")
	assert.False(t, ok)
	assert.False(t, mr.Exists("ttt:game:g1"))
}

func TestRedisUnavailableIsMiss(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedisWithClient(rdb, time.Second, nil)
	mr.Close()

	r.Set(ctx, "g1", sampleResponse("g1"))
	_, ok := r.Get(ctx, "g1")
	assert.False(t, ok)
	r.Invalidate(ctx, "g1", 1)
}

func TestNewRedisRequiresURL(t *testing.T) {
	_, err := NewRedis("  ", time.Second, nil)
	assert.Error(t, err)
}
