// FILE: internal/cache/cache.go
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"tictactoe/internal/core"
)

const (
	// DefaultTTL bounds how long a computed game response may be served
	DefaultTTL = 30 * time.Second

	// DefaultSize caps the number of games held by the in-process cache
	DefaultSize = 10000
)

// Cache holds computed game responses keyed by game id. Implementations
// must be safe for concurrent use. A failing backend behaves as a miss.
//
// Invalidate records the revision that made the entry stale; a later Set
// carrying an older revision is dropped, so a read that started before a
// write cannot put the previous state back.
type Cache interface {
	Get(ctx context.Context, gameID string) (*core.GameResponse, bool)
	Set(ctx context.Context, gameID string, resp *core.GameResponse)
	Invalidate(ctx context.Context, gameID string, revision int64)
	Name() string
}

// Memory is an in-process expiring LRU
type Memory struct {
	mu      sync.Mutex // orders Set against Invalidate
	entries *expirable.LRU[string, *core.GameResponse]
	floors  *expirable.LRU[string, int64]
}

// NewMemory creates an in-process cache; ttl <= 0 selects DefaultTTL
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: expirable.NewLRU[string, *core.GameResponse](DefaultSize, nil, ttl),
		floors:  expirable.NewLRU[string, int64](0, nil, ttl),
	}
}

func (m *Memory) Get(_ context.Context, gameID string) (*core.GameResponse, bool) {
	return m.entries.Get(gameID)
}

func (m *Memory) Set(_ context.Context, gameID string, resp *core.GameResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if floor, ok := m.floors.Peek(gameID); ok && resp.GameInfo.Revision < floor {
		return
	}
	m.entries.Add(gameID, resp)
}

func (m *Memory) Invalidate(_ context.Context, gameID string, revision int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if floor, ok := m.floors.Peek(gameID); ok && floor > revision {
		revision = floor
	}
	m.floors.Add(gameID, revision)
	m.entries.Remove(gameID)
}

func (m *Memory) Name() string { return "memory" }

// Len returns the number of stored responses
func (m *Memory) Len() int {
	return m.entries.Len()
}
