package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "ttt.db"), false)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func seedActiveGame(t *testing.T, s *Store, id string) time.Time {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.CreateGame(ctx, GameRecord{
		GameID: id, Player1ID: "p1", Status: "waiting", CreatedAt: now, UpdatedAt: now,
	}))
	ok, err := s.JoinGame(ctx, id, "p2", now)
	require.NoError(t, err)
	require.True(t, ok)
	return now
}

func TestGameLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := seedActiveGame(t, s, "g1")

	g, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "active", g.Status)
	require.NotNil(t, g.Player2ID)
	assert.Equal(t, "p2", *g.Player2ID)
	assert.Nil(t, g.WinnerID)
	assert.EqualValues(t, 1, g.Revision)

	ok, err := s.JoinGame(ctx, "g1", "p3", now)
	require.NoError(t, err)
	assert.False(t, ok, "second join must not replace the seated player")

	ok, err = s.CompleteGame(ctx, "g1", strPtr("p1"), 0, now)
	require.NoError(t, err)
	assert.False(t, ok, "a stale revision must not complete the game")

	ok, err = s.CompleteGame(ctx, "g1", strPtr("p1"), 1, now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.CompleteGame(ctx, "g1", strPtr("p2"), 2, now)
	require.NoError(t, err)
	assert.False(t, ok, "a completed game stays completed")

	g, err = s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "completed", g.Status)
	assert.Equal(t, "p1", *g.WinnerID)
	assert.EqualValues(t, 2, g.Revision)
}

func TestGetGameNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetGame(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendMoveOrderingAndConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := seedActiveGame(t, s, "g1")

	for i, pos := range []int{4, 0, 8} {
		player := "p1"
		if i%2 == 1 {
			player = "p2"
		}
		require.NoError(t, s.AppendMove(ctx, MoveRecord{
			GameID: "g1", MoveNumber: i + 1, PlayerID: player, Position: pos, CreatedAt: now,
		}, nil))
	}

	err := s.AppendMove(ctx, MoveRecord{GameID: "g1", MoveNumber: 3, PlayerID: "p2", Position: 1, CreatedAt: now}, nil)
	assert.ErrorIs(t, err, ErrConflict)

	moves, err := s.ListMoves(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, moves, 3)
	for i, m := range moves {
		assert.Equal(t, i+1, m.MoveNumber)
	}
	assert.Equal(t, 8, moves[2].Position)

	g, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, g.Revision, "failed append rolled back its revision bump")
}

func TestAppendMoveDuplicateClientMoveID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := seedActiveGame(t, s, "g1")

	rec := MoveRecord{GameID: "g1", MoveNumber: 1, PlayerID: "p1", Position: 4, ClientMoveID: strPtr("c1"), CreatedAt: now}
	require.NoError(t, s.AppendMove(ctx, rec, nil))

	rec.MoveNumber = 2
	rec.PlayerID = "p2"
	assert.ErrorIs(t, s.AppendMove(ctx, rec, nil), ErrConflict)

	moves, err := s.ListMoves(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "c1", *moves[0].ClientMoveID)
}

func TestAppendMoveFinalizesWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := seedActiveGame(t, s, "g1")

	require.NoError(t, s.AppendMove(ctx, MoveRecord{GameID: "g1", MoveNumber: 1, PlayerID: "p1", Position: 0, CreatedAt: now}, strPtr("p1")))

	g, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "completed", g.Status)
	assert.Equal(t, "p1", *g.WinnerID)

	err = s.AppendMove(ctx, MoveRecord{GameID: "g1", MoveNumber: 2, PlayerID: "p2", Position: 1, CreatedAt: now}, nil)
	assert.ErrorIs(t, err, ErrConflict, "completed games accept no moves")
}

func TestAppendMoveConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := seedActiveGame(t, s, "g1")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.AppendMove(ctx, MoveRecord{GameID: "g1", MoveNumber: 1, PlayerID: "p1", Position: i, CreatedAt: now}, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, succeeded)

	moves, err := s.ListMoves(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, moves, 1)
}

func TestPurgeCompletedGames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)

	seedActiveGame(t, s, "old")
	require.NoError(t, s.AppendMove(ctx, MoveRecord{GameID: "old", MoveNumber: 1, PlayerID: "p1", Position: 4, CreatedAt: old}, nil))
	ok, err := s.CompleteGame(ctx, "old", nil, 2, old)
	require.NoError(t, err)
	require.True(t, ok)

	seedActiveGame(t, s, "live")

	ids, err := s.PurgeCompletedGames(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids)

	ids, err = s.PurgeCompletedGames(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = s.GetGame(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	moves, err := s.ListMoves(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, moves)

	_, err = s.GetGame(ctx, "live")
	assert.NoError(t, err)
}

func TestQueryGames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedActiveGame(t, s, "g1")
	seedActiveGame(t, s, "g2")

	all, err := s.QueryGames(ctx, "*", "*")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := s.QueryGames(ctx, "g2", "")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "g2", one[0].GameID)

	none, err := s.QueryGames(ctx, "*", "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateUser(ctx, UserRecord{UserID: "u1", Email: "a@example.com", PasswordHash: "h", CreatedAt: now}))
	err := s.CreateUser(ctx, UserRecord{UserID: "u2", Email: "a@example.com", PasswordHash: "h", CreatedAt: now})
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)

	u, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = s.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestDeleteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.db")
	s, err := Open(DriverSQLite, path, true)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	require.NoError(t, s.DeleteDB())
	assert.NoFileExists(t, path)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn", false)
	assert.Error(t, err)
}
