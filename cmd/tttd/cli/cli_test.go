package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe/internal/storage"
)

func dbPath(t *testing.T) string {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	return filepath.Join(t.TempDir(), "cli.db")
}

func TestInitAndDelete(t *testing.T) {
	path := dbPath(t)
	var out bytes.Buffer

	require.NoError(t, run(&out, []string{"init", "-dsn", path}))
	assert.Contains(t, out.String(), "Database initialized")
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, run(&out, []string{"delete", "-dsn", path}))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMissingDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	assert.ErrorContains(t, run(&bytes.Buffer{}, []string{"init"}), "database location required")
}

func TestUnknownSubcommand(t *testing.T) {
	assert.Error(t, run(&bytes.Buffer{}, nil))
	assert.ErrorContains(t, run(&bytes.Buffer{}, []string{"frobnicate"}), "unknown subcommand")
	assert.ErrorContains(t, run(&bytes.Buffer{}, []string{"user", "rename"}), "unknown user subcommand")
}

func TestUserAddAndList(t *testing.T) {
	path := dbPath(t)
	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"init", "-dsn", path}))

	out.Reset()
	require.NoError(t, run(&out, []string{"user", "add", "-dsn", path, "-email", "Carol@Example.com", "-password", "letmein123"}))
	assert.Contains(t, out.String(), "carol@example.com")

	err := run(&out, []string{"user", "add", "-dsn", path, "-email", "carol@example.com", "-password", "letmein123"})
	assert.ErrorContains(t, err, "already registered")

	assert.ErrorContains(t, run(&out, []string{"user", "add", "-dsn", path, "-email", "x@y.z", "-password", "short"}), "at least")
	assert.ErrorContains(t, run(&out, []string{"user", "add", "-dsn", path, "-email", "x@y.z", "-password", "a", "-hash", "b"}), "both")

	out.Reset()
	require.NoError(t, run(&out, []string{"user", "list", "-dsn", path}))
	assert.Contains(t, out.String(), "Total users: 1")
}

func TestQueryAndMoves(t *testing.T) {
	path := dbPath(t)
	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"init", "-dsn", path}))

	out.Reset()
	require.NoError(t, run(&out, []string{"query", "-dsn", path}))
	assert.Contains(t, out.String(), "No games found")

	store, err := storage.Open(storage.DriverSQLite, path, false)
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now().UTC()
	gameID := "7f1c3a52-9d0e-4b8a-8e41-2f5d6c7b8a90"
	require.NoError(t, store.CreateGame(ctx, storage.GameRecord{
		GameID: gameID, Player1ID: "player-x", Status: "waiting", CreatedAt: now, UpdatedAt: now,
	}))
	joined, err := store.JoinGame(ctx, gameID, "player-o", now)
	require.NoError(t, err)
	require.True(t, joined)
	for i, p := range []int{4, 0} {
		player := "player-x"
		if i == 1 {
			player = "player-o"
		}
		require.NoError(t, store.AppendMove(ctx, storage.MoveRecord{
			GameID: gameID, MoveNumber: i + 1, PlayerID: player, Position: p, CreatedAt: now,
		}, nil))
	}
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, run(&out, []string{"query", "-dsn", path, "-playerId", "player-o"}))
	assert.Contains(t, out.String(), "Found 1 game(s)")
	assert.Contains(t, out.String(), "active")

	out.Reset()
	require.NoError(t, run(&out, []string{"moves", "-dsn", path, "-gameId", gameID}))
	assert.Contains(t, out.String(), " X ")
	assert.Contains(t, out.String(), " O ")
	assert.Contains(t, out.String(), "Next: X")

	assert.ErrorContains(t, run(&out, []string{"moves", "-dsn", path, "-gameId", "missing"}), "game not found")
}
