package commands

import (
	"bytes"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe/internal/cache"
	"tictactoe/internal/client/session"
	"tictactoe/internal/core"
	apphttp "tictactoe/internal/http"
	"tictactoe/internal/service"
	"tictactoe/internal/storage"
)

func newServer(t *testing.T) string {
	t.Helper()
	store, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "client.db"), false)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())

	svc, err := service.New(store, cache.NewMemory(cache.DefaultTTL), service.Config{
		JWTSecret: []byte("client-test-secret-client-test-secret"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Shutdown(time.Second) })

	app := apphttp.NewFiberApp(svc, apphttp.Options{RateLimit: 1000}, nil)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newClient(t *testing.T, url string) (*session.Session, *Registry, *bytes.Buffer) {
	t.Helper()
	s := session.New(url)
	s.Client.Out = io.Discard

	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = io.Discard })
	return s, NewRegistry(s), &buf
}

func TestUnknownCommand(t *testing.T) {
	_, r, buf := newClient(t, "http://127.0.0.1:0")
	assert.False(t, r.Execute("frobnicate"))
	assert.Contains(t, buf.String(), "Unknown command")
	assert.False(t, r.Execute("   "))
}

func TestHelp(t *testing.T) {
	_, r, buf := newClient(t, "http://127.0.0.1:0")
	require.True(t, r.Execute("help"))
	for _, name := range []string{"new", "join", "move", "wait", "quit", "register", "login"} {
		assert.Contains(t, buf.String(), name)
	}

	buf.Reset()
	r.Execute("? m")
	assert.Contains(t, buf.String(), "move <position>")
}

func TestGameRequiresCurrentGame(t *testing.T) {
	_, r, buf := newClient(t, "http://127.0.0.1:0")
	r.Execute("move 4")
	assert.Contains(t, buf.String(), "no current game")
}

func TestPlayThroughServer(t *testing.T) {
	url := newServer(t)

	alice, ra, bufA := newClient(t, url)
	require.True(t, ra.Execute("register alice@example.com hunter22hunter"))
	require.NotEmpty(t, alice.AuthToken, bufA.String())

	require.True(t, ra.Execute("new"))
	require.NotEmpty(t, alice.CurrentGame, bufA.String())
	assert.Equal(t, core.X, alice.PlayerSymbol)
	gameID := alice.CurrentGame

	bob, rb, bufB := newClient(t, url)
	rb.Execute("register bob@example.com hunter22hunter")
	rb.Execute("join " + gameID)
	require.Equal(t, gameID, bob.CurrentGame, bufB.String())
	assert.Equal(t, core.O, bob.PlayerSymbol)

	out = bufA
	bufA.Reset()
	ra.Execute("move 0")
	require.NotNil(t, alice.GameState)
	assert.Equal(t, core.O, alice.GameState.CurrentPlayer)

	// out of turn comes back as a rule error
	bufA.Reset()
	ra.Execute("move 1")
	assert.Contains(t, bufA.String(), core.ErrNotYourTurn)

	out = bufB
	rb.Execute("show")
	assert.Equal(t, int64(2), bob.Revision)

	bufB.Reset()
	rb.Execute("quit")
	assert.Contains(t, bufB.String(), "quit")
	assert.Empty(t, bob.CurrentGame)

	out = bufA
	bufA.Reset()
	ra.Execute("show")
	assert.Contains(t, bufA.String(), "You won!")
}

func TestLogout(t *testing.T) {
	url := newServer(t)
	s, r, buf := newClient(t, url)
	r.Execute("register carol@example.com hunter22hunter")
	require.NotEmpty(t, s.AuthToken)

	r.Execute("logout")
	assert.Empty(t, s.AuthToken)
	assert.Empty(t, s.Client.AuthToken)

	buf.Reset()
	r.Execute("whoami")
	assert.Contains(t, buf.String(), "Not authenticated")
}
