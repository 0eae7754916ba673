// FILE: internal/client/session/session.go
package session

import (
	"tictactoe/internal/client/api"
	"tictactoe/internal/core"
)

// Session holds the interactive client's state between commands
type Session struct {
	APIBaseURL   string
	Client       *api.Client
	UserID       string
	Email        string
	AuthToken    string
	CurrentGame  string
	PlayerSymbol core.Symbol
	Revision     int64
	GameState    *core.GameState
	Verbose      bool
}

func New(baseURL string) *Session {
	return &Session{
		APIBaseURL: baseURL,
		Client:     api.New(baseURL),
		Revision:   -1,
	}
}

func (s *Session) GetAPIBaseURL() string { return s.APIBaseURL }

func (s *Session) SetAPIBaseURL(url string) {
	s.APIBaseURL = url
	s.Client.SetBaseURL(url)
}

func (s *Session) GetClient() *api.Client { return s.Client }
func (s *Session) IsVerbose() bool        { return s.Verbose }

// SetAuth records the logged in user, an empty token logs out
func (s *Session) SetAuth(userID, email, token string) {
	s.UserID = userID
	s.Email = email
	s.AuthToken = token
	s.Client.SetToken(token)
}

func (s *Session) GetAuthToken() string { return s.AuthToken }
func (s *Session) GetUserID() string    { return s.UserID }
func (s *Session) GetEmail() string     { return s.Email }

// SetCurrentGame switches games and forgets everything known about the last
func (s *Session) SetCurrentGame(gameID string, symbol core.Symbol) {
	s.CurrentGame = gameID
	s.PlayerSymbol = symbol
	s.Revision = -1
	s.GameState = nil
}

func (s *Session) GetCurrentGame() string          { return s.CurrentGame }
func (s *Session) GetPlayerSymbol() core.Symbol    { return s.PlayerSymbol }
func (s *Session) SetPlayerSymbol(sym core.Symbol) { s.PlayerSymbol = sym }
func (s *Session) GetRevision() int64              { return s.Revision }
func (s *Session) SetRevision(rev int64)           { s.Revision = rev }
func (s *Session) GetGameState() *core.GameState   { return s.GameState }

func (s *Session) SetGameState(state *core.GameState) {
	s.GameState = state
}
