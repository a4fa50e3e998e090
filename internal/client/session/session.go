// Package session holds the interactive client's mutable state
package session

import (
	"kamisado/internal/client/api"
	"kamisado/internal/server/core"
)

type Session struct {
	APIBaseURL  string
	Client      *api.Client
	Verbose     bool
	Username    string
	UserID      string
	CurrentGame string
	// Side the logged-in user owns in the current game, "w", "b" or empty
	PlayerSide    string
	LastMoveCount int
	GameState     *core.GameResponse
}

func New(baseURL string) *Session {
	return &Session{
		APIBaseURL: baseURL,
		Client:     api.New(baseURL),
	}
}

// Track records a fresh game response and derives the user's side
func (s *Session) Track(game *core.GameResponse) {
	s.CurrentGame = game.GameID
	s.LastMoveCount = len(game.Moves)
	s.GameState = game

	s.PlayerSide = ""
	if s.UserID == "" {
		return
	}
	if p := game.Players.White; p != nil && p.UserID == s.UserID {
		s.PlayerSide = "w"
	} else if p := game.Players.Black; p != nil && p.UserID == s.UserID {
		s.PlayerSide = "b"
	}
}

// Forget clears the current game
func (s *Session) Forget() {
	s.CurrentGame = ""
	s.PlayerSide = ""
	s.LastMoveCount = 0
	s.GameState = nil
}

// SetAuth stores credentials on the session and the HTTP client
func (s *Session) SetAuth(token, userID, username string) {
	s.UserID = userID
	s.Username = username
	s.Client.SetToken(token)
}

// Authenticated reports whether a token is held
func (s *Session) Authenticated() bool {
	return s.Client.AuthToken != ""
}
