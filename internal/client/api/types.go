package api

import (
	"time"

	"kamisado/internal/server/core"
)

// Game wire types are shared with the server
type (
	GameResponse      = core.GameResponse
	BoardResponse     = core.BoardResponse
	ErrorResponse     = core.ErrorResponse
	PlayerConfig      = core.PlayerConfig
	CreateGameRequest = core.CreateGameRequest
)

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage,omitempty"`
	Games   int    `json:"games"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
