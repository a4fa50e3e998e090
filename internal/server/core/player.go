package core

import (
	"github.com/google/uuid"
)

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerComputer
)

func (t PlayerType) String() string {
	if t == PlayerComputer {
		return "computer"
	}
	return "human"
}

// Player is the complete game entity with all state
type Player struct {
	ID         string     `json:"id"`
	Side       Side       `json:"side"`
	Type       PlayerType `json:"type"`
	Level      int        `json:"level,omitempty"`      // Only for computer
	SearchTime int        `json:"searchTime,omitempty"` // Only for computer
	UserID     string     `json:"userId,omitempty"`     // Owner of a human slot, empty if anyone may move
}

// PlayerConfig for API requests and configuration
type PlayerConfig struct {
	Type       PlayerType `json:"type" validate:"required,oneof=1 2"`
	Level      int        `json:"level,omitempty" validate:"omitempty,min=0,max=3"`
	SearchTime int        `json:"searchTime,omitempty" validate:"omitempty,min=100,max=10000"` // Processor sets the min value
}

// PlayersResponse for API responses
type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}

// NewPlayer creates a Player from PlayerConfig
func NewPlayer(config PlayerConfig, side Side) *Player {
	player := &Player{
		ID:   uuid.New().String(),
		Side: side,
		Type: config.Type,
	}

	if config.Type == PlayerComputer {
		player.Level = config.Level
		player.SearchTime = config.SearchTime
	}

	return player
}

// CanMove reports whether the given user may move for this player
func (p *Player) CanMove(userID string) bool {
	return p.UserID == "" || p.UserID == userID
}
