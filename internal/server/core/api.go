package core

// Request types

type CreateGameRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
}

type SelectRequest struct {
	X *int `json:"x" validate:"required,min=0,max=7"`
}

type MoveRequest struct {
	X *int `json:"x" validate:"required,min=0,max=7"`
	Y *int `json:"y" validate:"required,min=0,max=7"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=500"`
}

// Response types

type GameResponse struct {
	GameID     string          `json:"gameId"`
	Turn       TurnInfo        `json:"turn"`
	State      string          `json:"state"` // "ongoing", "pending", "deadlock", ...
	LegalMoves []Cell          `json:"legalMoves"`
	Pieces     []PieceInfo     `json:"pieces"`
	Moves      []string        `json:"moves"`
	Players    PlayersResponse `json:"players"`
	LastMove   *MoveInfo       `json:"lastMove,omitempty"`
}

type TurnInfo struct {
	Phase string `json:"phase"`           // "start" or "active"
	Side  string `json:"side"`            // "w" or "b"
	Color string `json:"color,omitempty"` // Active piece color, empty before the opening selection
}

type PieceInfo struct {
	Side  string `json:"side"`
	Color string `json:"color"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

type MoveInfo struct {
	Move       string `json:"move"`
	PieceColor string `json:"pieceColor"`
	PlayerSide string `json:"playerSide"` // "w" or "b"
	Skipped    bool   `json:"skipped,omitempty"`
	Score      int    `json:"score,omitempty"`
	Depth      int    `json:"depth,omitempty"`
}

type BoardResponse struct {
	Board      string `json:"board"` // ASCII representation
	LegalMoves []Cell `json:"legalMoves"`
}

// NewTurnInfo converts a turn state to its wire form
func NewTurnInfo(t TurnState) TurnInfo {
	info := TurnInfo{
		Phase: t.Phase.String(),
		Side:  t.Side.String(),
	}
	if t.Selected() {
		info.Color = t.Color.String()
	}
	return info
}
