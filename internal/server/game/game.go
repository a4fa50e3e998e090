package game

import (
	"fmt"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
)

type Snapshot struct {
	Session  *Session `json:"-"`
	Move     *Move    `json:"move,omitempty"` // Move that created this position (nil for initial)
	PlayerID string   `json:"playerId"`       // ID of the player whose turn it is
}

// MoveResult tracks the outcome of a move
type MoveResult struct {
	Move      Move       `json:"move"`
	GameState core.State `json:"gameState"`
	Score     int        `json:"score"`
	Depth     int        `json:"depth"`
}

type Game struct {
	snapshots  []Snapshot
	players    map[core.Side]*core.Player
	state      core.State
	lastResult *MoveResult
}

func New(b *board.Board, whitePlayer, blackPlayer *core.Player) *Game {
	return &Game{
		snapshots: []Snapshot{
			{
				Session:  NewSession(b),
				PlayerID: whitePlayer.ID, // White always opens
			},
		},
		players: map[core.Side]*core.Player{
			core.SideWhite: whitePlayer,
			core.SideBlack: blackPlayer,
		},
		state: core.StateOngoing,
	}
}

func (g *Game) SetLastResult(result *MoveResult) {
	g.lastResult = result
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

// CurrentSnapshot returns the latest game snapshot
func (g *Game) CurrentSnapshot() Snapshot {
	return g.snapshots[len(g.snapshots)-1]
}

// Session returns the live turn engine. Callers must not mutate it directly.
func (g *Game) Session() *Session {
	return g.CurrentSnapshot().Session
}

func (g *Game) Turn() core.TurnState {
	return g.Session().Turn()
}

func (g *Game) NextSide() core.Side {
	return g.Turn().Side
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextSide()]
}

func (g *Game) GetPlayer(side core.Side) *core.Player {
	return g.players[side]
}

// SelectOpening chooses White's opening piece by its home-row column
func (g *Game) SelectOpening(x int) error {
	if !core.InBounds(x, 0) {
		return fmt.Errorf("%w: column %d", ErrIllegalMove, x)
	}
	sess := g.Session()
	if !sess.Turn().IsStart() {
		return ErrNotOpening
	}
	if !sess.SelectOpening(x) {
		return ErrNotYourPiece
	}
	return nil
}

// ApplyMove plays (x,y) on a copy of the current position and appends the
// result to the history, so earlier snapshots stay intact for undo.
func (g *Game) ApplyMove(x, y int) (Move, error) {
	if !core.InBounds(x, y) {
		return Move{}, fmt.Errorf("%w: (%d,%d) outside board", ErrIllegalMove, x, y)
	}
	if g.State() == core.StateDeadlock {
		return Move{}, ErrGameOver
	}

	next := g.Session().Clone()
	move, err := next.Play(x, y)
	if err != nil {
		return Move{}, err
	}

	g.snapshots = append(g.snapshots, Snapshot{
		Session:  next,
		Move:     &move,
		PlayerID: g.players[move.Next.Side].ID,
	})
	return move, nil
}

func (g *Game) UpdatePlayers(whitePlayer, blackPlayer *core.Player) {
	g.players[core.SideWhite] = whitePlayer
	g.players[core.SideBlack] = blackPlayer

	// Update current snapshot's PlayerID to reflect new player
	currentSnap := &g.snapshots[len(g.snapshots)-1]
	currentSnap.PlayerID = g.players[currentSnap.Session.Turn().Side].ID
}

func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidUndo, count)
	}

	availableMoves := len(g.snapshots) - 1
	if availableMoves < count {
		return fmt.Errorf("%w: cannot undo %d moves, only %d available", ErrInvalidUndo, count, availableMoves)
	}

	g.snapshots = g.snapshots[:len(g.snapshots)-count]
	g.state = core.StateOngoing // Reset game state when undoing
	g.lastResult = nil          // Clear last result
	return nil
}

// History returns the accepted moves in order
func (g *Game) History() []Move {
	moves := make([]Move, 0, len(g.snapshots)-1)
	for i := 1; i < len(g.snapshots); i++ {
		if m := g.snapshots[i].Move; m != nil {
			moves = append(moves, *m)
		}
	}
	return moves
}

// Moves returns the history in from/to notation
func (g *Game) Moves() []string {
	moves := []string{}
	for _, m := range g.History() {
		moves = append(moves, m.String())
	}
	return moves
}

// State reports deadlock from the position, otherwise the stored state
func (g *Game) State() core.State {
	if g.Session().Deadlocked() {
		return core.StateDeadlock
	}
	return g.state
}

func (g *Game) SetState(s core.State) {
	g.state = s
}

// CanManage reports whether userID may reconfigure, undo or delete the
// game. Games without user-bound slots are open to everyone.
func (g *Game) CanManage(userID string) bool {
	owned := false
	for _, p := range g.players {
		if p.UserID == "" {
			continue
		}
		if p.UserID == userID {
			return true
		}
		owned = true
	}
	return !owned
}
