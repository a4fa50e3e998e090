package game

import (
	"fmt"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
	"kamisado/internal/server/movegen"
	"kamisado/internal/server/piece"
)

// Move records one accepted transition
type Move struct {
	Side    core.Side      `json:"side"`
	Color   core.Color     `json:"color"`
	From    core.Cell      `json:"from"`
	To      core.Cell      `json:"to"`
	Skipped bool           `json:"skipped"` // Opponent had no legal reply and lost its turn
	Next    core.TurnState `json:"next"`
}

// String is the from/to notation, e.g. "d1d5"
func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// Session is the turn engine of a single game. It owns the piece positions,
// the turn state and the published legal move set; the board is shared
// read-only. A Session is not safe for concurrent use.
type Session struct {
	board    *board.Board
	pieces   *piece.Set
	turn     core.TurnState
	legal    movegen.MoveSet
	deadlock bool
}

// NewSession starts a game on b with every piece on its home row
func NewSession(b *board.Board) *Session {
	return &Session{
		board:  b,
		pieces: piece.NewSet(b),
		turn:   core.StartTurn(),
	}
}

// ResumeSession rebuilds a session from explicit positions and turn state
func ResumeSession(b *board.Board, pieces []piece.Piece, turn core.TurnState) (*Session, error) {
	set, err := piece.FromPieces(pieces)
	if err != nil {
		return nil, err
	}
	s := &Session{board: b, pieces: set, turn: turn}
	if turn.Selected() {
		s.legal = s.movesFor(turn.Side, turn.Color, turn.IsStart())
		if s.legal.Empty() && !turn.IsStart() {
			s.deadlock = true
		}
	}
	return s, nil
}

func (s *Session) Board() *board.Board {
	return s.board
}

// Turn returns whose turn it is and which piece must move
func (s *Session) Turn() core.TurnState {
	return s.turn
}

// LegalMoves returns the destinations currently open to the active piece
func (s *Session) LegalMoves() []core.Cell {
	return s.legal.Cells()
}

// IsLegal reports whether (x,y) is in the published legal move set
func (s *Session) IsLegal(x, y int) bool {
	return s.legal.Contains(x, y)
}

// Positions lists all sixteen pieces
func (s *Session) Positions() []piece.Piece {
	return s.pieces.Positions()
}

// PieceAt returns the piece on (x,y), if any
func (s *Session) PieceAt(x, y int) (piece.Piece, bool) {
	return s.pieces.At(x, y)
}

// Deadlocked reports that neither side can ever move again
func (s *Session) Deadlocked() bool {
	return s.deadlock
}

// SelectOpening picks the white home-row piece on column x as the opening
// piece. Only valid before the first move; the choice may be changed.
func (s *Session) SelectOpening(x int) bool {
	core.MustInBounds(x, 0)
	if !s.turn.IsStart() {
		return false
	}
	p, ok := s.pieces.At(x, core.SideWhite.HomeRow())
	if !ok || p.Side != core.SideWhite {
		return false
	}

	s.turn.Color = p.Color
	s.legal = s.movesFor(core.SideWhite, p.Color, true)
	return true
}

// SubmitMove moves the active piece to (x,y). It returns false and leaves
// the session untouched when (x,y) is not a legal destination.
func (s *Session) SubmitMove(x, y int) bool {
	_, err := s.Play(x, y)
	return err == nil
}

// Play is SubmitMove with the resulting Move and a reason on rejection
func (s *Session) Play(x, y int) (Move, error) {
	core.MustInBounds(x, y)
	if s.deadlock {
		return Move{}, ErrGameOver
	}
	if !s.turn.Selected() {
		return Move{}, ErrNoSelection
	}
	if !s.legal.Contains(x, y) {
		return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, core.Cell{X: x, Y: y})
	}

	mover := s.pieces.WithColor(s.turn.Side, s.turn.Color)
	move := Move{
		Side:  mover.Side,
		Color: mover.Color,
		From:  mover.Cell(),
		To:    core.Cell{X: x, Y: y},
	}
	s.pieces.Apply(mover.Ref(), x, y)

	landing := s.board.ColorAt(x, y)
	opponent := core.OppositeSide(mover.Side)

	if reply := s.movesFor(opponent, landing, false); !reply.Empty() {
		s.turn = core.ActiveTurn(opponent, landing)
		s.legal = reply
	} else {
		// Opponent is blocked: the piece that just moved goes again
		move.Skipped = true
		s.turn = core.ActiveTurn(mover.Side, mover.Color)
		s.legal = s.movesFor(mover.Side, mover.Color, false)
		s.deadlock = s.legal.Empty()
	}

	move.Next = s.turn
	return move, nil
}

// movesFor runs the generator for side's piece of the given color. The
// opening ignores occupancy except that it never lands on a piece.
func (s *Session) movesFor(side core.Side, color core.Color, opening bool) movegen.MoveSet {
	p := s.pieces.WithColor(side, color)
	occ := s.pieces.Occupancy()
	if opening {
		moves := movegen.Generate(p, &occ, true)
		return moves.Without(&occ)
	}
	return movegen.Generate(p, &occ, false)
}

// Clone returns an independent copy sharing only the immutable board
func (s *Session) Clone() *Session {
	c := *s
	c.pieces = s.pieces.Clone()
	c.legal = s.legal.Clone()
	return &c
}
