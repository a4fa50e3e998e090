// Package piece holds the sixteen movable pieces and their positions.
package piece

import (
	"fmt"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
)

// Piece is a movable piece identified by its side and color
type Piece struct {
	Color core.Color
	Side  core.Side
	X     int
	Y     int
}

func (p Piece) Cell() core.Cell {
	return core.Cell{X: p.X, Y: p.Y}
}

// Ref addresses a piece inside a Set
type Ref struct {
	Side  core.Side
	Color core.Color
}

func (p Piece) Ref() Ref {
	return Ref{Side: p.Side, Color: p.Color}
}

// Occupancy marks every cell holding a piece of either side, indexed [x][y]
type Occupancy [core.BoardSize][core.BoardSize]bool

func (o *Occupancy) At(x, y int) bool {
	return o[x][y]
}

// Set holds all pieces, indexed by side and palette position
type Set struct {
	pieces [2][core.NumColors]Piece
}

// NewSet places each piece on the home-row tile of its own color
func NewSet(b *board.Board) *Set {
	s := &Set{}
	for _, side := range []core.Side{core.SideWhite, core.SideBlack} {
		for _, c := range core.Colors {
			s.pieces[sideIndex(side)][c.Index()] = Piece{
				Color: c,
				Side:  side,
				X:     b.HomeColumn(side, c),
				Y:     side.HomeRow(),
			}
		}
	}
	return s
}

// FromPieces rebuilds a set from explicit positions. Every side/color pair
// must appear exactly once and no two pieces may share a cell.
func FromPieces(pieces []Piece) (*Set, error) {
	if len(pieces) != 2*core.NumColors {
		return nil, fmt.Errorf("expected %d pieces, got %d", 2*core.NumColors, len(pieces))
	}

	s := &Set{}
	var seen [2][core.NumColors]bool
	var occ Occupancy
	for _, p := range pieces {
		if p.Side != core.SideWhite && p.Side != core.SideBlack {
			return nil, fmt.Errorf("piece has invalid side %d", p.Side)
		}
		if !p.Color.Valid() {
			return nil, fmt.Errorf("piece has invalid color %d", p.Color)
		}
		if !core.InBounds(p.X, p.Y) {
			return nil, fmt.Errorf("piece %s/%s outside board at (%d,%d)", p.Side, p.Color, p.X, p.Y)
		}
		si, ci := sideIndex(p.Side), p.Color.Index()
		if seen[si][ci] {
			return nil, fmt.Errorf("duplicate piece %s/%s", p.Side, p.Color)
		}
		if occ[p.X][p.Y] {
			return nil, fmt.Errorf("cell %s holds two pieces", p.Cell())
		}
		seen[si][ci] = true
		occ[p.X][p.Y] = true
		s.pieces[si][ci] = p
	}
	return s, nil
}

// WithColor returns side's piece of the given color. The invariant of one
// piece per color makes a miss an internal corruption, so it panics.
func (s *Set) WithColor(side core.Side, color core.Color) Piece {
	p := s.pieces[sideIndex(side)][color.Index()]
	if p.Color != color || p.Side != side {
		panic(fmt.Sprintf("piece: no %s piece of color %s", side.Name(), color))
	}
	return p
}

// At returns the piece on (x,y), if any
func (s *Set) At(x, y int) (Piece, bool) {
	core.MustInBounds(x, y)
	for _, side := range s.pieces {
		for _, p := range side {
			if p.X == x && p.Y == y {
				return p, true
			}
		}
	}
	return Piece{}, false
}

// Occupancy snapshots the cells currently holding a piece
func (s *Set) Occupancy() Occupancy {
	var occ Occupancy
	for _, side := range s.pieces {
		for _, p := range side {
			occ[p.X][p.Y] = true
		}
	}
	return occ
}

// Apply moves the referenced piece to (x,y). Legality is the caller's concern.
func (s *Set) Apply(ref Ref, x, y int) {
	core.MustInBounds(x, y)
	p := &s.pieces[sideIndex(ref.Side)][ref.Color.Index()]
	p.X = x
	p.Y = y
}

// Positions lists all pieces, white first, each side in palette order
func (s *Set) Positions() []Piece {
	out := make([]Piece, 0, 2*core.NumColors)
	for _, side := range s.pieces {
		out = append(out, side[:]...)
	}
	return out
}

func (s *Set) Clone() *Set {
	c := *s
	return &c
}

func sideIndex(side core.Side) int {
	switch side {
	case core.SideWhite:
		return 0
	case core.SideBlack:
		return 1
	default:
		panic(fmt.Sprintf("piece: invalid side %d", side))
	}
}
