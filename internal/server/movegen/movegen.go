// Package movegen computes the destinations reachable by the active piece.
package movegen

import (
	"kamisado/internal/server/core"
	"kamisado/internal/server/piece"
)

// Ray is one of the three forward sliding directions
type Ray int

const (
	RayForward Ray = iota
	RayDiagonalLeft
	RayDiagonalRight
)

// Rays lists every legal ray
var Rays = [...]Ray{RayForward, RayDiagonalLeft, RayDiagonalRight}

func (r Ray) String() string {
	switch r {
	case RayForward:
		return "forward"
	case RayDiagonalLeft:
		return "diagonal-left"
	case RayDiagonalRight:
		return "diagonal-right"
	default:
		return "unknown"
	}
}

// Step returns the per-cell offset of the ray for the given side
func (r Ray) Step(side core.Side) (dx, dy int) {
	dy = side.Forward()
	switch r {
	case RayDiagonalLeft:
		dx = -1
	case RayDiagonalRight:
		dx = 1
	}
	return dx, dy
}

// MoveSet is an ordered set of destination cells
type MoveSet struct {
	cells []core.Cell
	mask  [core.BoardSize][core.BoardSize]bool
}

func (m *MoveSet) add(x, y int) {
	if m.mask[x][y] {
		return
	}
	m.mask[x][y] = true
	m.cells = append(m.cells, core.Cell{X: x, Y: y})
}

// Contains reports membership; out of range coordinates are never members
func (m *MoveSet) Contains(x, y int) bool {
	return core.InBounds(x, y) && m.mask[x][y]
}

func (m *MoveSet) Len() int {
	return len(m.cells)
}

func (m *MoveSet) Empty() bool {
	return len(m.cells) == 0
}

// Cells returns a copy of the destinations in generation order
func (m *MoveSet) Cells() []core.Cell {
	out := make([]core.Cell, len(m.cells))
	copy(out, m.cells)
	return out
}

// Without returns a copy of the set minus occupied cells
func (m *MoveSet) Without(occ *piece.Occupancy) MoveSet {
	var out MoveSet
	for _, c := range m.cells {
		if !occ.At(c.X, c.Y) {
			out.add(c.X, c.Y)
		}
	}
	return out
}

// Generate casts the three forward rays from p. Each ray stops at the
// board edge or just before the first occupied cell. With opening set the
// occupancy is ignored and only the board edge limits the rays.
func Generate(p piece.Piece, occ *piece.Occupancy, opening bool) MoveSet {
	core.MustInBounds(p.X, p.Y)

	var moves MoveSet
	for _, r := range Rays {
		dx, dy := r.Step(p.Side)
		for x, y := p.X+dx, p.Y+dy; core.InBounds(x, y); x, y = x+dx, y+dy {
			if !opening && occ.At(x, y) {
				break
			}
			moves.add(x, y)
		}
	}
	return moves
}

// RayOf reports which ray from origin reaches target for side, if any
func RayOf(side core.Side, origin, target core.Cell) (Ray, int, bool) {
	dy := (target.Y - origin.Y) * side.Forward()
	if dy <= 0 {
		return 0, 0, false
	}
	switch target.X - origin.X {
	case 0:
		return RayForward, dy, true
	case -dy:
		return RayDiagonalLeft, dy, true
	case dy:
		return RayDiagonalRight, dy, true
	}
	return 0, 0, false
}

func (m *MoveSet) Clone() MoveSet {
	c := *m
	c.cells = m.Cells()
	return c
}
