package piece

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
)

func TestNewSetPlacesPiecesOnOwnColor(t *testing.T) {
	b := board.Default()
	s := NewSet(b)

	for _, side := range []core.Side{core.SideWhite, core.SideBlack} {
		for _, c := range core.Colors {
			p := s.WithColor(side, c)
			if p.Y != side.HomeRow() {
				t.Fatalf("%s %s: expected row %d, got %d", side.Name(), c, side.HomeRow(), p.Y)
			}
			if got := b.ColorAt(p.X, p.Y); got != c {
				t.Fatalf("%s %s sits on %s tile", side.Name(), c, got)
			}
		}
	}

	if p := s.WithColor(core.SideBlack, core.Orange); p.X != 7 {
		t.Fatalf("black orange expected at x=7, got %d", p.X)
	}
	if p := s.WithColor(core.SideWhite, core.Orange); p.X != 0 {
		t.Fatalf("white orange expected at x=0, got %d", p.X)
	}
}

func TestWithColorFindsExactlyOne(t *testing.T) {
	s := NewSet(board.Default())
	for _, side := range []core.Side{core.SideWhite, core.SideBlack} {
		for _, c := range core.Colors {
			count := 0
			for _, p := range s.Positions() {
				if p.Side == side && p.Color == c {
					count++
				}
			}
			if count != 1 {
				t.Fatalf("%s %s: expected one piece, found %d", side.Name(), c, count)
			}
		}
	}
}

// shuffledHomeRows returns the default coloring with both home rows
// independently permuted
func shuffledHomeRows(t *testing.T, rng *rand.Rand) *board.Board {
	t.Helper()
	def := board.Default()
	var tiles [core.BoardSize][core.BoardSize]core.Color
	for x := 0; x < core.BoardSize; x++ {
		for y := 0; y < core.BoardSize; y++ {
			tiles[x][y] = def.ColorAt(x, y)
		}
	}
	for _, row := range []int{core.SideWhite.HomeRow(), core.SideBlack.HomeRow()} {
		perm := rng.Perm(core.BoardSize)
		for x, c := range core.Colors {
			tiles[perm[x]][row] = c
		}
	}

	b, err := board.New(tiles)
	if err != nil {
		t.Fatalf("shuffled board rejected: %v", err)
	}
	return b
}

func TestWithColorOnShuffledHomeRows(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		b := shuffledHomeRows(t, rng)
		s := NewSet(b)

		occupied := map[core.Cell]bool{}
		for _, p := range s.Positions() {
			occupied[p.Cell()] = true
		}
		if len(occupied) != 16 {
			t.Fatalf("trial %d: expected 16 distinct cells, got %d", trial, len(occupied))
		}

		for _, side := range []core.Side{core.SideWhite, core.SideBlack} {
			for _, c := range core.Colors {
				var matches []Piece
				for _, p := range s.Positions() {
					if p.Side == side && p.Color == c {
						matches = append(matches, p)
					}
				}
				if len(matches) != 1 {
					t.Fatalf("trial %d: %s %s: expected one piece, found %d", trial, side.Name(), c, len(matches))
				}

				p := s.WithColor(side, c)
				if diff := cmp.Diff(matches[0], p); diff != "" {
					t.Fatalf("trial %d: WithColor mismatch (-want +got):\n%s", trial, diff)
				}
				if p.Y != side.HomeRow() || p.X != b.HomeColumn(side, c) || b.ColorAt(p.X, p.Y) != c {
					t.Fatalf("trial %d: %s %s misplaced at (%d,%d)", trial, side.Name(), c, p.X, p.Y)
				}
			}
		}
	}
}

func TestAtAndOccupancy(t *testing.T) {
	s := NewSet(board.Default())

	p, ok := s.At(3, 0)
	if !ok || p.Side != core.SideWhite || p.Color != core.Pink {
		t.Fatalf("expected white pink at d1, got %+v (ok=%v)", p, ok)
	}
	if _, ok := s.At(3, 3); ok {
		t.Fatalf("expected d4 to be empty")
	}

	occ := s.Occupancy()
	for x := 0; x < core.BoardSize; x++ {
		for y := 0; y < core.BoardSize; y++ {
			want := y == 0 || y == 7
			if occ.At(x, y) != want {
				t.Fatalf("occupancy (%d,%d): expected %v", x, y, want)
			}
		}
	}
}

func TestApplyMovesOnlyReferencedPiece(t *testing.T) {
	s := NewSet(board.Default())
	before := s.Positions()

	ref := Ref{Side: core.SideWhite, Color: core.Yellow}
	s.Apply(ref, 4, 5)

	after := s.Positions()
	changed := 0
	for i := range before {
		if before[i] != after[i] {
			changed++
			want := Piece{Color: core.Yellow, Side: core.SideWhite, X: 4, Y: 5}
			if diff := cmp.Diff(want, after[i]); diff != "" {
				t.Fatalf("moved piece mismatch (-want +got):\n%s", diff)
			}
		}
	}
	if changed != 1 {
		t.Fatalf("expected exactly one moved piece, got %d", changed)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSet(board.Default())
	c := s.Clone()
	c.Apply(Ref{Side: core.SideBlack, Color: core.Red}, 2, 2)

	if diff := cmp.Diff(NewSet(board.Default()).Positions(), s.Positions()); diff != "" {
		t.Fatalf("original changed by clone mutation (-want +got):\n%s", diff)
	}
}

func TestFromPiecesValidates(t *testing.T) {
	good := NewSet(board.Default()).Positions()
	if _, err := FromPieces(good); err != nil {
		t.Fatalf("valid layout rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]Piece) []Piece
	}{
		{"TooFew", func(p []Piece) []Piece { return p[:15] }},
		{"Duplicate", func(p []Piece) []Piece { p[1].Color = p[0].Color; return p }},
		{"Stacked", func(p []Piece) []Piece { p[1].X, p[1].Y = p[0].X, p[0].Y; return p }},
		{"OutOfBounds", func(p []Piece) []Piece { p[2].Y = 8; return p }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := append([]Piece(nil), good...)
			if _, err := FromPieces(tt.mutate(pieces)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
