package board

import (
	"fmt"
	"strings"

	"kamisado/internal/server/core"
)

// Board is the fixed grid of tile colors, indexed [x][y]
type Board struct {
	tiles [core.BoardSize][core.BoardSize]core.Color
}

// defaultTiles is the standard coloring, one column per x
var defaultTiles = [core.BoardSize][core.BoardSize]core.Color{
	{core.Orange, core.Red, core.Green, core.Pink, core.Yellow, core.Blue, core.Purple, core.Brown},
	{core.Blue, core.Orange, core.Pink, core.Purple, core.Red, core.Yellow, core.Brown, core.Green},
	{core.Purple, core.Pink, core.Orange, core.Blue, core.Green, core.Brown, core.Yellow, core.Red},
	{core.Pink, core.Green, core.Red, core.Orange, core.Brown, core.Purple, core.Blue, core.Yellow},
	{core.Yellow, core.Blue, core.Purple, core.Brown, core.Orange, core.Red, core.Green, core.Pink},
	{core.Red, core.Yellow, core.Brown, core.Green, core.Blue, core.Orange, core.Pink, core.Purple},
	{core.Green, core.Brown, core.Yellow, core.Red, core.Purple, core.Pink, core.Orange, core.Blue},
	{core.Brown, core.Purple, core.Blue, core.Yellow, core.Pink, core.Green, core.Red, core.Orange},
}

// Default returns the standard board
func Default() *Board {
	return &Board{tiles: defaultTiles}
}

// New builds a board from tiles[x][y]. Both home rows must hold every
// color exactly once, since pieces are identified by color.
func New(tiles [core.BoardSize][core.BoardSize]core.Color) (*Board, error) {
	for x := 0; x < core.BoardSize; x++ {
		for y := 0; y < core.BoardSize; y++ {
			if !tiles[x][y].Valid() {
				return nil, fmt.Errorf("invalid board: tile (%d,%d) has no color", x, y)
			}
		}
	}

	for _, side := range []core.Side{core.SideWhite, core.SideBlack} {
		row := side.HomeRow()
		var seen [core.NumColors]bool
		for x := 0; x < core.BoardSize; x++ {
			i := tiles[x][row].Index()
			if seen[i] {
				return nil, fmt.Errorf("invalid board: color %s repeated in row %d", tiles[x][row], row)
			}
			seen[i] = true
		}
	}

	return &Board{tiles: tiles}, nil
}

// ColorAt returns the color of cell (x,y). Out of range coordinates panic.
func (b *Board) ColorAt(x, y int) core.Color {
	core.MustInBounds(x, y)
	return b.tiles[x][y]
}

// HomeColumn returns the x of the tile with the given color on side's home row
func (b *Board) HomeColumn(side core.Side, color core.Color) int {
	row := side.HomeRow()
	for x := 0; x < core.BoardSize; x++ {
		if b.tiles[x][row] == color {
			return x
		}
	}
	panic(fmt.Sprintf("board: color %s missing from home row %d", color, row))
}

// ToASCII renders tile colors by initial, top row first
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for y := core.BoardSize - 1; y >= 0; y-- {
		sb.WriteString(fmt.Sprintf("%d ", y+1))
		for x := 0; x < core.BoardSize; x++ {
			sb.WriteString(fmt.Sprintf("%c ", Initial(b.tiles[x][y])))
		}
		sb.WriteString(fmt.Sprintf(" %d\n", y+1))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

// Initial is the one-letter tile symbol. Pink and Purple clash, so Pink uses 'k'.
func Initial(c core.Color) byte {
	switch c {
	case core.Orange:
		return 'o'
	case core.Blue:
		return 'b'
	case core.Purple:
		return 'p'
	case core.Pink:
		return 'k'
	case core.Yellow:
		return 'y'
	case core.Red:
		return 'r'
	case core.Green:
		return 'g'
	case core.Brown:
		return 'n'
	default:
		return '.'
	}
}
