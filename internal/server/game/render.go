package game

import (
	"fmt"
	"strings"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
)

// ToASCII draws the position: white pieces upper case, black pieces lower
// case (by color initial), legal destinations '*', empty tiles '.'
func (s *Session) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for y := core.BoardSize - 1; y >= 0; y-- {
		sb.WriteString(fmt.Sprintf("%d ", y+1))
		for x := 0; x < core.BoardSize; x++ {
			sb.WriteString(fmt.Sprintf("%c ", s.symbolAt(x, y)))
		}
		sb.WriteString(fmt.Sprintf(" %d\n", y+1))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

func (s *Session) symbolAt(x, y int) byte {
	if p, ok := s.pieces.At(x, y); ok {
		ch := board.Initial(p.Color)
		if p.Side == core.SideWhite {
			ch -= 'a' - 'A'
		}
		return ch
	}
	if s.legal.Contains(x, y) {
		return '*'
	}
	return '.'
}
