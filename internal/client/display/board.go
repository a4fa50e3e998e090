package display

import (
	"fmt"
	"io"
	"strings"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
)

// RenderBoard draws the game on its colored tiles. White pieces are
// upper-case and black lower-case color initials; '*' marks a legal
// destination for the piece to move.
func RenderBoard(w io.Writer, b *board.Board, game *core.GameResponse) {
	var grid [core.BoardSize][core.BoardSize]string
	for _, p := range game.Pieces {
		if !core.InBounds(p.X, p.Y) {
			continue
		}
		grid[p.X][p.Y] = pieceLabel(p)
	}
	for _, m := range game.LegalMoves {
		if core.InBounds(m.X, m.Y) && grid[m.X][m.Y] == "" {
			grid[m.X][m.Y] = Bold + "*"
		}
	}

	files := Cyan + "   a  b  c  d  e  f  g  h" + Reset
	fmt.Fprintln(w, files)
	for y := core.BoardSize - 1; y >= 0; y-- {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s%d%s ", Cyan, y+1, Reset)
		for x := 0; x < core.BoardSize; x++ {
			cell := grid[x][y]
			if cell == "" {
				cell = " "
			}
			sb.WriteString(Bg(b.ColorAt(x, y)))
			sb.WriteString(" " + cell + " ")
			sb.WriteString(Reset)
		}
		fmt.Fprintf(&sb, " %s%d%s", Cyan, y+1, Reset)
		fmt.Fprintln(w, sb.String())
	}
	fmt.Fprintln(w, files)
}

func pieceLabel(p core.PieceInfo) string {
	c, err := core.ParseColor(p.Color)
	if err != nil {
		return "?"
	}
	initial := string(board.Initial(c))
	if p.Side == "w" {
		return Bold + "\033[97m" + strings.ToUpper(initial)
	}
	return Bold + "\033[30m" + strings.ToLower(initial)
}

// TurnLine summarizes whose turn it is
func TurnLine(game *core.GameResponse) string {
	turn := game.Turn
	switch {
	case turn.Phase == "start" && turn.Color == "":
		return fmt.Sprintf("%s to choose an opening piece", ForSide(turn.Side))
	case turn.Color == "":
		return ForSide(turn.Side)
	}
	c, err := core.ParseColor(turn.Color)
	if err != nil {
		return fmt.Sprintf("%s %s", ForSide(turn.Side), turn.Color)
	}
	return fmt.Sprintf("%s %s%s%s", ForSide(turn.Side), Fg(c), turn.Color, Reset)
}

// MoveHistory lists moves with their numbers
func MoveHistory(moves []string) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = fmt.Sprintf("%d.%s", i+1, m)
	}
	return strings.Join(parts, " ")
}
