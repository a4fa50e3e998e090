package core

import "fmt"

// BoardSize is the width and height of the board
const BoardSize = 8

// Cell is a board coordinate, x is the file and y the row
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// MustInBounds panics if (x,y) lies outside the board
func MustInBounds(x, y int) {
	if !InBounds(x, y) {
		panic(fmt.Sprintf("coordinate (%d,%d) outside board", x, y))
	}
}

// String renders the cell in file/rank notation, (0,0) is "a1"
func (c Cell) String() string {
	if !InBounds(c.X, c.Y) {
		return "--"
	}
	return fmt.Sprintf("%c%c", 'a'+c.X, '1'+c.Y)
}

// ParseCell parses file/rank notation such as "c4"
func ParseCell(s string) (Cell, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Cell{}, fmt.Errorf("invalid cell: %q", s)
	}
	return Cell{X: int(s[0] - 'a'), Y: int(s[1] - '1')}, nil
}
