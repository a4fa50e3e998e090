package core

// Side is one of the two competing players
type Side byte

const (
	SideWhite Side = iota + 1
	SideBlack
)

func (s Side) String() string {
	if s == SideWhite {
		return "w"
	} else if s == SideBlack {
		return "b"
	} else {
		return "-"
	}
}

// Name returns the human readable side name
func (s Side) Name() string {
	switch s {
	case SideWhite:
		return "White"
	case SideBlack:
		return "Black"
	default:
		return "None"
	}
}

// Forward is the y step of a side's forward direction
func (s Side) Forward() int {
	if s == SideBlack {
		return -1
	}
	return 1
}

// HomeRow is the row a side's pieces start on
func (s Side) HomeRow() int {
	if s == SideBlack {
		return BoardSize - 1
	}
	return 0
}

func OppositeSide(s Side) Side {
	if s == SideWhite {
		return SideBlack
	}
	return SideWhite
}
