package core

type State int

const (
	StateOngoing State = iota
	StatePending       // Computer is calculating a move
	StateStuck         // Engine failed to produce a move
	StateDeadlock      // Neither side can ever move again
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStuck:
		return "stuck"
	case StateDeadlock:
		return "deadlock"
	case StateOngoing:
		return "ongoing"
	default:
		return "unknown"
	}
}

// Phase distinguishes the opening from regular play
type Phase int

const (
	PhaseStart Phase = iota
	PhaseActive
)

func (p Phase) String() string {
	if p == PhaseStart {
		return "start"
	}
	return "active"
}

// TurnState tells whose turn it is and which piece must move.
// In PhaseStart Side is always White and Color is the selected opening
// piece, or ColorNone before a selection is made.
type TurnState struct {
	Phase Phase `json:"phase"`
	Side  Side  `json:"side"`
	Color Color `json:"color"`
}

// StartTurn is the initial turn state of every game
func StartTurn() TurnState {
	return TurnState{Phase: PhaseStart, Side: SideWhite}
}

// ActiveTurn is the state where side must move its piece of the given color
func ActiveTurn(side Side, color Color) TurnState {
	return TurnState{Phase: PhaseActive, Side: side, Color: color}
}

func (t TurnState) IsStart() bool {
	return t.Phase == PhaseStart
}

// Selected reports whether an active piece is known for this turn
func (t TurnState) Selected() bool {
	return t.Color.Valid()
}

func (t TurnState) String() string {
	if t.Phase == PhaseStart {
		if t.Selected() {
			return "start(" + t.Color.String() + ")"
		}
		return "start"
	}
	return t.Side.Name() + "(" + t.Color.String() + ")"
}
