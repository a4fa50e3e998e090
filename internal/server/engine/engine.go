package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"kamisado/internal/server/core"
	"kamisado/internal/server/game"
)

// Scoring weights, ordered so that a forced skip outranks any mobility
// difference and mobility outranks forward progress.
const (
	skipBonus      = 1000
	mobilityWeight = 10

	maxLevel = 3
)

var ErrNoMoves = errors.New("no legal moves")

// Candidate is one playable decision: an optional opening selection
// followed by a destination.
type Candidate struct {
	Select int // home-row column of the opening piece, -1 outside the opening
	To     core.Cell
}

type SearchResult struct {
	Best  Candidate
	Score int
	Depth int
}

// Engine searches a single position. It is not safe for concurrent use;
// each worker owns one.
type Engine struct {
	rng   *rand.Rand
	level int
	pos   *game.Session
}

func New(seed int64) *Engine {
	return &Engine{
		rng:   rand.New(rand.NewSource(seed)),
		level: 1,
	}
}

// SetSkillLevel clamps level to 0..3. Level 0 plays random legal moves,
// higher levels search that many plies.
func (e *Engine) SetSkillLevel(level int) {
	if level < 0 {
		level = 0
	}
	if level > maxLevel {
		level = maxLevel
	}
	e.level = level
}

// SetPosition stores a private copy of sess
func (e *Engine) SetPosition(sess *game.Session) {
	e.pos = sess.Clone()
}

// Search picks a move for the side to move. Depth 1 always completes;
// deeper iterations stop once searchTime elapses or ctx is done.
func (e *Engine) Search(ctx context.Context, searchTime time.Duration) (SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return SearchResult{}, err
	}
	if e.pos == nil {
		return SearchResult{}, errors.New("no position set")
	}

	cands := Candidates(e.pos)
	if len(cands) == 0 {
		return SearchResult{}, ErrNoMoves
	}

	if e.level == 0 {
		return SearchResult{Best: cands[e.rng.Intn(len(cands))]}, nil
	}

	deadline := time.Now().Add(searchTime)
	var result SearchResult
	for depth := 1; depth <= e.level; depth++ {
		best, score, complete := e.root(ctx, cands, depth, deadline)
		if !complete {
			break
		}
		result = SearchResult{Best: best, Score: score, Depth: depth}
	}
	return result, nil
}

func (e *Engine) root(ctx context.Context, cands []Candidate, depth int, deadline time.Time) (Candidate, int, bool) {
	var best Candidate
	bestScore, found := 0, false
	for _, c := range cands {
		if depth > 1 && expired(ctx, deadline) {
			return best, bestScore, false
		}
		score, ok := e.scoreCandidate(e.pos, c, depth)
		if ok && (!found || score > bestScore) {
			best, bestScore, found = c, score, true
		}
	}
	return best, bestScore, found
}

// scoreCandidate plays c on a copy of s and scores it for the side to move
func (e *Engine) scoreCandidate(s *game.Session, c Candidate, depth int) (int, bool) {
	child, move, ok := play(s, c)
	if !ok {
		return 0, false
	}
	score := evaluate(child, move)
	if depth <= 1 || child.Deadlocked() {
		return score, true
	}

	reply := e.bestReply(child, depth-1)
	if move.Skipped {
		return score + reply, true
	}
	return score - reply, true
}

func (e *Engine) bestReply(s *game.Session, depth int) int {
	best, found := 0, false
	for _, c := range Candidates(s) {
		score, ok := e.scoreCandidate(s, c, depth)
		if ok && (!found || score > best) {
			best, found = score, true
		}
	}
	return best
}

// evaluate scores the position after move from the mover's point of view
func evaluate(after *game.Session, move game.Move) int {
	if after.Deadlocked() {
		return 0
	}
	progress := (move.To.Y - move.From.Y) * move.Side.Forward()
	if move.Skipped {
		return skipBonus + progress
	}
	return progress - mobilityWeight*len(after.LegalMoves())
}

// Candidates enumerates every decision available in s, in a stable order
func Candidates(s *game.Session) []Candidate {
	turn := s.Turn()
	if !turn.IsStart() {
		if s.Deadlocked() {
			return nil
		}
		return withSelection(-1, s.LegalMoves())
	}

	var cands []Candidate
	for x := 0; x < core.BoardSize; x++ {
		trial := s.Clone()
		if !trial.SelectOpening(x) {
			continue
		}
		cands = append(cands, withSelection(x, trial.LegalMoves())...)
	}
	return cands
}

func withSelection(x int, cells []core.Cell) []Candidate {
	cands := make([]Candidate, 0, len(cells))
	for _, cell := range cells {
		cands = append(cands, Candidate{Select: x, To: cell})
	}
	return cands
}

func play(s *game.Session, c Candidate) (*game.Session, game.Move, bool) {
	child := s.Clone()
	if c.Select >= 0 && !child.SelectOpening(c.Select) {
		return nil, game.Move{}, false
	}
	move, err := child.Play(c.To.X, c.To.Y)
	if err != nil {
		return nil, game.Move{}, false
	}
	return child, move, true
}

func expired(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() != nil || time.Now().After(deadline)
}
