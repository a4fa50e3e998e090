package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
	"kamisado/internal/server/game"
	"kamisado/internal/server/piece"
)

// blockedPosition has white yellow to move with f6 forcing black orange to skip
func blockedPosition(t *testing.T, extra map[piece.Ref]core.Cell) *game.Session {
	t.Helper()
	moved := map[piece.Ref]core.Cell{
		{Side: core.SideWhite, Color: core.Yellow}: {X: 5, Y: 2},
		{Side: core.SideWhite, Color: core.Brown}:  {X: 7, Y: 6},
		{Side: core.SideBlack, Color: core.Blue}:   {X: 6, Y: 6},
	}
	for k, v := range extra {
		moved[k] = v
	}
	pieces := piece.NewSet(board.Default()).Positions()
	for i, p := range pieces {
		if c, ok := moved[p.Ref()]; ok {
			pieces[i].X, pieces[i].Y = c.X, c.Y
		}
	}
	s, err := game.ResumeSession(board.Default(), pieces, core.ActiveTurn(core.SideWhite, core.Yellow))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	return s
}

func search(t *testing.T, s *game.Session, level int) SearchResult {
	t.Helper()
	eng := New(42)
	eng.SetSkillLevel(level)
	eng.SetPosition(s)
	res, err := eng.Search(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("search level %d: %v", level, err)
	}
	return res
}

func TestSearchPrefersForcedSkip(t *testing.T) {
	for _, level := range []int{1, 2} {
		s := blockedPosition(t, nil)
		res := search(t, s, level)

		if res.Best.Select != -1 {
			t.Fatalf("level %d: unexpected selection %d outside the opening", level, res.Best.Select)
		}
		move, err := s.Play(res.Best.To.X, res.Best.To.Y)
		if err != nil {
			t.Fatalf("level %d: engine move %v rejected: %v", level, res.Best.To, err)
		}
		if !move.Skipped {
			t.Fatalf("level %d: expected a skip-forcing move, got %s (score %d)", level, move, res.Score)
		}
	}
}

func TestSearchOpeningSelectsAndMoves(t *testing.T) {
	for level := 0; level <= maxLevel; level++ {
		s := game.NewSession(board.Default())
		res := search(t, s, level)

		if res.Best.Select < 0 || res.Best.Select >= core.BoardSize {
			t.Fatalf("level %d: expected opening selection, got %d", level, res.Best.Select)
		}
		if !s.SelectOpening(res.Best.Select) {
			t.Fatalf("level %d: selection %d rejected", level, res.Best.Select)
		}
		if !s.SubmitMove(res.Best.To.X, res.Best.To.Y) {
			t.Fatalf("level %d: move %v rejected", level, res.Best.To)
		}
	}
}

func TestSearchDepthFollowsLevelAndTime(t *testing.T) {
	s := blockedPosition(t, nil)

	if res := search(t, s, 3); res.Depth != 3 {
		t.Fatalf("expected depth 3, got %d", res.Depth)
	}

	eng := New(1)
	eng.SetSkillLevel(3)
	eng.SetPosition(s)
	res, err := eng.Search(context.Background(), 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Depth != 1 {
		t.Fatalf("expected only depth 1 without time, got %d", res.Depth)
	}
}

func TestSearchErrors(t *testing.T) {
	eng := New(1)
	if _, err := eng.Search(context.Background(), time.Second); err == nil {
		t.Fatalf("expected error without position")
	}

	s := blockedPosition(t, map[piece.Ref]core.Cell{
		{Side: core.SideWhite, Color: core.Green}: {X: 5, Y: 6},
		{Side: core.SideWhite, Color: core.Red}:   {X: 4, Y: 6},
	})
	if !s.SubmitMove(5, 5) || !s.Deadlocked() {
		t.Fatalf("scenario broken: expected deadlock")
	}
	eng.SetPosition(s)
	if _, err := eng.Search(context.Background(), time.Second); !errors.Is(err, ErrNoMoves) {
		t.Fatalf("expected ErrNoMoves, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng.SetPosition(game.NewSession(board.Default()))
	if _, err := eng.Search(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSetPositionCopies(t *testing.T) {
	s := game.NewSession(board.Default())
	eng := New(1)
	eng.SetPosition(s)
	s.SelectOpening(0)
	s.SubmitMove(0, 3)

	if cands := Candidates(eng.pos); len(cands) == 0 || cands[0].Select != 0 {
		t.Fatalf("engine position changed with caller's session")
	}
}
