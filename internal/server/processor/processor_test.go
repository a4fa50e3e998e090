package processor

import (
	"testing"
	"time"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
	"kamisado/internal/server/game"
	"kamisado/internal/server/service"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	svc := service.New(board.Default(), nil, nil)
	p := New(svc, 1)
	t.Cleanup(func() {
		p.Close()
		svc.Shutdown(time.Second)
	})
	return p
}

func intp(v int) *int { return &v }

func createGame(t *testing.T, p *Processor, userID string, white, black core.PlayerType) core.GameResponse {
	t.Helper()
	cmd := NewCreateGameCommand(core.CreateGameRequest{
		White: core.PlayerConfig{Type: white, Level: 1},
		Black: core.PlayerConfig{Type: black, Level: 1},
	})
	cmd.UserID = userID
	resp := p.Execute(cmd)
	if !resp.Success {
		t.Fatalf("create game: %+v", resp.Error)
	}
	return resp.Data.(core.GameResponse)
}

func expectCode(t *testing.T, resp ProcessorResponse, code string) {
	t.Helper()
	if resp.Success || resp.Error == nil || resp.Error.Code != code {
		t.Fatalf("expected error %s, got %+v", code, resp)
	}
}

// waitWhilePending polls until the game leaves the pending state
func waitWhilePending(t *testing.T, p *Processor, id string) core.GameResponse {
	t.Helper()
	var g core.GameResponse
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		g = p.Execute(NewGetGameCommand(id)).Data.(core.GameResponse)
		if g.State != "pending" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	return g
}

func as(cmd Command, userID string) Command {
	cmd.UserID = userID
	return cmd
}

func TestCreateGameResponse(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, "", core.PlayerHuman, core.PlayerHuman)

	if g.Turn.Phase != "start" || g.Turn.Side != "w" || g.Turn.Color != "" {
		t.Fatalf("unexpected turn %+v", g.Turn)
	}
	if g.State != "ongoing" || len(g.Pieces) != 16 || len(g.LegalMoves) != 0 {
		t.Fatalf("unexpected initial game %+v", g)
	}
	if g.Players.White.SearchTime != 0 {
		t.Fatalf("human player got a search time")
	}
}

func TestHumanMoves(t *testing.T) {
	p := newTestProcessor(t)
	id := createGame(t, p, "", core.PlayerHuman, core.PlayerHuman).GameID

	expectCode(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{X: intp(3), Y: intp(4)})), core.ErrInvalidMove)

	resp := p.Execute(NewSelectOpeningCommand(id, core.SelectRequest{X: intp(3)}))
	if !resp.Success {
		t.Fatalf("select: %+v", resp.Error)
	}
	if g := resp.Data.(core.GameResponse); g.Turn.Color != "pink" || len(g.LegalMoves) != 13 {
		t.Fatalf("unexpected selection response %+v", g.Turn)
	}

	expectCode(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{X: intp(3), Y: intp(7)})), core.ErrInvalidMove)

	resp = p.Execute(NewMakeMoveCommand(id, core.MoveRequest{X: intp(3), Y: intp(4)}))
	if !resp.Success {
		t.Fatalf("move: %+v", resp.Error)
	}
	g := resp.Data.(core.GameResponse)
	if g.Turn.Side != "b" || g.Turn.Color != "brown" || g.LastMove == nil || g.LastMove.Move != "d1d5" {
		t.Fatalf("unexpected response after move: turn %+v last %+v", g.Turn, g.LastMove)
	}

	expectCode(t, p.Execute(NewSelectOpeningCommand(id, core.SelectRequest{X: intp(0)})), core.ErrInvalidMove)

	resp = p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 1}))
	if !resp.Success || len(resp.Data.(core.GameResponse).Moves) != 0 {
		t.Fatalf("undo: %+v", resp)
	}
	expectCode(t, p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 1})), core.ErrInvalidRequest)

	board := p.Execute(NewGetBoardCommand(id))
	if !board.Success || board.Data.(core.BoardResponse).Board == "" {
		t.Fatalf("board: %+v", board)
	}

	if resp := p.Execute(NewDeleteGameCommand(id)); !resp.Success {
		t.Fatalf("delete: %+v", resp.Error)
	}
	expectCode(t, p.Execute(NewGetGameCommand(id)), core.ErrGameNotFound)
}

func TestSlotOwnership(t *testing.T) {
	p := newTestProcessor(t)
	id := createGame(t, p, "user-1", core.PlayerHuman, core.PlayerHuman).GameID

	cmd := NewSelectOpeningCommand(id, core.SelectRequest{X: intp(0)})
	cmd.UserID = "user-2"
	expectCode(t, p.Execute(cmd), core.ErrUnauthorized)

	cmd.UserID = "user-1"
	if resp := p.Execute(cmd); !resp.Success {
		t.Fatalf("owner select: %+v", resp.Error)
	}
}

func TestOwnedGameRejectsOtherUsers(t *testing.T) {
	p := newTestProcessor(t)
	id := createGame(t, p, "alice", core.PlayerHuman, core.PlayerHuman).GameID
	humans := core.ConfigurePlayersRequest{
		White: core.PlayerConfig{Type: core.PlayerHuman},
		Black: core.PlayerConfig{Type: core.PlayerHuman},
	}

	for _, user := range []string{"mallory", ""} {
		expectCode(t, p.Execute(as(NewConfigurePlayersCommand(id, humans), user)), core.ErrUnauthorized)
		expectCode(t, p.Execute(as(NewSelectOpeningCommand(id, core.SelectRequest{X: intp(3)}), user)), core.ErrUnauthorized)
	}

	if resp := p.Execute(as(NewSelectOpeningCommand(id, core.SelectRequest{X: intp(3)}), "alice")); !resp.Success {
		t.Fatalf("owner select: %+v", resp.Error)
	}
	if resp := p.Execute(as(NewMakeMoveCommand(id, core.MoveRequest{X: intp(3), Y: intp(4)}), "alice")); !resp.Success {
		t.Fatalf("owner move: %+v", resp.Error)
	}

	for _, user := range []string{"mallory", ""} {
		expectCode(t, p.Execute(as(NewUndoMoveCommand(id, core.UndoRequest{Count: 1}), user)), core.ErrUnauthorized)
		expectCode(t, p.Execute(as(NewDeleteGameCommand(id), user)), core.ErrUnauthorized)
	}

	g := p.Execute(NewGetGameCommand(id)).Data.(core.GameResponse)
	if len(g.Moves) != 1 || g.Players.White.UserID != "alice" || g.Players.Black.UserID != "alice" {
		t.Fatalf("game changed by other users: moves %v players %+v %+v", g.Moves, g.Players.White, g.Players.Black)
	}

	if resp := p.Execute(as(NewUndoMoveCommand(id, core.UndoRequest{Count: 1}), "alice")); !resp.Success {
		t.Fatalf("owner undo: %+v", resp.Error)
	}
	if resp := p.Execute(as(NewDeleteGameCommand(id), "alice")); !resp.Success {
		t.Fatalf("owner delete: %+v", resp.Error)
	}
}

func TestConfigurePlayers(t *testing.T) {
	p := newTestProcessor(t)
	id := createGame(t, p, "alice", core.PlayerHuman, core.PlayerHuman).GameID

	req := core.ConfigurePlayersRequest{
		White: core.PlayerConfig{Type: core.PlayerHuman},
		Black: core.PlayerConfig{Type: core.PlayerComputer, Level: 3, SearchTime: 10},
	}
	resp := p.Execute(as(NewConfigurePlayersCommand(id, req), "alice"))
	if !resp.Success {
		t.Fatalf("configure: %+v", resp.Error)
	}

	g := resp.Data.(core.GameResponse)
	white, black := g.Players.White, g.Players.Black
	if white.Type != core.PlayerHuman || white.UserID != "alice" {
		t.Fatalf("unexpected white %+v", white)
	}
	if black.Type != core.PlayerComputer || black.Level != 3 || black.SearchTime != minSearchTime || black.UserID != "" {
		t.Fatalf("unexpected black %+v", black)
	}

	expectCode(t, p.Execute(NewConfigurePlayersCommand("missing", req)), core.ErrGameNotFound)
}

func TestComputerTriggerRequiresOwner(t *testing.T) {
	p := newTestProcessor(t)
	id := createGame(t, p, "alice", core.PlayerComputer, core.PlayerHuman).GameID

	expectCode(t, p.Execute(as(NewComputerMoveCommand(id), "mallory")), core.ErrUnauthorized)

	resp := p.Execute(as(NewComputerMoveCommand(id), "alice"))
	if !resp.Success || !resp.Pending {
		t.Fatalf("expected pending response, got %+v", resp)
	}

	if g := waitWhilePending(t, p, id); g.State != "ongoing" || len(g.Moves) != 1 {
		t.Fatalf("computer move not applied: state %s moves %v", g.State, g.Moves)
	}
}

func TestRejectedEngineMoveMarksGameStuck(t *testing.T) {
	p := newTestProcessor(t)
	id := createGame(t, p, "", core.PlayerComputer, core.PlayerHuman).GameID

	_, player, err := p.svc.StartComputerMove(id, "")
	if err != nil {
		t.Fatalf("start computer move: %v", err)
	}

	// Search a position the game never reached, so the result cannot apply
	stale := game.NewSession(board.Default())
	stale.SelectOpening(3)
	if _, err := stale.Play(3, 4); err != nil {
		t.Fatalf("stale move: %v", err)
	}
	if err := p.triggerComputerMove(id, stale, player); err != nil {
		t.Fatalf("submit: %v", err)
	}

	g := waitWhilePending(t, p, id)
	if g.State != "stuck" || len(g.Moves) != 0 {
		t.Fatalf("expected stuck game without moves, got state %s moves %v", g.State, g.Moves)
	}

	// Undo on an empty history is refused, but the game is no longer locked
	expectCode(t, p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 1})), core.ErrInvalidRequest)
	if resp := p.Execute(NewDeleteGameCommand(id)); !resp.Success {
		t.Fatalf("delete stuck game: %+v", resp.Error)
	}
}

func TestComputerMove(t *testing.T) {
	p := newTestProcessor(t)
	id := createGame(t, p, "", core.PlayerComputer, core.PlayerHuman).GameID

	expectCode(t, p.Execute(NewSelectOpeningCommand(id, core.SelectRequest{X: intp(0)})), core.ErrNotHumanTurn)

	resp := p.Execute(NewComputerMoveCommand(id))
	if !resp.Success || !resp.Pending {
		t.Fatalf("expected pending response, got %+v", resp)
	}

	g := waitWhilePending(t, p, id)

	if g.State != "ongoing" || len(g.Moves) != 1 {
		t.Fatalf("computer move not applied: state %s moves %v", g.State, g.Moves)
	}
	if g.LastMove == nil || g.LastMove.PlayerSide != "w" || g.LastMove.Depth != 1 {
		t.Fatalf("unexpected last move %+v", g.LastMove)
	}
	if g.Turn.Side != "b" {
		t.Fatalf("expected human black to move, got %+v", g.Turn)
	}

	expectCode(t, p.Execute(NewComputerMoveCommand(id)), core.ErrNotHumanTurn)
}
