package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kamisado/internal/client/api"
	"kamisado/internal/client/display"
	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
)

const (
	defaultLevel      = 2
	defaultSearchTime = 1000

	computerPollInterval = 200 * time.Millisecond
	computerPollAttempts = 60
)

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "new",
		ShortName:   "n",
		Description: "Create a new game",
		Usage:       "new [white] [black]   players: h | c[level][/searchMs], e.g. 'new h c2/500'",
		Handler:     r.newGameHandler,
	})
	r.Register(&Command{
		Name:        "players",
		ShortName:   "P",
		Description: "Reconfigure both players of the current game",
		Usage:       "players <white> <black>",
		Handler:     r.playersHandler,
	})
	r.Register(&Command{
		Name:        "join",
		ShortName:   "j",
		Description: "Join/set current game ID",
		Usage:       "join <gameId>",
		Handler:     r.joinGameHandler,
	})
	r.Register(&Command{
		Name:        "select",
		ShortName:   "e",
		Description: "Choose White's opening piece by column",
		Usage:       "select <a-h|0-7>",
		Handler:     r.selectHandler,
	})
	r.Register(&Command{
		Name:        "move",
		ShortName:   "m",
		Description: "Move the active piece",
		Usage:       "move <cell>   e.g. 'move d5'",
		Handler:     r.moveHandler,
	})
	r.Register(&Command{
		Name:        "computer",
		ShortName:   "c",
		Description: "Trigger computer move",
		Usage:       "computer",
		Handler:     r.computerMoveHandler,
	})
	r.Register(&Command{
		Name:        "undo",
		ShortName:   "u",
		Description: "Undo moves",
		Usage:       "undo [count]",
		Handler:     r.undoHandler,
	})
	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Description: "Show board and game state",
		Usage:       "show",
		Handler:     r.showBoardHandler,
	})
	r.Register(&Command{
		Name:        "state",
		ShortName:   "s",
		Description: "Show raw game JSON",
		Usage:       "state",
		Handler:     r.gameStateHandler,
	})
	r.Register(&Command{
		Name:        "delete",
		ShortName:   "d",
		Description: "Delete a game",
		Usage:       "delete [gameId]",
		Handler:     r.deleteGameHandler,
	})
	r.Register(&Command{
		Name:        "poll",
		ShortName:   "p",
		Description: "Long-poll for game updates",
		Usage:       "poll",
		Handler:     r.pollHandler,
	})
}

// parsePlayer reads "h", "c", "c3" or "c3/500"
func parsePlayer(arg string) (api.PlayerConfig, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if arg == "" || arg == "h" {
		return api.PlayerConfig{Type: core.PlayerHuman}, nil
	}
	if arg[0] != 'c' {
		return api.PlayerConfig{}, fmt.Errorf("invalid player %q, want h or c[level][/searchMs]", arg)
	}

	cfg := api.PlayerConfig{Type: core.PlayerComputer, Level: defaultLevel, SearchTime: defaultSearchTime}
	rest := arg[1:]
	if level, searchTime, found := strings.Cut(rest, "/"); found {
		ms, err := strconv.Atoi(searchTime)
		if err != nil {
			return api.PlayerConfig{}, fmt.Errorf("invalid search time in %q", arg)
		}
		cfg.SearchTime = ms
		rest = level
	}
	if rest != "" {
		level, err := strconv.Atoi(rest)
		if err != nil {
			return api.PlayerConfig{}, fmt.Errorf("invalid level in %q", arg)
		}
		cfg.Level = level
	}
	return cfg, nil
}

// readPlayers takes both player specs from args or asks for them
func (r *Registry) readPlayers(args []string) (white, black api.PlayerConfig, err error) {
	specs := make([]string, 2)
	copy(specs, args)
	if len(args) == 0 {
		for i, side := range []string{"White", "Black"} {
			prompt := fmt.Sprintf("%s%s player (h/c[level][/ms]) [h]: %s", display.Yellow, side, display.Reset)
			if specs[i], err = r.in.Line(prompt); err != nil {
				return
			}
		}
	}
	if white, err = parsePlayer(specs[0]); err != nil {
		return
	}
	black, err = parsePlayer(specs[1])
	return
}

func (r *Registry) newGameHandler(args []string) error {
	white, black, err := r.readPlayers(args)
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out, "\n"+display.Cyan+"Creating new game..."+display.Reset)
	resp, err := r.session.Client.CreateGame(&api.CreateGameRequest{White: white, Black: black})
	if err != nil {
		return err
	}
	r.session.Track(resp)

	fmt.Fprintf(r.out, "%sGame created: %s%s\n", display.Green, resp.GameID, display.Reset)
	if r.session.PlayerSide != "" {
		fmt.Fprintf(r.out, "You play %s\n", display.ForSide(r.session.PlayerSide))
	}

	return r.continueWithComputer(resp)
}

func (r *Registry) playersHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: players <white> <black>")
	}
	white, black, err := r.readPlayers(args)
	if err != nil {
		return err
	}

	resp, err := r.session.Client.ConfigurePlayers(gameID, white, black)
	if err != nil {
		return err
	}
	r.session.Track(resp)
	fmt.Fprintf(r.out, "%sPlayers updated%s\n", display.Green, display.Reset)

	return r.continueWithComputer(resp)
}

func (r *Registry) joinGameHandler(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	resp, err := r.session.Client.GetGame(args[0])
	if err != nil {
		return err
	}
	r.session.Track(resp)

	fmt.Fprintf(r.out, "%sJoined game: %s%s\n", display.Green, resp.GameID, display.Reset)
	fmt.Fprintf(r.out, "Turn: %s | State: %s | Moves: %d\n", display.TurnLine(resp), resp.State, len(resp.Moves))
	return nil
}

// parseColumn accepts a file letter or a 0-based index
func parseColumn(s string) (int, error) {
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'h' {
		return int(s[0] - 'a'), nil
	}
	x, err := strconv.Atoi(s)
	if err != nil || x < 0 || x >= core.BoardSize {
		return 0, fmt.Errorf("invalid column %q, want a-h or 0-7", s)
	}
	return x, nil
}

func (r *Registry) selectHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: select <a-h|0-7>")
	}
	x, err := parseColumn(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	resp, err := r.session.Client.SelectOpening(gameID, x)
	if err != nil {
		return err
	}
	r.session.Track(resp)

	fmt.Fprintf(r.out, "%sSelected:%s %s, %d legal destination(s)\n",
		display.Green, display.Reset, display.TurnLine(resp), len(resp.LegalMoves))
	return nil
}

func (r *Registry) moveHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: move <cell>")
	}
	to, err := core.ParseCell(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	resp, err := r.session.Client.MakeMove(gameID, to)
	if err != nil {
		return err
	}
	r.session.Track(resp)

	fmt.Fprintf(r.out, "%sMove accepted%s", display.Green, display.Reset)
	if resp.LastMove != nil && resp.LastMove.Skipped {
		fmt.Fprintf(r.out, " %s(opponent blocked, move again)%s", display.Yellow, display.Reset)
	}
	fmt.Fprintln(r.out)
	if resp.State == core.StateDeadlock.String() {
		fmt.Fprintf(r.out, "%sDeadlock: no piece can move%s\n", display.Red, display.Reset)
		return nil
	}

	return r.continueWithComputer(resp)
}

// continueWithComputer plays the computer side while it has the turn.
// Computer-only games advance one move per command.
func (r *Registry) continueWithComputer(resp *core.GameResponse) error {
	for resp.State == core.StateOngoing.String() && computerToMove(resp) {
		fmt.Fprintf(r.out, "\n%sComputer's turn, triggering move...%s\n", display.Magenta, display.Reset)
		next, err := r.playComputer(resp.GameID)
		if err != nil {
			return err
		}
		if bothComputers(next) {
			return nil
		}
		resp = next
	}
	return nil
}

func nextPlayer(resp *core.GameResponse) *core.Player {
	if resp.Turn.Side == core.SideBlack.String() {
		return resp.Players.Black
	}
	return resp.Players.White
}

func computerToMove(resp *core.GameResponse) bool {
	p := nextPlayer(resp)
	return p != nil && p.Type == core.PlayerComputer
}

func bothComputers(resp *core.GameResponse) bool {
	w, b := resp.Players.White, resp.Players.Black
	return w != nil && b != nil && w.Type == core.PlayerComputer && b.Type == core.PlayerComputer
}

func (r *Registry) computerMoveHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}
	_, err = r.playComputer(gameID)
	return err
}

// playComputer queues a computer move and polls until it lands
func (r *Registry) playComputer(gameID string) (*core.GameResponse, error) {
	c := r.session.Client
	resp, err := c.ComputerMove(gameID)
	if err != nil {
		return nil, err
	}

	if resp.State == core.StatePending.String() {
		fmt.Fprintf(r.out, "%sComputer is thinking...%s\n", display.Magenta, display.Reset)
		for i := 0; i < computerPollAttempts && resp.State == core.StatePending.String(); i++ {
			time.Sleep(computerPollInterval)
			if resp, err = c.GetGame(gameID); err != nil {
				return nil, err
			}
		}
		if resp.State == core.StatePending.String() {
			return nil, fmt.Errorf("timeout waiting for computer move")
		}
	}

	r.session.Track(resp)
	if resp.State == core.StateStuck.String() {
		return resp, fmt.Errorf("computer failed to move, game is stuck (undo to recover)")
	}
	if resp.LastMove != nil {
		fmt.Fprintf(r.out, "%sComputer played: %s%s", display.Magenta, resp.LastMove.Move, display.Reset)
		if resp.LastMove.Depth > 0 {
			fmt.Fprintf(r.out, " (depth %d, score %d)", resp.LastMove.Depth, resp.LastMove.Score)
		}
		fmt.Fprintln(r.out)
	}
	return resp, nil
}

func (r *Registry) undoHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}

	count := 1
	if len(args) > 0 {
		if count, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}

	resp, err := r.session.Client.UndoMoves(gameID, count)
	if err != nil {
		return err
	}
	r.session.Track(resp)

	fmt.Fprintf(r.out, "%sUndid %d move(s)%s\n", display.Green, count, display.Reset)
	return nil
}

func (r *Registry) showBoardHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}

	game, err := r.session.Client.GetGame(gameID)
	if err != nil {
		return err
	}
	r.session.Track(game)

	fmt.Fprintln(r.out)
	display.RenderBoard(r.out, board.Default(), game)

	fmt.Fprintf(r.out, "\nTurn: %s | State: %s | Moves: %d\n", display.TurnLine(game), game.State, len(game.Moves))
	if len(game.Moves) > 0 {
		fmt.Fprintf(r.out, "History: %s\n", display.MoveHistory(game.Moves))
	}
	if game.LastMove != nil {
		fmt.Fprintf(r.out, "Last move: %s %s by %s", game.LastMove.PieceColor, game.LastMove.Move, display.ForSide(game.LastMove.PlayerSide))
		if game.LastMove.Depth > 0 {
			fmt.Fprintf(r.out, " (depth %d, score %d)", game.LastMove.Depth, game.LastMove.Score)
		}
		fmt.Fprintln(r.out)
	}
	return nil
}

func (r *Registry) gameStateHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}

	resp, err := r.session.Client.GetGame(gameID)
	if err != nil {
		return err
	}
	r.session.Track(resp)

	fmt.Fprintf(r.out, "%sGame State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(r.out, resp)
	return nil
}

func (r *Registry) deleteGameHandler(args []string) error {
	gameID := r.session.CurrentGame
	if len(args) > 0 {
		gameID = args[0]
	}
	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	if err := r.session.Client.DeleteGame(gameID); err != nil {
		return err
	}
	if gameID == r.session.CurrentGame {
		r.session.Forget()
	}

	fmt.Fprintf(r.out, "%sGame deleted: %s%s\n", display.Green, gameID, display.Reset)
	return nil
}

func (r *Registry) pollHandler(args []string) error {
	gameID, err := r.requireGame()
	if err != nil {
		return err
	}

	moveCount := r.session.LastMoveCount
	fmt.Fprintf(r.out, "%sLong-polling for updates (move count: %d)...%s\n", display.Cyan, moveCount, display.Reset)
	fmt.Fprintf(r.out, "%sThis may take up to 25 seconds%s\n", display.Cyan, display.Reset)

	resp, err := r.session.Client.GetGameWithPoll(gameID, moveCount)
	if err != nil {
		return err
	}
	r.session.Track(resp)

	if len(resp.Moves) != moveCount {
		fmt.Fprintf(r.out, "%sGame updated!%s Turn: %s\n", display.Green, display.Reset, display.TurnLine(resp))
		if resp.LastMove != nil {
			fmt.Fprintf(r.out, "Last move: %s\n", resp.LastMove.Move)
		}
	} else {
		fmt.Fprintf(r.out, "%sNo updates (timeout)%s\n", display.Yellow, display.Reset)
	}
	return nil
}
