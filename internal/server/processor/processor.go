package processor

import (
	"errors"
	"fmt"
	"log"
	"time"

	"kamisado/internal/server/core"
	"kamisado/internal/server/game"
	"kamisado/internal/server/service"
)

const (
	minSearchTime = 100
)

// Processor handles command execution and coordinates between service and engine layers
type Processor struct {
	svc   *service.Service
	queue *EngineQueue
}

// New creates a processor with an engine pool of the given size
func New(svc *service.Service, engineWorkers int) *Processor {
	return &Processor{
		svc:   svc,
		queue: NewEngineQueue(engineWorkers),
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdConfigurePlayers:
		return p.handleConfigurePlayers(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdSelectOpening:
		return p.handleSelectOpening(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdComputerMove:
		return p.handleComputerMove(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// newPlayers builds both players, binding human slots to the requesting user
func newPlayers(white, black core.PlayerConfig, userID string) (*core.Player, *core.Player) {
	players := [2]*core.Player{}
	for i, cfg := range [2]core.PlayerConfig{white, black} {
		if cfg.Type == core.PlayerComputer && cfg.SearchTime < minSearchTime {
			cfg.SearchTime = minSearchTime
		}
		players[i] = core.NewPlayer(cfg, core.Side(i+1))
		if cfg.Type == core.PlayerHuman {
			players[i].UserID = userID
		}
	}
	return players[0], players[1]
}

func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	whitePlayer, blackPlayer := newPlayers(args.White, args.Black, cmd.UserID)

	if (whitePlayer.Type == core.PlayerComputer || blackPlayer.Type == core.PlayerComputer) &&
		!p.svc.CanCreateComputerGame() {
		return p.errorResponse("too many games with computer players", core.ErrResourceLimit)
	}

	gameID := p.svc.GenerateGameID()
	if err := p.svc.CreateGame(gameID, whitePlayer, blackPlayer); err != nil {
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.ErrInternalError)
	}

	return p.gameResponse(gameID)
}

// handleConfigurePlayers replaces both players mid-game
func (p *Processor) handleConfigurePlayers(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigurePlayersRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	whitePlayer, blackPlayer := newPlayers(args.White, args.Black, cmd.UserID)
	if err := p.svc.UpdatePlayers(cmd.GameID, cmd.UserID, whitePlayer, blackPlayer); err != nil {
		return p.gameError(err)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleSelectOpening(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.SelectRequest)
	if !ok || args.X == nil {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	if err := p.svc.SelectOpening(cmd.GameID, cmd.UserID, *args.X); err != nil {
		return p.gameError(err)
	}
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok || args.X == nil || args.Y == nil {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	if _, err := p.svc.ApplyMove(cmd.GameID, cmd.UserID, *args.X, *args.Y); err != nil {
		return p.gameError(err)
	}
	return p.gameResponse(cmd.GameID)
}

// handleComputerMove queues an engine search for the computer side to move
func (p *Processor) handleComputerMove(cmd Command) ProcessorResponse {
	pos, player, err := p.svc.StartComputerMove(cmd.GameID, cmd.UserID)
	if err != nil {
		return p.gameError(err)
	}

	if err := p.triggerComputerMove(cmd.GameID, pos, player); err != nil {
		p.svc.UpdateGameState(cmd.GameID, core.StateOngoing)
		return p.errorResponse(fmt.Sprintf("engine unavailable: %v", err), core.ErrResourceLimit)
	}

	queued := p.gameResponse(cmd.GameID)
	queued.Pending = true
	return queued
}

func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok && req.Count > 0 {
		args = req
	}

	if err := p.svc.UndoMoves(cmd.GameID, cmd.UserID, args.Count); err != nil {
		return p.gameError(err)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID, cmd.UserID); err != nil {
		return p.gameError(err)
	}

	return ProcessorResponse{Success: true}
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	var board core.BoardResponse
	err := p.svc.View(cmd.GameID, func(g *game.Game) {
		board = core.BoardResponse{
			Board:      g.Session().ToASCII(),
			LegalMoves: g.Session().LegalMoves(),
		}
	})
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data:    board,
	}
}

// triggerComputerMove queues the search; the callback applies the result
// if the game is still waiting for it
func (p *Processor) triggerComputerMove(gameID string, pos *game.Session, player *core.Player) error {
	return p.queue.SubmitAsync(gameID, pos, player, func(result EngineResult) {
		if result.Error != nil {
			log.Printf("Engine error for game %s: %v", gameID, result.Error)
			p.svc.UpdateGameState(gameID, core.StateStuck)
			return
		}

		_, err := p.svc.ApplyComputerMove(gameID, result.Best.Select, result.Best.To, game.MoveResult{
			Score: result.Score,
			Depth: result.Depth,
		})
		if err == nil || errors.Is(err, service.ErrGameNotFound) {
			return // Applied, or deleted meanwhile
		}
		log.Printf("Engine move rejected for game %s: %v", gameID, err)
		p.svc.UpdateGameState(gameID, core.StateStuck)
	})
}

// gameResponse builds the standard response for a game under the read lock
func (p *Processor) gameResponse(gameID string) ProcessorResponse {
	var resp core.GameResponse
	if err := p.svc.View(gameID, func(g *game.Game) { resp = buildGameResponse(gameID, g) }); err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data:    resp,
	}
}

func buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	sess := g.Session()
	resp := core.GameResponse{
		GameID:     gameID,
		Turn:       core.NewTurnInfo(sess.Turn()),
		State:      g.State().String(),
		LegalMoves: sess.LegalMoves(),
		Moves:      g.Moves(),
		Players: core.PlayersResponse{
			White: g.GetPlayer(core.SideWhite),
			Black: g.GetPlayer(core.SideBlack),
		},
	}

	for _, pc := range sess.Positions() {
		resp.Pieces = append(resp.Pieces, core.PieceInfo{
			Side:  pc.Side.String(),
			Color: pc.Color.String(),
			X:     pc.X,
			Y:     pc.Y,
		})
	}

	if result := g.LastResult(); result != nil {
		resp.LastMove = &core.MoveInfo{
			Move:       result.Move.String(),
			PieceColor: result.Move.Color.String(),
			PlayerSide: result.Move.Side.String(),
			Skipped:    result.Move.Skipped,
			Score:      result.Score,
			Depth:      result.Depth,
		}
	}

	return resp
}

// gameError maps service and game errors to API codes
func (p *Processor) gameError(err error) ProcessorResponse {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return p.errorResponse("game not found", core.ErrGameNotFound)
	case errors.Is(err, service.ErrNotOwner):
		return p.errorResponse(err.Error(), core.ErrUnauthorized)
	case errors.Is(err, service.ErrNotHumanTurn), errors.Is(err, service.ErrNotComputerTurn):
		return p.errorResponse(err.Error(), core.ErrNotHumanTurn)
	case errors.Is(err, service.ErrComputerThinking):
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	case errors.Is(err, game.ErrGameOver):
		return p.errorResponse(err.Error(), core.ErrGameOver)
	case errors.Is(err, game.ErrIllegalMove), errors.Is(err, game.ErrNoSelection),
		errors.Is(err, game.ErrNotOpening), errors.Is(err, game.ErrNotYourPiece):
		return p.errorResponse(err.Error(), core.ErrInvalidMove)
	case errors.Is(err, game.ErrInvalidUndo):
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	default:
		return p.errorResponse(err.Error(), core.ErrInternalError)
	}
}

func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close stops the engine pool
func (p *Processor) Close() error {
	return p.queue.Shutdown(5 * time.Second)
}
