package service

import (
	"fmt"
	"time"

	"kamisado/internal/server/core"
	"kamisado/internal/server/game"
	"kamisado/internal/server/storage"

	"github.com/google/uuid"
)

// CreateGame registers a new game with pre-constructed players
func (s *Service) CreateGame(id string, whitePlayer, blackPlayer *core.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; exists {
		return fmt.Errorf("game %s already exists", id)
	}

	s.games[id] = game.New(s.board, whitePlayer, blackPlayer)
	if hasComputer(whitePlayer, blackPlayer) {
		s.computerGames.Add(1)
	}

	if s.store != nil {
		s.store.RecordNewGame(storage.GameRecord{
			GameID:          id,
			WhitePlayerID:   whitePlayer.ID,
			WhiteType:       int(whitePlayer.Type),
			WhiteLevel:      whitePlayer.Level,
			WhiteSearchTime: whitePlayer.SearchTime,
			BlackPlayerID:   blackPlayer.ID,
			BlackType:       int(blackPlayer.Type),
			BlackLevel:      blackPlayer.Level,
			BlackSearchTime: blackPlayer.SearchTime,
			StartTimeUTC:    time.Now().UTC(),
		})
	}

	return nil
}

func hasComputer(players ...*core.Player) bool {
	for _, p := range players {
		if p.Type == core.PlayerComputer {
			return true
		}
	}
	return false
}

// GetGame retrieves a game by ID. Reads of the returned game that may
// race with moves should go through View.
func (s *Service) GetGame(gameID string) (*game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, nil
}

// View runs fn on the game under the read lock
func (s *Service) View(gameID string, fn func(*game.Game)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	fn(g)
	return nil
}

// GenerateGameID creates a new unique game ID
func (s *Service) GenerateGameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// withGame runs fn on the game under the write lock
func (s *Service) withGame(gameID string, fn func(*game.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return fn(g)
}

// checkHumanTurn verifies g accepts a human action from userID. Caller
// holds s.mu.
func checkHumanTurn(g *game.Game, userID string) error {
	switch g.State() {
	case core.StatePending:
		return ErrComputerThinking
	case core.StateStuck:
		return fmt.Errorf("%w: stuck after engine error", game.ErrGameOver)
	case core.StateDeadlock:
		return fmt.Errorf("%w: deadlock", game.ErrGameOver)
	}

	player := g.NextPlayer()
	if player.Type != core.PlayerHuman {
		return ErrNotHumanTurn
	}
	if !player.CanMove(userID) {
		return ErrNotOwner
	}
	return nil
}

// checkManage verifies userID may reconfigure, undo or delete g. Caller
// holds s.mu.
func checkManage(g *game.Game, userID string) error {
	if g.State() == core.StatePending {
		return ErrComputerThinking
	}
	if !g.CanManage(userID) {
		return ErrNotOwner
	}
	return nil
}

// SelectOpening picks White's opening piece by home-row column
func (s *Service) SelectOpening(gameID, userID string, x int) error {
	return s.withGame(gameID, func(g *game.Game) error {
		if err := checkHumanTurn(g, userID); err != nil {
			return err
		}
		return g.SelectOpening(x)
	})
}

// ApplyMove plays the active piece to (x,y) for userID, wakes waiting
// clients and persists the move
func (s *Service) ApplyMove(gameID, userID string, x, y int) (game.Move, error) {
	var move game.Move
	err := s.withGame(gameID, func(g *game.Game) error {
		if err := checkHumanTurn(g, userID); err != nil {
			return err
		}

		var err error
		if move, err = g.ApplyMove(x, y); err != nil {
			return err
		}
		g.SetLastResult(&game.MoveResult{Move: move, GameState: g.State()})
		s.recordMove(gameID, g, move)
		return nil
	})
	return move, err
}

// StartComputerMove marks the game pending and returns a copy of the
// position for the engine to search, along with the computer to move
func (s *Service) StartComputerMove(gameID, userID string) (*game.Session, *core.Player, error) {
	var (
		pos    *game.Session
		player *core.Player
	)
	err := s.withGame(gameID, func(g *game.Game) error {
		switch g.State() {
		case core.StatePending:
			return ErrComputerThinking
		case core.StateStuck, core.StateDeadlock:
			return fmt.Errorf("%w: %s", game.ErrGameOver, g.State())
		}
		if g.NextPlayer().Type != core.PlayerComputer {
			return ErrNotComputerTurn
		}
		if !g.CanManage(userID) {
			return ErrNotOwner
		}

		g.SetState(core.StatePending)
		pos = g.Session().Clone()
		player = g.NextPlayer()
		return nil
	})
	return pos, player, err
}

// ApplyComputerMove plays an engine decision on a pending game and returns
// it to ongoing in one step, so waiters never observe a half-applied move.
// selectX < 0 means no opening selection is involved.
func (s *Service) ApplyComputerMove(gameID string, selectX int, to core.Cell, result game.MoveResult) (game.Move, error) {
	var move game.Move
	err := s.withGame(gameID, func(g *game.Game) error {
		if g.State() != core.StatePending {
			return fmt.Errorf("game %s is %s, not pending", gameID, g.State())
		}
		if selectX >= 0 {
			if err := g.SelectOpening(selectX); err != nil {
				return err
			}
		}

		var err error
		if move, err = g.ApplyMove(to.X, to.Y); err != nil {
			return err
		}

		if g.State() == core.StatePending {
			g.SetState(core.StateOngoing)
		}
		result.Move = move
		result.GameState = g.State()
		g.SetLastResult(&result)
		s.recordMove(gameID, g, move)
		return nil
	})
	return move, err
}

// recordMove wakes waiters and persists the latest move. Caller holds s.mu.
func (s *Service) recordMove(gameID string, g *game.Game, move game.Move) {
	moveNumber := len(g.History())
	s.waiter.NotifyGame(gameID, moveNumber)

	if s.store != nil {
		s.store.RecordMove(storage.MoveRecord{
			GameID:      gameID,
			MoveNumber:  moveNumber,
			PieceColor:  move.Color.String(),
			PlayerSide:  move.Side.String(),
			FromCell:    move.From.String(),
			ToCell:      move.To.String(),
			Skipped:     move.Skipped,
			MoveTimeUTC: time.Now().UTC(),
		})
	}
}

// UpdatePlayers replaces players in an existing game on behalf of userID
func (s *Service) UpdatePlayers(gameID, userID string, whitePlayer, blackPlayer *core.Player) error {
	return s.withGame(gameID, func(g *game.Game) error {
		if err := checkManage(g, userID); err != nil {
			return err
		}
		before := hasComputer(g.GetPlayer(core.SideWhite), g.GetPlayer(core.SideBlack))
		after := hasComputer(whitePlayer, blackPlayer)
		if before != after {
			if after {
				s.computerGames.Add(1)
			} else {
				s.computerGames.Add(-1)
			}
		}
		g.UpdatePlayers(whitePlayer, blackPlayer)
		return nil
	})
}

// UpdateGameState sets pending/stuck/ongoing and wakes waiters on
// terminal states
func (s *Service) UpdateGameState(gameID string, state core.State) error {
	return s.withGame(gameID, func(g *game.Game) error {
		g.SetState(state)
		if state == core.StateStuck {
			s.waiter.WakeAll(gameID)
		}
		return nil
	})
}

// UndoMoves removes the specified number of moves from game history
func (s *Service) UndoMoves(gameID, userID string, count int) error {
	return s.withGame(gameID, func(g *game.Game) error {
		if err := checkManage(g, userID); err != nil {
			return err
		}
		if err := g.UndoMoves(count); err != nil {
			return err
		}

		remaining := len(g.History())
		s.waiter.NotifyGame(gameID, remaining)

		if s.store != nil {
			s.store.DeleteUndoneMoves(gameID, remaining)
		}
		return nil
	})
}

// DeleteGame removes a game from memory and storage
func (s *Service) DeleteGame(gameID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err := checkManage(g, userID); err != nil {
		return err
	}

	s.waiter.WakeAll(gameID)
	if hasComputer(g.GetPlayer(core.SideWhite), g.GetPlayer(core.SideBlack)) {
		s.computerGames.Add(-1)
	}
	delete(s.games, gameID)

	if s.store != nil {
		s.store.DeleteGame(gameID)
	}
	return nil
}
