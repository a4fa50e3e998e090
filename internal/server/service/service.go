package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"kamisado/internal/server/board"
	"kamisado/internal/server/game"
	"kamisado/internal/server/storage"
)

const (
	MaxComputerGames   = 10
	SessionTTL         = 7 * 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrStorageDisabled  = errors.New("storage disabled")
	ErrComputerThinking = errors.New("computer move in progress")
	ErrNotHumanTurn     = errors.New("not human player's turn")
	ErrNotComputerTurn  = errors.New("not computer player's turn")
	ErrNotOwner         = errors.New("game belongs to another user")
)

// Service coordinates game state, user management, and storage
type Service struct {
	games         map[string]*game.Game
	mu            sync.RWMutex
	board         *board.Board
	store         *storage.Store
	jwtSecret     []byte
	waiter        *WaitRegistry
	computerGames atomic.Int32 // Live games with at least one computer player
}

// New creates a service playing on b. store may be nil to run without
// persistence and accounts.
func New(b *board.Board, store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*game.Game),
		board:     b,
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(),
	}
}

// GetStorageHealth returns "ok", "degraded" or "disabled"
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait registers a client to wait for game state changes
func (s *Service) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, gameID, moveCount)
}

// CanCreateComputerGame checks the computer game limit
func (s *Service) CanCreateComputerGame() bool {
	return s.computerGames.Load() < MaxComputerGames
}

func (s *Service) GetComputerGameCount() int32 {
	return s.computerGames.Load()
}

// GameCount returns the number of live games
func (s *Service) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Game)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RunCleanupJob removes expired sessions until ctx is done
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

func (s *Service) cleanupExpired() {
	if s.store == nil {
		return
	}

	if deleted, err := s.store.DeleteExpiredSessions(); err != nil {
		log.Printf("cleanup: failed to delete expired sessions: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired sessions", deleted)
	}
}
