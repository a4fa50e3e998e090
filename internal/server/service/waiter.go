package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second
)

// WaitRegistry manages long-polling clients waiting for game state changes
type WaitRegistry struct {
	mu       sync.Mutex
	waiters  map[string][]*WaitRequest // gameID → waiting clients
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// WaitRequest is a single client waiting for game updates. Notify
// receives exactly one value: on a change, timeout, game removal or
// server shutdown.
type WaitRequest struct {
	GameID    string
	MoveCount int // Last move count the client has seen
	Notify    chan struct{}
	timer     *time.Timer
	done      chan struct{}
	once      sync.Once
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*WaitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait registers a client to wait for a move count other than
// moveCount. The wait ends early when ctx is cancelled, in which case
// nothing is sent.
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	req := &WaitRequest{
		GameID:    gameID,
		MoveCount: moveCount,
		Notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	w.mu.Lock()
	req.timer = time.AfterFunc(WaitTimeout, func() { w.fire(req) })
	w.waiters[gameID] = append(w.waiters[gameID], req)
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			req.once.Do(func() {
				req.timer.Stop()
				close(req.done)
			})
			w.removeWaiter(req)
		case <-req.done:
		case <-w.shutdown:
			w.fire(req)
		}
	}()

	return req.Notify
}

// NotifyGame wakes every waiter whose known move count differs
func (w *WaitRegistry) NotifyGame(gameID string, currentMoveCount int) {
	for _, req := range w.snapshot(gameID) {
		if req.MoveCount != currentMoveCount {
			w.fire(req)
		}
	}
}

// WakeAll wakes every waiter of a game regardless of move count, for
// games that end or disappear
func (w *WaitRegistry) WakeAll(gameID string) {
	for _, req := range w.snapshot(gameID) {
		w.fire(req)
	}
}

// Waiting returns the number of clients waiting on gameID
func (w *WaitRegistry) Waiting(gameID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters[gameID])
}

// Shutdown wakes every waiter and waits for their watchers to exit
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	close(w.shutdown)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timeout exceeded")
	}
}

func (w *WaitRegistry) snapshot(gameID string) []*WaitRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*WaitRequest(nil), w.waiters[gameID]...)
}

func (w *WaitRegistry) fire(req *WaitRequest) {
	req.once.Do(func() {
		req.timer.Stop()
		req.Notify <- struct{}{}
		close(req.done)
	})
	w.removeWaiter(req)
}

func (w *WaitRegistry) removeWaiter(req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[req.GameID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[req.GameID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}

	if len(w.waiters[req.GameID]) == 0 {
		delete(w.waiters, req.GameID)
	}
}
