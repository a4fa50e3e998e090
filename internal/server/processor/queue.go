package processor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"kamisado/internal/server/core"
	"kamisado/internal/server/engine"
	"kamisado/internal/server/game"
)

const (
	defaultSearchTime = 1000 * time.Millisecond
	resultGrace       = 5 * time.Second
)

// EngineTask contains a computer move request and its response channel
type EngineTask struct {
	GameID   string
	Position *game.Session // Private copy, owned by the task
	Player   *core.Player
	Response chan<- EngineResult
}

// EngineResult contains the outcome of an engine search
type EngineResult struct {
	GameID string
	Best   engine.Candidate
	Score  int
	Depth  int
	Error  error
}

// EngineQueue runs engine searches on a fixed worker pool
type EngineQueue struct {
	tasks   chan EngineTask
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewEngineQueue creates a queue with workerCount workers, 2 if < 1
func NewEngineQueue(workerCount int) *EngineQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &EngineQueue{
		tasks:   make(chan EngineTask, 100),
		workers: workerCount,
		ctx:     ctx,
		cancel:  cancel,
	}

	q.start()
	return q
}

func (q *EngineQueue) start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

func (q *EngineQueue) worker(id int) {
	defer q.wg.Done()

	// Each worker owns its engine
	eng := engine.New(time.Now().UnixNano() + int64(id))

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			result := q.processTask(eng, task)

			select {
			case task.Response <- result:
			case <-time.After(100 * time.Millisecond):
				log.Printf("Worker %d: result for game %s abandoned", id, task.GameID)
			}

		case <-q.ctx.Done():
			return
		}
	}
}

func (q *EngineQueue) processTask(eng *engine.Engine, task EngineTask) EngineResult {
	result := EngineResult{GameID: task.GameID}

	eng.SetSkillLevel(task.Player.Level)
	eng.SetPosition(task.Position)

	search, err := eng.Search(q.ctx, searchTime(task.Player))
	if err != nil {
		result.Error = fmt.Errorf("engine search failed: %w", err)
		return result
	}

	result.Best = search.Best
	result.Score = search.Score
	result.Depth = search.Depth
	return result
}

func searchTime(p *core.Player) time.Duration {
	if p.SearchTime > 0 {
		return time.Duration(p.SearchTime) * time.Millisecond
	}
	return defaultSearchTime
}

// Submit adds a task to the queue without blocking
func (q *EngineQueue) Submit(task EngineTask) error {
	select {
	case <-q.ctx.Done():
		return fmt.Errorf("queue is shutting down")
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("queue is full")
	}
}

// SubmitAsync queues a search on a copy of pos and calls callback with the
// result, or with a timeout error once the search budget is exceeded
func (q *EngineQueue) SubmitAsync(gameID string, pos *game.Session, player *core.Player, callback func(EngineResult)) error {
	respChan := make(chan EngineResult, 1)

	task := EngineTask{
		GameID:   gameID,
		Position: pos.Clone(),
		Player:   player,
		Response: respChan,
	}

	if err := q.Submit(task); err != nil {
		return err
	}

	go func() {
		select {
		case result := <-respChan:
			callback(result)
		case <-time.After(searchTime(player) + resultGrace):
			callback(EngineResult{
				GameID: gameID,
				Error:  fmt.Errorf("engine timeout"),
			})
		}
	}()

	return nil
}

// Shutdown stops the workers, abandoning queued tasks
func (q *EngineQueue) Shutdown(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
