package engine

import (
	"context"
	"sync"

	"github.com/igolaizola/moodtune/pkg/mood"
	"github.com/igolaizola/moodtune/pkg/storage"
)

// Generator produces a music record for a journal entry.
type Generator interface {
	Generate(ctx context.Context, userID string, entry *mood.Entry) *storage.GeneratedMusic
}

type request struct {
	userID string
	entry  *mood.Entry
}

// Queue serializes generation requests: at most one generation runs at
// a time and pending requests drain in arrival order.
type Queue struct {
	gen      Generator
	onResult func(userID string, m *storage.GeneratedMusic)

	mu      sync.Mutex
	busy    bool
	pending []request
	idle    *sync.Cond
}

// NewQueue returns a new generation queue. The onResult callback is
// invoked after each request finishes and may be nil.
func NewQueue(gen Generator, onResult func(userID string, m *storage.GeneratedMusic)) *Queue {
	q := &Queue{
		gen:      gen,
		onResult: onResult,
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// EnqueueOrRun starts generating immediately when the queue is idle,
// otherwise appends the request behind the one in flight. It never
// blocks the caller.
func (q *Queue) EnqueueOrRun(ctx context.Context, userID string, entry *mood.Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.busy {
		q.pending = append(q.pending, request{userID: userID, entry: entry})
		return
	}
	q.busy = true
	go q.drain(ctx, request{userID: userID, entry: entry})
}

func (q *Queue) drain(ctx context.Context, req request) {
	for {
		m := q.gen.Generate(ctx, req.userID, req.entry)
		if q.onResult != nil {
			q.onResult(req.userID, m)
		}

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.busy = false
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		req = q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
	}
}

// Wait blocks until all queued requests have finished.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.busy {
		q.idle.Wait()
	}
}
