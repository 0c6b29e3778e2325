package matchboard

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry hands out one Board per organization.
type Registry struct {
	api         Backend
	concurrency int
	log         *zap.Logger

	mu     sync.Mutex
	boards map[string]*entry
}

type entry struct {
	board *Board
	used  time.Time
}

// NewRegistry creates an empty registry whose boards share api.
func NewRegistry(api Backend, concurrency int, logger *zap.Logger) *Registry {
	return &Registry{
		api:         api,
		concurrency: concurrency,
		log:         logger,
		boards:      make(map[string]*entry),
	}
}

// For returns the board for orgID, creating it on first use.
func (r *Registry) For(orgID string) *Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.boards[orgID]
	if !ok {
		e = &entry{board: New(orgID, r.api, r.concurrency, r.log)}
		r.boards[orgID] = e
	}
	e.used = time.Now()
	return e.board
}

// Drop forgets the board for orgID, typically on logout.
func (r *Registry) Drop(orgID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, orgID)
}

// PruneIdle drops boards nobody has asked for within maxIdle and returns
// how many were dropped.
func (r *Registry) PruneIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for id, e := range r.boards {
		if e.used.Before(cutoff) {
			delete(r.boards, id)
			n++
		}
	}
	return n
}

// Len returns the number of live boards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}
