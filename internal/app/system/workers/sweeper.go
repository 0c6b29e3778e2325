// internal/app/system/workers/sweeper.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepFunc removes expired in-memory state and reports how many entries
// went.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper is a background worker that runs a SweepFunc on an interval.
// The app uses it to drop idle dashboard boards and abandoned intake drafts.
type Sweeper struct {
	name     string
	sweep    SweepFunc
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a sweeper. name appears in its log lines.
func NewSweeper(name string, interval time.Duration, sweep SweepFunc, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		name:     name,
		sweep:    sweep,
		log:      logger.With(zap.String("worker", name)),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *Sweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("sweeper stopped")
}

func (w *Sweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single sweep.
func (w *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.sweep(ctx)
	if err != nil {
		w.log.Error("sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("swept idle entries", zap.Int("count", count))
	}
}

// Group starts and stops several sweepers together.
type Group []*Sweeper

func (g Group) Start() {
	for _, w := range g {
		w.Start()
	}
}

func (g Group) Stop() {
	for _, w := range g {
		w.Stop()
	}
}
