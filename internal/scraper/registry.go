package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/apthunt/apartment-crawler/internal/logger"
)

// run is one active discovery/ingest run handle
type run struct {
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

func (r *run) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}

// RunRegistry maps an operator id to its single active run. Starting a new
// run cancels the previous one for that operator and waits a bounded time
// for it to observe the cancellation; on timeout the entry is replaced
// anyway (accepted brief overlap, store operations stay per-record
// transactional).
type RunRegistry struct {
	mu         sync.Mutex
	runs       map[string]*run
	cancelWait time.Duration
	logger     *logger.Logger
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{
		runs:       make(map[string]*run),
		cancelWait: 2 * time.Second,
		logger:     logger.NewLogger("run_registry"),
	}
}

// Begin registers a new run for the operator, displacing any previous one.
// The returned finish func must be called when the run completes; it is
// safe to call more than once.
func (r *RunRegistry) Begin(parent context.Context, operator string) (context.Context, func()) {
	r.mu.Lock()
	prev := r.runs[operator]
	r.mu.Unlock()

	if prev != nil {
		prev.cancel()
		select {
		case <-prev.done:
		case <-time.After(r.cancelWait):
			r.logger.WithField("operator", operator).Warn("Previous run did not stop in time, replacing entry")
		}
	}

	ctx, cancel := context.WithCancel(parent)
	current := &run{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	r.runs[operator] = current
	r.mu.Unlock()

	finish := func() {
		cancel()
		current.finish()
		r.mu.Lock()
		if r.runs[operator] == current {
			delete(r.runs, operator)
		}
		r.mu.Unlock()
	}
	return ctx, finish
}

// Cancel requests cooperative cancellation of the operator's active run.
// Returns false when no run is active.
func (r *RunRegistry) Cancel(operator string) bool {
	r.mu.Lock()
	current := r.runs[operator]
	r.mu.Unlock()

	if current == nil {
		return false
	}
	current.cancel()
	return true
}

// Active reports whether the operator has a registered run
func (r *RunRegistry) Active(operator string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[operator] != nil
}

// ActiveCount returns the number of registered runs
func (r *RunRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
