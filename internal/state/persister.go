package state

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/enbi81/attendance-board/internal/fault"
)

const saveTimeout = 10 * time.Second

// Persister writes snapshots to a Backend on a background goroutine so that
// request paths never wait on disk. Pending snapshots coalesce: only the most
// recent one is written. Failures travel on an error channel drained by a
// logging goroutine.
type Persister struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.Mutex
	closed  bool
	pending chan ConfigState
	errs    chan error

	worker   sync.WaitGroup
	drain    sync.WaitGroup
	saved    atomic.Int64
	failures atomic.Int64
}

// NewPersister starts the save and error-drain goroutines.
func NewPersister(backend Backend, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persister{
		backend: backend,
		logger:  logger.With("component", "Persister"),
		pending: make(chan ConfigState, 1),
		errs:    make(chan error, 16),
	}
	p.worker.Add(1)
	go p.run()
	p.drain.Add(1)
	go p.logErrors()
	return p
}

// Save queues state for writing and returns immediately.
func (p *Persister) Save(state ConfigState) {
	if p == nil {
		return
	}
	snapshot := state.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("save requested after close; dropping snapshot")
		return
	}
	select {
	case <-p.pending:
	default:
	}
	p.pending <- snapshot
}

// Saved returns the number of successful writes.
func (p *Persister) Saved() int64 {
	return p.saved.Load()
}

// Failures returns the number of failed writes.
func (p *Persister) Failures() int64 {
	return p.failures.Load()
}

// Close flushes the pending snapshot and stops the goroutines.
func (p *Persister) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.pending)
	p.mu.Unlock()

	p.worker.Wait()
	close(p.errs)
	p.drain.Wait()
}

func (p *Persister) run() {
	defer p.worker.Done()
	for snapshot := range p.pending {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := p.backend.Save(ctx, snapshot)
		cancel()
		if err != nil {
			p.failures.Add(1)
			p.errs <- fault.Persistence("save", err)
			continue
		}
		p.saved.Add(1)
	}
}

func (p *Persister) logErrors() {
	defer p.drain.Done()
	for err := range p.errs {
		p.logger.Error("failed to persist state", "error", err, "error_kind", fault.Kind(err))
	}
}
