package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/tagloop/internal/unit"
)

// Pool runs invocations on several workers, each owning its own Harness and
// therefore its own unit instance. Workers pull indices from a shared queue.
//
// Records are returned in index order regardless of which worker ran them.
// The notifier is called once per record, serialized, in completion order.
type Pool struct {
	settings
	typ     unit.Type
	workers []*Harness
	mu      sync.Mutex
}

// NewPool initializes one Harness per worker. workers < 1 is treated as 1.
//
// Returns *InitializationError if any worker's unit cannot be constructed.
// No invocation runs in that case.
func NewPool(typ unit.Type, workers int, opts ...Option) (*Pool, error) {
	if workers < 1 {
		workers = 1
	}
	s := newSettings(opts)

	p := &Pool{settings: s, typ: typ}
	for w := 0; w < workers; w++ {
		// Workers report through the pool, not individually
		ws := s
		ws.notify = nil
		h, err := initialize(typ, w, ws)
		if err != nil {
			return nil, err
		}
		p.workers = append(p.workers, h)
	}
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Run performs count invocations spread across the pool's workers.
//
// Semantics match Harness.Run: failures are isolated per invocation and the
// context is checked before an index is handed to a worker. On cancellation the
// completed records are returned, in index order, with ctx.Err().
func (p *Pool) Run(ctx context.Context, count int, tokens TokensFactory) ([]Record, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid invocation count %d", count)
	}
	if tokens == nil {
		return nil, errors.New("no tokens factory")
	}
	for i, h := range p.workers {
		if !h.acquire() {
			for _, held := range p.workers[:i] {
				held.release()
			}
			return nil, ErrHandleBusy
		}
	}
	defer func() {
		for _, h := range p.workers {
			h.release()
		}
	}()

	p.logger.Info("pool run started", "unit", p.typ.Name(), "count", count, "workers", len(p.workers))

	results := make([]Record, count)
	done := make([]bool, count)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for _, h := range p.workers {
		wg.Add(1)
		go func(h *Harness) {
			defer wg.Done()
			for i := range jobs {
				rec := h.invoke(ctx, i, tokens)

				p.mu.Lock()
				results[i] = rec
				done[i] = true
				if p.notify != nil {
					p.notify(rec)
				}
				p.mu.Unlock()
			}
		}(h)
	}

	var runErr error
feed:
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	records := make([]Record, 0, count)
	for i, ok := range done {
		if ok {
			records = append(records, results[i])
		}
	}

	if runErr != nil {
		p.logger.Warn("pool run cancelled", "completed", len(records), "count", count)
		return records, runErr
	}

	summary := Summarize(records)
	p.logger.Info("pool run finished",
		"unit", p.typ.Name(),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return records, nil
}
