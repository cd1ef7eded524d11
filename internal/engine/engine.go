// Package engine fans a set of sources out over the per-source pipeline,
// sequentially or on a bounded worker pool, and always returns a complete
// outcome map.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/gammazero/workerpool"

	"github.com/psyger-labs/ftpferry/internal/model"
)

// Processor is the per-source pipeline the engine drives.
type Processor interface {
	Process(ctx context.Context, name string, spec model.SourceSpec) model.Outcome
}

// Engine executes a run over a read-only source mapping. One source's
// failure never stops the others.
type Engine struct {
	Proc       Processor
	MaxWorkers int // parallel pool size; defaults to model.DefaultMaxWorkers
}

// RunSequential processes sources one at a time in name order.
func (e *Engine) RunSequential(ctx context.Context, specs map[string]model.SourceSpec) map[string]model.Outcome {
	log.Printf("engine: sequential run over %d sources", len(specs))

	outcomes := make(map[string]model.Outcome, len(specs))
	for _, name := range sortedNames(specs) {
		out := e.process(ctx, name, specs[name])
		outcomes[name] = out
		logOutcome(out)
	}
	return outcomes
}

// RunParallel processes sources on a fixed-size worker pool. All sources
// are submitted before any result is awaited and outcomes are collected in
// completion order; a fault inside a worker becomes a failed outcome for
// that source instead of aborting collection of the others.
func (e *Engine) RunParallel(ctx context.Context, specs map[string]model.SourceSpec) map[string]model.Outcome {
	workers := e.MaxWorkers
	if workers <= 0 {
		workers = model.DefaultMaxWorkers
	}
	log.Printf("engine: parallel run over %d sources with %d workers", len(specs), workers)

	pool := workerpool.New(workers)
	results := make(chan model.Outcome, len(specs))
	for name, spec := range specs {
		pool.Submit(func() {
			results <- e.process(ctx, name, spec)
		})
	}

	outcomes := make(map[string]model.Outcome, len(specs))
	for range specs {
		out := <-results
		outcomes[out.Source] = out
		logOutcome(out)
	}
	pool.StopWait()
	return outcomes
}

// process shields the engine from a panicking processor: the fault is
// converted into a failed outcome at this boundary.
func (e *Engine) process(ctx context.Context, name string, spec model.SourceSpec) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = model.Outcome{Source: name, Message: fmt.Sprintf("unexpected error: %v", r)}
		}
	}()
	return e.Proc.Process(ctx, name, spec)
}

func logOutcome(out model.Outcome) {
	if out.Success {
		log.Printf("engine: ok %s: %s (%d bytes, %.2fs)", out.Source, out.Message, out.ByteSize, out.Elapsed.Seconds())
		return
	}
	log.Printf("engine: failed %s: %s", out.Source, out.Message)
}

func sortedNames(specs map[string]model.SourceSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
