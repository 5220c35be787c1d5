package harness

import (
	"context"
	"sync"
)

// RunAll executes scenarios with at most parallel running at once and
// returns results in input order. Concurrent runs are safe: every
// sandbox directory is unique and the environment override is scoped
// to each run's subprocesses, never the harness process.
func RunAll(ctx context.Context, scenarios []*Scenario, opts Options, parallel int) []*Result {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*Result, len(scenarios))
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc *Scenario) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = Run(ctx, sc, opts)
		}(i, sc)
	}
	wg.Wait()
	return results
}
