package services

import (
	"context"
	"sync"
)

// runPool executes jobs on at most workers goroutines and waits for all
// submitted jobs to finish. Once the context is cancelled no further
// jobs are started; jobs already running finish normally, so work they
// committed is preserved.
func runPool(ctx context.Context, workers int, jobs []func(ctx context.Context)) {
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(job func(ctx context.Context)) {
			defer wg.Done()
			defer func() { <-sem }()
			job(ctx)
		}(job)
	}

	wg.Wait()
}
