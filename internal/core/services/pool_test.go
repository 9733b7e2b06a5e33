package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunPool_RunsAllJobs(t *testing.T) {
	var count atomic.Int32
	jobs := make([]func(ctx context.Context), 20)
	for i := range jobs {
		jobs[i] = func(context.Context) { count.Add(1) }
	}

	runPool(context.Background(), 4, jobs)
	assert.Equal(t, int32(20), count.Load())
}

func TestRunPool_BoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	var running, peak int

	jobs := make([]func(ctx context.Context), 30)
	for i := range jobs {
		jobs[i] = func(context.Context) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			mu.Lock()
			running--
			mu.Unlock()
		}
	}

	runPool(context.Background(), 3, jobs)
	assert.LessOrEqual(t, peak, 3)
}

func TestRunPool_CancelledContextStopsSubmission(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count atomic.Int32
	jobs := []func(ctx context.Context){
		func(context.Context) { count.Add(1) },
		func(context.Context) { count.Add(1) },
	}

	runPool(ctx, 2, jobs)
	assert.Zero(t, count.Load())
}

func TestRunPool_ZeroWorkers(t *testing.T) {
	var count atomic.Int32
	runPool(context.Background(), 0, []func(ctx context.Context){
		func(context.Context) { count.Add(1) },
	})
	assert.Equal(t, int32(1), count.Load())
}
