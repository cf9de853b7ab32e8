package fetcher

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"energystats/pkg/logger"
)

// ErrPoolStopped is returned by Submit once the pool is shutting down
var ErrPoolStopped = errors.New("worker pool is shutting down")

// FetchFunc fetches the value for a single key
type FetchFunc[K, V any] func(ctx context.Context, key K) (V, error)

// Job is a single fetch task. Index records the submission order.
type Job[K any] struct {
	Index int
	Key   K
}

// Result is the outcome of a job
type Result[K, V any] struct {
	Job      Job[K]
	Value    V
	Err      error
	Duration time.Duration
}

// WorkerPool runs fetch jobs on a fixed number of workers
type WorkerPool[K, V any] struct {
	numWorkers  int
	jobQueue    chan Job[K]
	resultQueue chan Result[K, V]
	wg          sync.WaitGroup
	closeOnce   sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
	fetch       FetchFunc[K, V]
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers bound to ctx
func NewWorkerPool[K, V any](ctx context.Context, numWorkers int, fetch FetchFunc[K, V], log logger.Logger) *WorkerPool[K, V] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool[K, V]{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job[K], numWorkers*2),
		resultQueue: make(chan Result[K, V], numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetch:       fetch,
		logger:      log,
	}
}

// Start starts all workers. The result channel is closed once every worker
// has returned.
func (wp *WorkerPool[K, V]) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	go func() {
		wp.wg.Wait()
		close(wp.resultQueue)
	}()
}

// CloseJobs signals that no more jobs will be submitted
func (wp *WorkerPool[K, V]) CloseJobs() {
	wp.closeOnce.Do(func() { close(wp.jobQueue) })
}

// Stop cancels in-flight work and waits for the workers to exit,
// discarding unread results
func (wp *WorkerPool[K, V]) Stop() {
	wp.cancel()
	for range wp.resultQueue {
	}
}

// Submit adds a job to the queue
func (wp *WorkerPool[K, V]) Submit(job Job[K]) error {
	if wp.ctx.Err() != nil {
		return ErrPoolStopped
	}
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return ErrPoolStopped
	}
}

// Results returns the result channel
func (wp *WorkerPool[K, V]) Results() <-chan Result[K, V] {
	return wp.resultQueue
}

func (wp *WorkerPool[K, V]) worker(id int) {
	defer wp.wg.Done()

	for {
		var job Job[K]
		var ok bool
		select {
		case <-wp.ctx.Done():
			return
		case job, ok = <-wp.jobQueue:
			if !ok {
				return
			}
		}

		start := time.Now()
		value, err := wp.fetch(wp.ctx, job.Key)
		result := Result[K, V]{Job: job, Value: value, Err: err, Duration: time.Since(start)}

		if err != nil {
			wp.logger.DebugWithFields("Worker job failed", map[string]interface{}{
				"worker_id": id,
				"index":     job.Index,
				"error":     err.Error(),
			})
		}

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// Ordered fetches every key through a pool of numWorkers workers and yields
// the values in the order of keys. Iteration stops after the first error,
// which is yielded with a zero value.
func Ordered[K, V any](ctx context.Context, numWorkers int, keys []K, fetch FetchFunc[K, V], log logger.Logger) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		if len(keys) == 0 {
			return
		}

		pool := NewWorkerPool(ctx, numWorkers, fetch, log)
		pool.Start()
		defer pool.Stop()

		go func() {
			defer pool.CloseJobs()
			for i, key := range keys {
				if err := pool.Submit(Job[K]{Index: i, Key: key}); err != nil {
					return
				}
			}
		}()

		pending := make(map[int]Result[K, V])
		next := 0
		for result := range pool.Results() {
			pending[result.Job.Index] = result
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if !yield(r.Value, r.Err) || r.Err != nil {
					return
				}
			}
		}

		// Workers only stop early when ctx is done
		if next < len(keys) {
			var zero V
			err := ctx.Err()
			if err == nil {
				err = ErrPoolStopped
			}
			yield(zero, err)
		}
	}
}
