package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
)

// WorkerPool processes a batch of orders with a fixed number of workers.
// It can be paused for a while, e.g. when the gateway rate limits us.
type WorkerPool struct {
	jobsQueue  chan model.Order
	wg         sync.WaitGroup
	numWorkers int

	pauseMu sync.Mutex
	paused  bool
	resume  chan struct{}
}

func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &WorkerPool{
		jobsQueue:  make(chan model.Order, numWorkers),
		numWorkers: numWorkers,
	}
}

// Run feeds orders to the workers and blocks until all of them are handled
// or ctx is done.
func (wp *WorkerPool) Run(ctx context.Context, orders []model.Order, work func(ctx context.Context, order model.Order)) {
	wp.wg.Add(wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		go func() {
			defer wp.wg.Done()
			for order := range wp.jobsQueue {
				if err := wp.waitIfPaused(ctx); err != nil {
					continue
				}
				work(ctx, order)
			}
		}()
	}

feed:
	for _, order := range orders {
		select {
		case wp.jobsQueue <- order:
		case <-ctx.Done():
			break feed
		}
	}

	close(wp.jobsQueue)
	wp.wg.Wait()
}

func (wp *WorkerPool) pausePoolWithTimer(duration time.Duration) {
	wp.pauseMu.Lock()
	defer wp.pauseMu.Unlock()

	if wp.paused {
		return
	}

	wp.paused = true
	wp.resume = make(chan struct{})

	time.AfterFunc(duration, wp.resumePool)
}

func (wp *WorkerPool) resumePool() {
	wp.pauseMu.Lock()
	defer wp.pauseMu.Unlock()

	if !wp.paused {
		return
	}

	wp.paused = false
	close(wp.resume)
}

func (wp *WorkerPool) waitIfPaused(ctx context.Context) error {
	wp.pauseMu.Lock()
	if !wp.paused {
		wp.pauseMu.Unlock()
		return ctx.Err()
	}
	resume := wp.resume
	wp.pauseMu.Unlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
