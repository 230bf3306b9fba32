package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunProcessesAllOrders(t *testing.T) {
	wp := NewWorkerPool(4)

	orders := make([]model.Order, 20)
	for i := range orders {
		orders[i].ID = int64(i)
	}

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)

	wp.Run(context.Background(), orders, func(ctx context.Context, order model.Order) {
		mu.Lock()
		seen[order.ID] = true
		mu.Unlock()
	})

	assert.Len(t, seen, 20)
}

func TestWorkerPool_ZeroWorkers(t *testing.T) {
	wp := NewWorkerPool(0)

	var count atomic.Int32
	wp.Run(context.Background(), []model.Order{{}, {}}, func(ctx context.Context, order model.Order) {
		count.Add(1)
	})

	assert.Equal(t, int32(2), count.Load())
}

func TestWorkerPool_PauseAndResume(t *testing.T) {
	wp := NewWorkerPool(1)

	wp.pausePoolWithTimer(30 * time.Millisecond)
	assert.True(t, wp.paused)

	// a second pause while paused does not extend it
	wp.pausePoolWithTimer(time.Hour)

	start := time.Now()
	assert.NoError(t, wp.waitIfPaused(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.False(t, wp.paused)
}

func TestWorkerPool_WaitIfPaused_ContextDone(t *testing.T) {
	wp := NewWorkerPool(1)
	wp.pausePoolWithTimer(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := wp.waitIfPaused(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerPool_RunStopsOnCanceledContext(t *testing.T) {
	wp := NewWorkerPool(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count atomic.Int32
	wp.Run(ctx, make([]model.Order, 10), func(ctx context.Context, order model.Order) {
		count.Add(1)
	})

	assert.Equal(t, int32(0), count.Load())
}
