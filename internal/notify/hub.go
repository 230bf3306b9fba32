package notify

import (
	"context"
	"sync"

	"github.com/geethamultiplex/theaterfood/internal/model"
)

// Hub delivers paid orders to subscribers of this process only. It is used
// when no Redis address is configured.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan model.Order]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan model.Order]struct{})}
}

// PublishOrderPaid never blocks; a subscriber with a full buffer misses the order.
func (h *Hub) PublishOrderPaid(_ context.Context, order model.Order) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- order:
		default:
		}
	}

	return nil
}

func (h *Hub) Subscribe(ctx context.Context) (<-chan model.Order, error) {
	ch := make(chan model.Order, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()

		h.mu.Lock()
		delete(h.subscribers, ch)
		close(ch)
		h.mu.Unlock()
	}()

	return ch, nil
}

func (h *Hub) Close() error {
	return nil
}
