package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ChannelOrderPaid = "orders:paid"

	subscriberBuffer = 16
	pingTimeout      = 3 * time.Second
)

// Redis fans paid orders out to every instance through a pub/sub channel.
type Redis struct {
	client *redis.Client
	lg     *zap.SugaredLogger
}

func NewRedis(addr string, lg *zap.SugaredLogger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &Redis{client: client, lg: lg}, nil
}

func (r *Redis) PublishOrderPaid(ctx context.Context, order model.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, ChannelOrderPaid, data).Err()
}

// Subscribe returns paid orders until ctx is done.
func (r *Redis) Subscribe(ctx context.Context) (<-chan model.Order, error) {
	pubsub := r.client.Subscribe(ctx, ChannelOrderPaid)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan model.Order, subscriberBuffer)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var order model.Order
				if err := json.Unmarshal([]byte(msg.Payload), &order); err != nil {
					r.lg.Errorf("decode paid order notification: %v", err)
					continue
				}

				select {
				case out <- order:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
