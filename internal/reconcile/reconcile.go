package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"go.uber.org/zap"
)

type OrderStore interface {
	GetOrderByMerchantID(ctx context.Context, merchantOrderID string) (*model.Order, error)
	GetOrdersByStatus(ctx context.Context, paymentStatus model.PaymentStatus, status model.OrderStatus) ([]model.Order, error)
	UpdatePaymentStatus(ctx context.Context, merchantOrderID string, status model.PaymentStatus) (bool, error)
	WebhookEventExists(ctx context.Context, dedupeKey string) (bool, error)
	RecordWebhookEvent(ctx context.Context, event model.WebhookEvent) (bool, error)
}

type Gateway interface {
	GetOrderStatus(ctx context.Context, merchantOrderID string) (model.GatewayOrderStatus, error)
}

type Notifier interface {
	PublishOrderPaid(ctx context.Context, order model.Order) error
}

type SweepRunner interface {
	Sweep(ctx context.Context) (int, error)
}

// Reconciler brings the stored payment status of orders in line with the
// gateway. All three triggers (redirect, webhook, sweep) go through it.
type Reconciler struct {
	store    OrderStore
	gateway  Gateway
	notifier Notifier
	workers  int
	lg       *zap.SugaredLogger
}

func New(store OrderStore, gateway Gateway, notifier Notifier, workers int, lg *zap.SugaredLogger) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}

	return &Reconciler{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		workers:  workers,
		lg:       lg,
	}
}

// ConfirmRedirect queries the gateway once for the order the customer was
// redirected back with and writes the result. The returned status is the
// gateway's view mapped to a payment status.
func (r *Reconciler) ConfirmRedirect(ctx context.Context, merchantOrderID string) (model.PaymentStatus, error) {
	status, err := r.gateway.GetOrderStatus(ctx, merchantOrderID)
	if err != nil {
		return "", err
	}

	paymentStatus := model.PaymentStatusFromGatewayState(status.State)
	if err := r.apply(ctx, merchantOrderID, paymentStatus); err != nil {
		return "", err
	}

	return paymentStatus, nil
}

// HandleWebhook marks the order paid when the event reports completion.
// Unknown orders are not an error; store failures are, so the gateway
// redelivers.
func (r *Reconciler) HandleWebhook(ctx context.Context, event model.WebhookEvent) error {
	if !event.IndicatesCompletion() {
		r.lg.Infof("webhook %q for order %s ignored (state %q)", event.Name(), event.Payload.MerchantOrderID, event.Payload.State)
		return nil
	}

	merchantOrderID := event.Payload.MerchantOrderID
	if merchantOrderID == "" {
		return fmt.Errorf("%w: no merchantOrderId", model.ErrInvalidWebhook)
	}

	key := event.DedupeKey()
	seen, err := r.store.WebhookEventExists(ctx, key)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if seen {
		r.lg.Infof("webhook %s already processed", key)
		return nil
	}

	if err := r.apply(ctx, merchantOrderID, model.PaymentStatusPaid); err != nil {
		return err
	}

	if _, err := r.store.RecordWebhookEvent(ctx, event); err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}

	return nil
}

// Sweep reconciles every order that is still pending on both axes and
// returns how many of them the gateway answered for. Per-order gateway
// failures leave the order untouched for the next run.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	orders, err := r.store.GetOrdersByStatus(ctx, model.PaymentStatusPending, model.OrderStatusPending)
	if err != nil {
		return 0, fmt.Errorf("load pending orders: %w", err)
	}

	if len(orders) == 0 {
		return 0, nil
	}

	var checked atomic.Int64

	pool := NewWorkerPool(r.workers)
	pool.Run(ctx, orders, func(ctx context.Context, order model.Order) {
		status, err := r.gateway.GetOrderStatus(ctx, order.MerchantOrderID)
		if err != nil {
			var rateErr *model.RateLimitError
			if errors.As(err, &rateErr) {
				r.lg.Warnf("gateway rate limited, pausing sweep for %v", rateErr.RetryAfter)
				pool.pausePoolWithTimer(rateErr.RetryAfter)
				return
			}

			r.lg.Errorf("sweep: status of order %s: %v", order.MerchantOrderID, err)
			return
		}

		checked.Add(1)

		if err := r.apply(ctx, order.MerchantOrderID, model.PaymentStatusFromGatewayState(status.State)); err != nil {
			r.lg.Errorf("sweep: update order %s: %v", order.MerchantOrderID, err)
		}
	})

	return int(checked.Load()), ctx.Err()
}

// apply writes a payment status. Pending is never written so that the order
// stays visible to the sweep.
func (r *Reconciler) apply(ctx context.Context, merchantOrderID string, status model.PaymentStatus) error {
	if status == model.PaymentStatusPending {
		return nil
	}

	changed, err := r.store.UpdatePaymentStatus(ctx, merchantOrderID, status)
	if err != nil {
		return fmt.Errorf("update payment status of %s: %w", merchantOrderID, err)
	}

	if !changed {
		return nil
	}

	r.lg.Infof("order %s payment status -> %s", merchantOrderID, status)

	if status == model.PaymentStatusPaid {
		r.notifyPaid(ctx, merchantOrderID)
	}

	return nil
}

func (r *Reconciler) notifyPaid(ctx context.Context, merchantOrderID string) {
	order, err := r.store.GetOrderByMerchantID(ctx, merchantOrderID)
	if err != nil {
		r.lg.Errorf("load paid order %s for notification: %v", merchantOrderID, err)
		return
	}

	if err := r.notifier.PublishOrderPaid(ctx, *order); err != nil {
		r.lg.Errorf("publish paid order %s: %v", merchantOrderID, err)
	}
}
