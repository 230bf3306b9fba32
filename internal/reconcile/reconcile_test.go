package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geethamultiplex/theaterfood/internal/reconcile/mocks"
)

type testDeps struct {
	store    *mocks.MockOrderStore
	gateway  *mocks.MockGateway
	notifier *mocks.MockNotifier
}

func newTestReconciler(t *testing.T, workers int) (*Reconciler, testDeps) {
	ctrl := gomock.NewController(t)

	deps := testDeps{
		store:    mocks.NewMockOrderStore(ctrl),
		gateway:  mocks.NewMockGateway(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
	}

	return New(deps.store, deps.gateway, deps.notifier, workers, nil), deps
}

func completedEvent(merchantOrderID string) model.WebhookEvent {
	return model.WebhookEvent{
		Event: model.WebhookEventOrderCompleted,
		Payload: model.WebhookPayload{
			OrderID:         "OMO1",
			MerchantOrderID: merchantOrderID,
			State:           model.GatewayStateCompleted,
		},
	}
}

func TestReconciler_ConfirmRedirect_Completed(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()
	order := &model.Order{MerchantOrderID: "m-1", PaymentStatus: model.PaymentStatusPaid}

	gomock.InOrder(
		deps.gateway.EXPECT().GetOrderStatus(ctx, "m-1").
			Return(model.GatewayOrderStatus{State: model.GatewayStateCompleted}, nil),
		deps.store.EXPECT().UpdatePaymentStatus(ctx, "m-1", model.PaymentStatusPaid).Return(true, nil),
		deps.store.EXPECT().GetOrderByMerchantID(ctx, "m-1").Return(order, nil),
		deps.notifier.EXPECT().PublishOrderPaid(ctx, *order).Return(nil),
	)

	status, err := r.ConfirmRedirect(ctx, "m-1")

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, status)
}

func TestReconciler_ConfirmRedirect_AlreadyPaid(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()

	deps.gateway.EXPECT().GetOrderStatus(ctx, "m-1").
		Return(model.GatewayOrderStatus{State: model.GatewayStateCompleted}, nil)
	deps.store.EXPECT().UpdatePaymentStatus(ctx, "m-1", model.PaymentStatusPaid).Return(false, nil)
	deps.notifier.EXPECT().PublishOrderPaid(gomock.Any(), gomock.Any()).Times(0)

	status, err := r.ConfirmRedirect(ctx, "m-1")

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, status)
}

func TestReconciler_ConfirmRedirect_PendingNotWritten(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()

	deps.gateway.EXPECT().GetOrderStatus(ctx, "m-1").
		Return(model.GatewayOrderStatus{State: model.GatewayStatePending}, nil)
	deps.store.EXPECT().UpdatePaymentStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	status, err := r.ConfirmRedirect(ctx, "m-1")

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, status)
}

func TestReconciler_ConfirmRedirect_FailedWrittenVerbatim(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()

	deps.gateway.EXPECT().GetOrderStatus(ctx, "m-1").
		Return(model.GatewayOrderStatus{State: model.GatewayStateFailed}, nil)
	deps.store.EXPECT().UpdatePaymentStatus(ctx, "m-1", model.PaymentStatus(model.GatewayStateFailed)).Return(true, nil)
	deps.notifier.EXPECT().PublishOrderPaid(gomock.Any(), gomock.Any()).Times(0)

	status, err := r.ConfirmRedirect(ctx, "m-1")

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatus("FAILED"), status)
}

func TestReconciler_ConfirmRedirect_GatewayError(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()

	deps.gateway.EXPECT().GetOrderStatus(ctx, "m-1").Return(model.GatewayOrderStatus{}, errors.New("timeout"))
	deps.store.EXPECT().UpdatePaymentStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	status, err := r.ConfirmRedirect(ctx, "m-1")

	assert.Error(t, err)
	assert.Empty(t, status)
}

func TestReconciler_ConfirmRedirect_NotifierErrorIgnored(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()
	order := &model.Order{MerchantOrderID: "m-1"}

	deps.gateway.EXPECT().GetOrderStatus(ctx, "m-1").
		Return(model.GatewayOrderStatus{State: model.GatewayStateCompleted}, nil)
	deps.store.EXPECT().UpdatePaymentStatus(ctx, "m-1", model.PaymentStatusPaid).Return(true, nil)
	deps.store.EXPECT().GetOrderByMerchantID(ctx, "m-1").Return(order, nil)
	deps.notifier.EXPECT().PublishOrderPaid(ctx, *order).Return(errors.New("redis down"))

	status, err := r.ConfirmRedirect(ctx, "m-1")

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, status)
}

func TestReconciler_HandleWebhook_Completed(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()
	event := completedEvent("m-1")
	order := &model.Order{MerchantOrderID: "m-1"}

	gomock.InOrder(
		deps.store.EXPECT().WebhookEventExists(ctx, event.DedupeKey()).Return(false, nil),
		deps.store.EXPECT().UpdatePaymentStatus(ctx, "m-1", model.PaymentStatusPaid).Return(true, nil),
		deps.store.EXPECT().GetOrderByMerchantID(ctx, "m-1").Return(order, nil),
		deps.notifier.EXPECT().PublishOrderPaid(ctx, *order).Return(nil),
		deps.store.EXPECT().RecordWebhookEvent(ctx, event).Return(true, nil),
	)

	assert.NoError(t, r.HandleWebhook(ctx, event))
}

func TestReconciler_HandleWebhook_LegacyType(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()
	event := model.WebhookEvent{
		Type:    model.WebhookLegacyTypeOrderCompleted,
		Payload: model.WebhookPayload{MerchantOrderID: "m-1"},
	}

	deps.store.EXPECT().WebhookEventExists(ctx, event.DedupeKey()).Return(false, nil)
	deps.store.EXPECT().UpdatePaymentStatus(ctx, "m-1", model.PaymentStatusPaid).Return(false, nil)
	deps.store.EXPECT().RecordWebhookEvent(ctx, event).Return(true, nil)

	assert.NoError(t, r.HandleWebhook(ctx, event))
}

func TestReconciler_HandleWebhook_Duplicate(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()
	event := completedEvent("m-1")

	deps.store.EXPECT().WebhookEventExists(ctx, event.DedupeKey()).Return(true, nil)
	deps.store.EXPECT().UpdatePaymentStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	deps.store.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Times(0)

	assert.NoError(t, r.HandleWebhook(ctx, event))
}

func TestReconciler_HandleWebhook_NotCompletion(t *testing.T) {
	r, _ := newTestReconciler(t, 1)

	event := model.WebhookEvent{
		Event:   model.WebhookEventOrderFailed,
		Payload: model.WebhookPayload{MerchantOrderID: "m-1", State: model.GatewayStateFailed},
	}

	assert.NoError(t, r.HandleWebhook(context.Background(), event))
}

func TestReconciler_HandleWebhook_UnknownOrder(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()
	event := completedEvent("ghost")

	deps.store.EXPECT().WebhookEventExists(ctx, event.DedupeKey()).Return(false, nil)
	deps.store.EXPECT().UpdatePaymentStatus(ctx, "ghost", model.PaymentStatusPaid).Return(false, nil)
	deps.store.EXPECT().RecordWebhookEvent(ctx, event).Return(true, nil)

	assert.NoError(t, r.HandleWebhook(ctx, event))
}

func TestReconciler_HandleWebhook_StoreError(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()
	event := completedEvent("m-1")

	deps.store.EXPECT().WebhookEventExists(ctx, event.DedupeKey()).Return(false, nil)
	deps.store.EXPECT().UpdatePaymentStatus(ctx, "m-1", model.PaymentStatusPaid).Return(false, errors.New("connection refused"))
	deps.store.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Times(0)

	assert.Error(t, r.HandleWebhook(ctx, event))
}

func TestReconciler_HandleWebhook_MissingMerchantOrderID(t *testing.T) {
	r, _ := newTestReconciler(t, 1)

	err := r.HandleWebhook(context.Background(), completedEvent(""))

	assert.ErrorIs(t, err, model.ErrInvalidWebhook)
}

func TestReconciler_Sweep(t *testing.T) {
	r, deps := newTestReconciler(t, 3)
	ctx := context.Background()

	orders := []model.Order{
		{MerchantOrderID: "m-1"},
		{MerchantOrderID: "m-2"},
		{MerchantOrderID: "m-3"},
		{MerchantOrderID: "m-4"},
	}
	paid := &model.Order{MerchantOrderID: "m-1", PaymentStatus: model.PaymentStatusPaid}

	deps.store.EXPECT().GetOrdersByStatus(ctx, model.PaymentStatusPending, model.OrderStatusPending).Return(orders, nil)

	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), "m-1").Return(model.GatewayOrderStatus{State: model.GatewayStateCompleted}, nil)
	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), "m-2").Return(model.GatewayOrderStatus{State: model.GatewayStatePending}, nil)
	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), "m-3").Return(model.GatewayOrderStatus{}, errors.New("gateway down"))
	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), "m-4").Return(model.GatewayOrderStatus{State: model.GatewayStateFailed}, nil)

	deps.store.EXPECT().UpdatePaymentStatus(gomock.Any(), "m-1", model.PaymentStatusPaid).Return(true, nil)
	deps.store.EXPECT().UpdatePaymentStatus(gomock.Any(), "m-4", model.PaymentStatus(model.GatewayStateFailed)).Return(true, nil)
	deps.store.EXPECT().GetOrderByMerchantID(gomock.Any(), "m-1").Return(paid, nil)
	deps.notifier.EXPECT().PublishOrderPaid(gomock.Any(), *paid).Return(nil)

	checked, err := r.Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, checked)
}

func TestReconciler_Sweep_NoPendingOrders(t *testing.T) {
	r, deps := newTestReconciler(t, 2)
	ctx := context.Background()

	deps.store.EXPECT().GetOrdersByStatus(ctx, model.PaymentStatusPending, model.OrderStatusPending).Return([]model.Order{}, nil)
	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), gomock.Any()).Times(0)

	checked, err := r.Sweep(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 0, checked)
}

func TestReconciler_Sweep_StoreError(t *testing.T) {
	r, deps := newTestReconciler(t, 2)
	ctx := context.Background()

	deps.store.EXPECT().GetOrdersByStatus(ctx, model.PaymentStatusPending, model.OrderStatusPending).Return(nil, errors.New("db down"))

	checked, err := r.Sweep(ctx)

	assert.Error(t, err)
	assert.Equal(t, 0, checked)
}

func TestReconciler_Sweep_RateLimitPausesPool(t *testing.T) {
	r, deps := newTestReconciler(t, 1)
	ctx := context.Background()

	orders := []model.Order{{MerchantOrderID: "m-1"}, {MerchantOrderID: "m-2"}}
	pause := 50 * time.Millisecond

	var limitedAt time.Time
	deps.store.EXPECT().GetOrdersByStatus(ctx, model.PaymentStatusPending, model.OrderStatusPending).Return(orders, nil)
	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), "m-1").
		DoAndReturn(func(context.Context, string) (model.GatewayOrderStatus, error) {
			limitedAt = time.Now()
			return model.GatewayOrderStatus{}, &model.RateLimitError{RetryAfter: pause}
		})
	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), "m-2").
		DoAndReturn(func(context.Context, string) (model.GatewayOrderStatus, error) {
			assert.GreaterOrEqual(t, time.Since(limitedAt), pause)
			return model.GatewayOrderStatus{State: model.GatewayStatePending}, nil
		})

	checked, err := r.Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, checked)
}

func TestReconciler_Sweep_ContextCanceledDuringPause(t *testing.T) {
	r, deps := newTestReconciler(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	orders := []model.Order{{MerchantOrderID: "m-1"}, {MerchantOrderID: "m-2"}}

	deps.store.EXPECT().GetOrdersByStatus(ctx, model.PaymentStatusPending, model.OrderStatusPending).Return(orders, nil)
	deps.gateway.EXPECT().GetOrderStatus(gomock.Any(), "m-1").
		Return(model.GatewayOrderStatus{}, &model.RateLimitError{RetryAfter: time.Hour})

	start := time.Now()
	checked, err := r.Sweep(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, checked)
	assert.Less(t, time.Since(start), time.Second)
}
