package model

import "fmt"

const (
	GatewayStateCompleted = "COMPLETED"
	GatewayStatePending   = "PENDING"
	GatewayStateFailed    = "FAILED"

	WebhookEventOrderCompleted      = "checkout.order.completed"
	WebhookEventOrderFailed         = "checkout.order.failed"
	WebhookLegacyTypeOrderCompleted = "CHECKOUT_ORDER_COMPLETED"
)

type PayRequest struct {
	MerchantOrderID string
	Amount          int64
	RedirectURL     string
}

type PayResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	RedirectURL string `json:"redirectUrl"`
	ExpireAt    int64  `json:"expireAt"`
}

type GatewayOrderStatus struct {
	OrderID string `json:"orderId"`
	State   string `json:"state"`
	Amount  int64  `json:"amount"`
}

type WebhookPayload struct {
	OrderID         string `json:"orderId"`
	MerchantID      string `json:"merchantId"`
	MerchantOrderID string `json:"merchantOrderId"`
	State           string `json:"state"`
	Amount          int64  `json:"amount"`
}

type WebhookEvent struct {
	Event   string         `json:"event"`
	Type    string         `json:"type"`
	Payload WebhookPayload `json:"payload"`
}

// IndicatesCompletion reports whether either the event type or the payload
// state says the payment went through.
func (e WebhookEvent) IndicatesCompletion() bool {
	return e.Event == WebhookEventOrderCompleted ||
		e.Type == WebhookLegacyTypeOrderCompleted ||
		e.Payload.State == GatewayStateCompleted
}

func (e WebhookEvent) Name() string {
	if e.Event != "" {
		return e.Event
	}
	return e.Type
}

// DedupeKey identifies a delivery; redeliveries of the same event share it.
func (e WebhookEvent) DedupeKey() string {
	return fmt.Sprintf("%s:%s:%s", e.Name(), e.Payload.MerchantOrderID, e.Payload.State)
}
