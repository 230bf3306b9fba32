package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentStatusFromGatewayState maps a gateway order state onto the stored
// payment status. Failure states are kept verbatim.
func PaymentStatusFromGatewayState(state string) PaymentStatus {
	switch state {
	case GatewayStateCompleted:
		return PaymentStatusPaid
	case GatewayStatePending, "":
		return PaymentStatusPending
	default:
		return PaymentStatus(state)
	}
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusNotDone   OrderStatus = "not_done"
)

type OrderSource string

const (
	OrderSourceOnline OrderSource = "online"
	OrderSourceManual OrderSource = "manual"
)

type Item struct {
	Name     string          `json:"name" validate:"required"`
	Quantity int             `json:"quantity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price"`
}

type Order struct {
	ID              int64           `json:"id"`
	OrderID         string          `json:"orderId"`
	MerchantOrderID string          `json:"merchantOrderId"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	SeatNumber      string          `json:"seatNumber"`
	Screen          string          `json:"screen"`
	Items           []Item          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	HandlingCharge  decimal.Decimal `json:"handlingCharge"`
	Total           decimal.Decimal `json:"total"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Status          OrderStatus     `json:"status"`
	Source          OrderSource     `json:"source"`
	CreatedAt       time.Time       `json:"createdAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// Bill is the price breakdown of a cart.
type Bill struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	HandlingCharge decimal.Decimal `json:"handlingCharge"`
	Total          decimal.Decimal `json:"total"`
}

type CreateOrderData struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Items         []Item  `json:"items" validate:"omitempty,dive"`
	Name          string  `json:"name"`
	Phone         string  `json:"number"`
	SeatNumber    string  `json:"seatNumber"`
	Screen        string  `json:"screen"`
	TransactionID string  `json:"transactionId"`
}

type CreateOrderDTO struct {
	Data *CreateOrderData `json:"data" validate:"required"`
}

type CreateOrderResponse struct {
	CheckoutPageURL string `json:"checkoutPageUrl"`
	MerchantOrderID string `json:"merchantOrderId"`
	Success         bool   `json:"success"`
}

type CheckStatusResponse struct {
	Status string `json:"status"`
}

type ConfirmOrderResponse struct {
	Success         bool          `json:"success"`
	MerchantOrderID string        `json:"merchantOrderId"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
}

type ManualOrderDTO struct {
	Items         []Item `json:"items" validate:"required,min=1,dive"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	SeatNumber    string `json:"seatNumber" validate:"required"`
	Screen        string `json:"screen"`
}

type SetOrderStatusDTO struct {
	Status OrderStatus `json:"status" validate:"required,oneof=completed not_done"`
}

type AckResponse struct {
	Success bool `json:"success"`
}

type SweepResponse struct {
	Checked int `json:"checked"`
}
