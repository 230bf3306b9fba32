package model

import (
	"errors"
	"fmt"
	"time"
)

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

const (
	ErrInternalServerMessage          = "internal server error"
	ErrInvalidLoginOrPasswordMessage  = "invalid login or password"
	ErrAmountRequiredMessage          = "amount is required in the 'data' object"
	ErrAmountMismatchMessage          = "amount does not match cart total"
	ErrMerchantOrderIDRequiredMessage = "merchantOrderId is required"
	ErrCreateOrderMessage             = "error creating order"
	ErrGetStatusMessage               = "error getting status"
	ErrOrderNotFoundMessage           = "order not found"
	ErrOrderNotPendingMessage         = "order is not pending"
	ErrInvalidRequestMessage          = "invalid request"
	ErrInvalidWebhookMessage          = "invalid webhook"
)

var (
	ErrOrderNotFound       = errors.New(ErrOrderNotFoundMessage)
	ErrOrderAlreadyExists  = errors.New("order already exists")
	ErrOrderNotPending     = errors.New(ErrOrderNotPendingMessage)
	ErrStaffNotFound       = errors.New("staff not found")
	ErrStaffAlreadyExists  = errors.New("staff already exists")
	ErrWebhookUnauthorized = errors.New("webhook authorization mismatch")
	ErrInvalidWebhook      = errors.New(ErrInvalidWebhookMessage)
)

// RateLimitError is returned by the gateway client when the gateway answers 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %v", e.RetryAfter)
}
