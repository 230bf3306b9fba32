package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	merchantOrderIDParam = "merchantOrderId"

	maxWebhookBody   = 64 << 10
	streamKeepAlive  = 25 * time.Second
	streamEventPaid  = "order-paid"
	livenessResponse = "theaterfood backend is running"
)

type Service interface {
	CreateOrder(ctx context.Context, input model.CreateOrderDTO) (*model.CreateOrderResponse, *model.APIError)
	CheckStatus(ctx context.Context, merchantOrderID string) (*model.CheckStatusResponse, *model.APIError)
	ConfirmOrder(ctx context.Context, merchantOrderID string) (*model.ConfirmOrderResponse, *model.APIError)
	HandleWebhook(ctx context.Context, authorization string, body []byte) *model.APIError

	Login(ctx context.Context, input model.LoginDTO) (string, *model.APIError)
	GetActionableOrders(ctx context.Context) ([]model.Order, *model.APIError)
	SetOrderStatus(ctx context.Context, merchantOrderID string, input model.SetOrderStatusDTO) *model.APIError
	CreateManualOrder(ctx context.Context, input model.ManualOrderDTO) (*model.Order, *model.APIError)
	RunSweep(ctx context.Context) (*model.SweepResponse, *model.APIError)
	SubscribePaidOrders(ctx context.Context) (<-chan model.Order, *model.APIError)
}

type Controller struct {
	service Service
	lg      *zap.SugaredLogger
}

func New(s Service, lg *zap.SugaredLogger) *Controller {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}

	return &Controller{
		lg:      lg,
		service: s,
	}
}

func (c *Controller) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(livenessResponse))
}

func (c *Controller) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.CreateOrderDTO](r)
	if err != nil {
		c.lg.Warnf("failed to parse request body: %v", err)
		writeError(w, &model.APIError{Code: http.StatusBadRequest, Message: model.ErrInvalidRequestMessage})
		return
	}

	resp, apiErr := c.service.CreateOrder(r.Context(), body)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, resp, http.StatusOK)
}

func (c *Controller) CheckStatus(w http.ResponseWriter, r *http.Request) {
	resp, apiErr := c.service.CheckStatus(r.Context(), r.URL.Query().Get(merchantOrderIDParam))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, resp, http.StatusOK)
}

func (c *Controller) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	resp, apiErr := c.service.ConfirmOrder(r.Context(), r.URL.Query().Get(merchantOrderIDParam))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, resp, http.StatusOK)
}

// PhonePeWebhook acknowledges every delivery it could process, including
// ones for unknown orders, so the gateway stops retrying.
func (c *Controller) PhonePeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		c.lg.Warnf("failed to read webhook body: %v", err)
		writeError(w, &model.APIError{Code: http.StatusBadRequest, Message: model.ErrInvalidWebhookMessage})
		return
	}

	if apiErr := c.service.HandleWebhook(r.Context(), r.Header.Get("Authorization"), body); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, model.AckResponse{Success: true}, http.StatusOK)
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.LoginDTO](r)
	if err != nil {
		c.lg.Warnf("failed to parse request body: %v", err)
		writeError(w, &model.APIError{Code: http.StatusBadRequest, Message: model.ErrInvalidRequestMessage})
		return
	}

	bearerToken, apiErr := c.service.Login(r.Context(), body)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	w.Header().Set("Authorization", bearerToken)
	w.WriteHeader(http.StatusOK)
}

func (c *Controller) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, apiErr := c.service.GetActionableOrders(r.Context())
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, orders, http.StatusOK)
}

func (c *Controller) CreateManualOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.ManualOrderDTO](r)
	if err != nil {
		c.lg.Warnf("failed to parse request body: %v", err)
		writeError(w, &model.APIError{Code: http.StatusBadRequest, Message: model.ErrInvalidRequestMessage})
		return
	}

	order, apiErr := c.service.CreateManualOrder(r.Context(), body)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, order, http.StatusCreated)
}

func (c *Controller) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.SetOrderStatusDTO](r)
	if err != nil {
		c.lg.Warnf("failed to parse request body: %v", err)
		writeError(w, &model.APIError{Code: http.StatusBadRequest, Message: model.ErrInvalidRequestMessage})
		return
	}

	if apiErr := c.service.SetOrderStatus(r.Context(), chi.URLParam(r, merchantOrderIDParam), body); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, model.AckResponse{Success: true}, http.StatusOK)
}

func (c *Controller) Sweep(w http.ResponseWriter, r *http.Request) {
	resp, apiErr := c.service.RunSweep(r.Context())
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, resp, http.StatusOK)
}

// StreamOrders pushes newly paid orders to the staff dashboard as
// server-sent events until the client goes away.
func (c *Controller) StreamOrders(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, &model.APIError{Code: http.StatusInternalServerError, Message: "streaming unsupported"})
		return
	}

	ctx := r.Context()

	orders, apiErr := c.service.SubscribePaidOrders(ctx)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case order, ok := <-orders:
			if !ok {
				return
			}

			data, err := json.Marshal(order)
			if err != nil {
				c.lg.Errorf("encode order %s for stream: %v", order.MerchantOrderID, err)
				continue
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", streamEventPaid, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
