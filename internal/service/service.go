package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/geethamultiplex/theaterfood/internal/pricing"
	"github.com/geethamultiplex/theaterfood/pgk/auth"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const merchantOrderIDParam = "merchantOrderId"

type StorageRepo interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrdersByStatus(ctx context.Context, paymentStatus model.PaymentStatus, status model.OrderStatus) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, merchantOrderID string, status model.OrderStatus) error
	GetStaffByLogin(ctx context.Context, login string) (*model.Staff, error)
	CreateStaff(ctx context.Context, staff model.Staff) (int64, error)
}

type PasswordRepo interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, hash string) bool
}

type Gateway interface {
	Pay(ctx context.Context, req model.PayRequest) (model.PayResponse, error)
	GetOrderStatus(ctx context.Context, merchantOrderID string) (model.GatewayOrderStatus, error)
	VerifyWebhook(authorization string, body []byte) (model.WebhookEvent, error)
}

type Reconciler interface {
	ConfirmRedirect(ctx context.Context, merchantOrderID string) (model.PaymentStatus, error)
	HandleWebhook(ctx context.Context, event model.WebhookEvent) error
	Sweep(ctx context.Context) (int, error)
}

type Notifier interface {
	PublishOrderPaid(ctx context.Context, order model.Order) error
	Subscribe(ctx context.Context) (<-chan model.Order, error)
}

type Config struct {
	RedirectURL string
	TokenSecret string
	TokenExp    time.Duration
}

type Service struct {
	storage    StorageRepo
	password   PasswordRepo
	gateway    Gateway
	reconciler Reconciler
	notifier   Notifier
	validate   *validator.Validate
	lg         *zap.SugaredLogger

	redirectURL string
	tokenSecret string
	tokenExp    time.Duration

	now   func() time.Time
	newID func() string
}

func New(s StorageRepo, p PasswordRepo, g Gateway, r Reconciler, n Notifier, cfg Config, lg *zap.SugaredLogger) *Service {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}

	return &Service{
		storage:    s,
		password:   p,
		gateway:    g,
		reconciler: r,
		notifier:   n,
		validate:   newValidator(),
		lg:         lg,

		redirectURL: cfg.RedirectURL,
		tokenSecret: cfg.TokenSecret,
		tokenExp:    cfg.TokenExp,

		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CreateOrder starts a gateway checkout and stores the pending order. Nothing
// is stored unless the gateway accepted the payment request.
func (s *Service) CreateOrder(ctx context.Context, input model.CreateOrderDTO) (*model.CreateOrderResponse, *model.APIError) {
	if err := s.validateCreateOrder(input); err != nil {
		return nil, err
	}

	data := input.Data
	amount := pricing.RoundAmount(data.Amount)
	if !amount.IsPositive() {
		return nil, &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrAmountRequiredMessage,
		}
	}

	bill := model.Bill{Total: amount}
	if len(data.Items) > 0 {
		bill = pricing.Calculate(data.Items)
		if !bill.Total.Equal(amount) {
			return nil, &model.APIError{
				Code:    http.StatusBadRequest,
				Message: model.ErrAmountMismatchMessage,
			}
		}
	}

	merchantOrderID := s.newID()

	redirectURL, err := s.confirmationURL(merchantOrderID)
	if err != nil {
		s.lg.Errorf("build redirect url: %v", err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrCreateOrderMessage,
		}
	}

	payment, err := s.gateway.Pay(ctx, model.PayRequest{
		MerchantOrderID: merchantOrderID,
		Amount:          pricing.ToMinorUnits(amount),
		RedirectURL:     redirectURL,
	})
	if err != nil {
		s.lg.Errorf("create order %s: %v", merchantOrderID, err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrCreateOrderMessage,
		}
	}

	orderID := data.TransactionID
	if orderID == "" {
		orderID = s.transactionID()
	}

	order := &model.Order{
		OrderID:         orderID,
		MerchantOrderID: merchantOrderID,
		CustomerName:    data.Name,
		CustomerPhone:   data.Phone,
		SeatNumber:      data.SeatNumber,
		Screen:          data.Screen,
		Items:           data.Items,
		Subtotal:        bill.Subtotal,
		HandlingCharge:  bill.HandlingCharge,
		Total:           bill.Total,
		PaymentStatus:   model.PaymentStatusPending,
		Status:          model.OrderStatusPending,
		Source:          model.OrderSourceOnline,
	}

	if err := s.storage.CreateOrder(ctx, order); err != nil {
		s.lg.Errorf("store order %s: %v", merchantOrderID, err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrCreateOrderMessage,
		}
	}

	return &model.CreateOrderResponse{
		CheckoutPageURL: payment.RedirectURL,
		MerchantOrderID: merchantOrderID,
		Success:         true,
	}, nil
}

// CheckStatus reports the gateway state as is; it does not write anything.
func (s *Service) CheckStatus(ctx context.Context, merchantOrderID string) (*model.CheckStatusResponse, *model.APIError) {
	if merchantOrderID == "" {
		return nil, &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrMerchantOrderIDRequiredMessage,
		}
	}

	status, err := s.gateway.GetOrderStatus(ctx, merchantOrderID)
	if err != nil {
		s.lg.Errorf("check status of %s: %v", merchantOrderID, err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrGetStatusMessage,
		}
	}

	return &model.CheckStatusResponse{Status: status.State}, nil
}

// ConfirmOrder is called when the customer lands back from the checkout page.
func (s *Service) ConfirmOrder(ctx context.Context, merchantOrderID string) (*model.ConfirmOrderResponse, *model.APIError) {
	if merchantOrderID == "" {
		return nil, &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrMerchantOrderIDRequiredMessage,
		}
	}

	status, err := s.reconciler.ConfirmRedirect(ctx, merchantOrderID)
	if err != nil {
		s.lg.Errorf("confirm order %s: %v", merchantOrderID, err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrGetStatusMessage,
		}
	}

	return &model.ConfirmOrderResponse{
		Success:         status == model.PaymentStatusPaid,
		MerchantOrderID: merchantOrderID,
		PaymentStatus:   status,
	}, nil
}

func (s *Service) HandleWebhook(ctx context.Context, authorization string, body []byte) *model.APIError {
	event, err := s.gateway.VerifyWebhook(authorization, body)
	if err != nil {
		if errors.Is(err, model.ErrWebhookUnauthorized) {
			s.lg.Warnf("webhook rejected: %v", err)
			return &model.APIError{
				Code:    http.StatusUnauthorized,
				Message: http.StatusText(http.StatusUnauthorized),
			}
		}

		s.lg.Warnf("webhook malformed: %v", err)
		return &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrInvalidWebhookMessage,
		}
	}

	if err := s.reconciler.HandleWebhook(ctx, event); err != nil {
		if errors.Is(err, model.ErrInvalidWebhook) {
			s.lg.Warnf("webhook malformed: %v", err)
			return &model.APIError{
				Code:    http.StatusBadRequest,
				Message: model.ErrInvalidWebhookMessage,
			}
		}

		s.lg.Errorf("webhook %s: %v", event.DedupeKey(), err)
		return &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	return nil
}

func (s *Service) Login(ctx context.Context, input model.LoginDTO) (string, *model.APIError) {
	if err := s.validate.Struct(input); err != nil {
		return "", &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrInvalidLoginOrPasswordMessage,
		}
	}

	staff, err := s.storage.GetStaffByLogin(ctx, input.Login)
	if err != nil {
		if errors.Is(err, model.ErrStaffNotFound) {
			return "", &model.APIError{
				Code:    http.StatusUnauthorized,
				Message: model.ErrInvalidLoginOrPasswordMessage,
			}
		}

		s.lg.Errorf("get staff %s: %v", input.Login, err)
		return "", &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	if !s.password.CheckPasswordHash(input.Password, staff.Password) {
		return "", &model.APIError{
			Code:    http.StatusUnauthorized,
			Message: model.ErrInvalidLoginOrPasswordMessage,
		}
	}

	token, err := auth.GenerateBearerToken(model.TokenInfo{
		ID:    staff.ID,
		Login: staff.Login,
	}, s.tokenExp, s.tokenSecret)
	if err != nil {
		return "", &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	return token, nil
}

// EnsureStaff creates the bootstrap staff account if it does not exist yet.
func (s *Service) EnsureStaff(ctx context.Context, login, password string) error {
	if login == "" || password == "" {
		return nil
	}

	_, err := s.storage.GetStaffByLogin(ctx, login)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrStaffNotFound) {
		return err
	}

	hash, err := s.password.HashPassword(password)
	if err != nil {
		return err
	}

	if _, err := s.storage.CreateStaff(ctx, model.Staff{Login: login, Password: hash}); err != nil {
		if errors.Is(err, model.ErrStaffAlreadyExists) {
			return nil
		}
		return err
	}

	s.lg.Infof("staff account %q created", login)
	return nil
}

// GetActionableOrders lists paid orders that still wait for fulfilment.
func (s *Service) GetActionableOrders(ctx context.Context) ([]model.Order, *model.APIError) {
	orders, err := s.storage.GetOrdersByStatus(ctx, model.PaymentStatusPaid, model.OrderStatusPending)
	if err != nil {
		s.lg.Errorf("get actionable orders: %v", err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	actionable := make([]model.Order, 0, len(orders))
	for _, order := range orders {
		if order.PaymentStatus == model.PaymentStatusPaid && order.Status == model.OrderStatusPending {
			actionable = append(actionable, order)
		}
	}

	return actionable, nil
}

func (s *Service) SetOrderStatus(ctx context.Context, merchantOrderID string, input model.SetOrderStatusDTO) *model.APIError {
	if merchantOrderID == "" {
		return &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrMerchantOrderIDRequiredMessage,
		}
	}

	if err := s.validate.Struct(input); err != nil {
		return &model.APIError{
			Code:    http.StatusBadRequest,
			Message: validationMessage(err),
		}
	}

	err := s.storage.UpdateOrderStatus(ctx, merchantOrderID, input.Status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrOrderNotFound):
		return &model.APIError{
			Code:    http.StatusNotFound,
			Message: model.ErrOrderNotFoundMessage,
		}
	case errors.Is(err, model.ErrOrderNotPending):
		return &model.APIError{
			Code:    http.StatusConflict,
			Message: model.ErrOrderNotPendingMessage,
		}
	default:
		s.lg.Errorf("set status of %s: %v", merchantOrderID, err)
		return &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}
}

// CreateManualOrder records an order taken and paid at the counter.
func (s *Service) CreateManualOrder(ctx context.Context, input model.ManualOrderDTO) (*model.Order, *model.APIError) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &model.APIError{
			Code:    http.StatusBadRequest,
			Message: validationMessage(err),
		}
	}

	bill := pricing.Calculate(input.Items)

	order := &model.Order{
		OrderID:         s.transactionID(),
		MerchantOrderID: s.newID(),
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		SeatNumber:      input.SeatNumber,
		Screen:          input.Screen,
		Items:           input.Items,
		Subtotal:        bill.Subtotal,
		HandlingCharge:  bill.HandlingCharge,
		Total:           bill.Total,
		PaymentStatus:   model.PaymentStatusPaid,
		Status:          model.OrderStatusPending,
		Source:          model.OrderSourceManual,
	}

	if err := s.storage.CreateOrder(ctx, order); err != nil {
		s.lg.Errorf("store manual order: %v", err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	if err := s.notifier.PublishOrderPaid(ctx, *order); err != nil {
		s.lg.Errorf("publish manual order %s: %v", order.MerchantOrderID, err)
	}

	return order, nil
}

// RunSweep runs one reconciliation sweep on demand.
func (s *Service) RunSweep(ctx context.Context) (*model.SweepResponse, *model.APIError) {
	checked, err := s.reconciler.Sweep(ctx)
	if err != nil {
		s.lg.Errorf("sweep: %v", err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	return &model.SweepResponse{Checked: checked}, nil
}

func (s *Service) SubscribePaidOrders(ctx context.Context) (<-chan model.Order, *model.APIError) {
	orders, err := s.notifier.Subscribe(ctx)
	if err != nil {
		s.lg.Errorf("subscribe to paid orders: %v", err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	return orders, nil
}

func (s *Service) confirmationURL(merchantOrderID string) (string, error) {
	u, err := url.Parse(s.redirectURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set(merchantOrderIDParam, merchantOrderID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (s *Service) transactionID() string {
	return fmt.Sprintf("TXN_%d", s.now().UnixMilli())
}
