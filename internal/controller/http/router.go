package http

import (
	"net/http"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/geethamultiplex/theaterfood/pgk/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	SecretKey      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func InitRoutes(r *chi.Mux, c *Controller, opts RouterOptions) *chi.Mux {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Authorization"},
		MaxAge:         300,
	}))

	limiter := NewIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	r.Get("/", c.Root)
	r.Post("/webhook/phonepe", c.PhonePeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Post("/create-order", c.CreateOrder)
		r.Get("/check-status", c.CheckStatus)
		r.Get("/order-confirmation", c.ConfirmOrder)
	})

	r.Route("/staff", func(r chi.Router) {
		r.With(limiter.Middleware).Post("/login", c.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthBearerMiddlewareInit[model.TokenInfo](opts.SecretKey))

			r.Get("/orders", c.GetOrders)
			r.Post("/orders", c.CreateManualOrder)
			r.Patch("/orders/{merchantOrderId}/status", c.SetOrderStatus)
			r.Get("/orders/stream", c.StreamOrders)
			r.Post("/sweep", c.Sweep)
		})
	})

	return r
}
