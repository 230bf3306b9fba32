package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/config"
	"github.com/geethamultiplex/theaterfood/internal/gateway/phonepe"
	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/geethamultiplex/theaterfood/internal/notify"
	"github.com/geethamultiplex/theaterfood/internal/reconcile"
	"github.com/geethamultiplex/theaterfood/internal/repository/password"
	"github.com/geethamultiplex/theaterfood/internal/repository/pg"
	"github.com/geethamultiplex/theaterfood/internal/service"
	"github.com/geethamultiplex/theaterfood/pgk/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	httpController "github.com/geethamultiplex/theaterfood/internal/controller/http"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type notifier interface {
	PublishOrderPaid(ctx context.Context, order model.Order) error
	Subscribe(ctx context.Context) (<-chan model.Order, error)
	Close() error
}

func Run(cfg config.Config, lg *zap.SugaredLogger) error {
	if err := checkWebhookCredentials(cfg, lg); err != nil {
		return err
	}

	storage, err := pg.New(cfg.DatabaseURI)
	if err != nil {
		return err
	}

	gateway := phonepe.New(phonepe.Config{
		ClientID:        cfg.PhonePeClientID,
		ClientSecret:    cfg.PhonePeClientSecret,
		ClientVersion:   cfg.PhonePeClientVersion,
		Env:             cfg.PhonePeEnv,
		WebhookUsername: cfg.PhonePeWebhookUsername,
		WebhookPassword: cfg.PhonePeWebhookPassword,
		Timeout:         cfg.GatewayTimeout,
		MaxRetries:      cfg.GatewayMaxRetries,
	})

	n, err := newNotifier(cfg.RedisAddr, lg)
	if err != nil {
		return err
	}

	reconciler := reconcile.New(storage, gateway, n, cfg.SweepWorkers, lg)

	sweeper, err := reconcile.NewSweeper(reconciler, cfg.SweepInterval, lg)
	if err != nil {
		return fmt.Errorf("create sweeper: %w", err)
	}

	s := service.New(storage, password.New(cfg.PassCost), gateway, reconciler, n, service.Config{
		RedirectURL: cfg.RedirectURL,
		TokenSecret: cfg.SecretKey,
		TokenExp:    cfg.TokenLifetime,
	}, lg)

	if cfg.StaffLogin != "" {
		if err := s.EnsureStaff(context.Background(), cfg.StaffLogin, cfg.StaffPassword); err != nil {
			return fmt.Errorf("ensure staff account: %w", err)
		}
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.LoggingMiddleware(lg))
	router.Use(middleware.Recoverer)

	handlers := httpController.New(s, lg)
	router = httpController.InitRoutes(router, handlers, httpController.RouterOptions{
		SecretKey:      cfg.SecretKey,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := newServer(cfg.RunAddress, router)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper.Start()

	lg.Infof("starting server on %s (phonepe %s)", cfg.RunAddress, cfg.PhonePeEnv)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalf("server ListenAndServe error: %v", err)
		}
	}()

	<-signalCtx.Done()
	lg.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = shutdown(ctx, srv,
		closer{name: "sweeper", close: sweeper.Stop},
		closer{name: "notifier", close: n.Close},
		closer{name: "repo", close: storage.Shutdown},
	)
	if err != nil {
		return err
	}

	lg.Info("server shutdown success")
	return nil
}

// newServer cancels the context of every open request once Shutdown starts,
// so the staff order streams end instead of holding the server open.
func newServer(addr string, handler http.Handler) *http.Server {
	baseCtx, cancel := context.WithCancel(context.Background())

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}
	srv.RegisterOnShutdown(cancel)

	return srv
}

type closer struct {
	name  string
	close func() error
}

// shutdown stops the server and then runs every closer, even when an earlier
// step failed.
func shutdown(ctx context.Context, srv *http.Server, closers ...closer) error {
	var errs []error

	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown (server) error: %w", err))
	}

	for _, c := range closers {
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("shutdown (%s) error: %w", c.name, err))
		}
	}

	return errors.Join(errs...)
}

// checkWebhookCredentials refuses to run production without webhook
// authorization; the sandbox only gets a warning.
func checkWebhookCredentials(cfg config.Config, lg *zap.SugaredLogger) error {
	if cfg.PhonePeWebhookUsername != "" && cfg.PhonePeWebhookPassword != "" {
		return nil
	}

	if cfg.Production() {
		return errors.New("PHONEPE_WEBHOOK_USERNAME and PHONEPE_WEBHOOK_PASSWORD are required in production")
	}

	lg.Warn("webhook credentials are not set, webhook authorization is disabled")
	return nil
}

// newNotifier uses Redis pub/sub when an address is configured and an
// in-process hub otherwise.
func newNotifier(redisAddr string, lg *zap.SugaredLogger) (notifier, error) {
	if redisAddr == "" {
		lg.Info("REDIS_ADDR is not set, using in-process notifications")
		return notify.NewHub(), nil
	}

	r, err := notify.NewRedis(redisAddr, lg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return r, nil
}
