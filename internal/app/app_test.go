package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/config"
	"github.com/geethamultiplex/theaterfood/internal/gateway/phonepe"
	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/geethamultiplex/theaterfood/internal/notify"
	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpController "github.com/geethamultiplex/theaterfood/internal/controller/http"
	service "github.com/geethamultiplex/theaterfood/internal/service/mocks"
)

func serve(t *testing.T, handler http.Handler) (*http.Server, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := newServer(ln.Addr().String(), handler)
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return srv, "http://" + ln.Addr().String()
}

func TestShutdown_EndsOpenOrderStream(t *testing.T) {
	ctrl := gomock.NewController(t)

	hub := notify.NewHub()
	mockSvc := service.NewMockService(ctrl)
	mockSvc.EXPECT().
		SubscribePaidOrders(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (<-chan model.Order, *model.APIError) {
			orders, err := hub.Subscribe(ctx)
			if err != nil {
				return nil, &model.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
			}
			return orders, nil
		})

	router := chi.NewRouter()
	router.Get("/staff/orders/stream", httpController.New(mockSvc, nil).StreamOrders)

	srv, baseURL := serve(t, router)

	resp, err := http.Get(baseURL + "/staff/orders/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var closed []string
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err = shutdown(ctx, srv,
		closer{name: "sweeper", close: func() error {
			closed = append(closed, "sweeper")
			return nil
		}},
		closer{name: "notifier", close: func() error {
			closed = append(closed, "notifier")
			return hub.Close()
		}},
	)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"sweeper", "notifier"}, closed)

	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
}

func TestShutdown_RunsClosersWhenServerTimesOut(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-release
	})

	srv, baseURL := serve(t, handler)
	t.Cleanup(func() { close(release) })

	resp, err := http.Get(baseURL)
	require.NoError(t, err)
	defer resp.Body.Close()

	errRepo := errors.New("connection pool closed twice")
	var closed []string

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = shutdown(ctx, srv,
		closer{name: "sweeper", close: func() error {
			closed = append(closed, "sweeper")
			return nil
		}},
		closer{name: "repo", close: func() error {
			closed = append(closed, "repo")
			return errRepo
		}},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, errRepo)
	assert.Contains(t, err.Error(), "shutdown (server) error")
	assert.Contains(t, err.Error(), "shutdown (repo) error")
	assert.Equal(t, []string{"sweeper", "repo"}, closed)
}

func TestCheckWebhookCredentials(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{
			name: "sandbox without credentials",
			cfg:  config.Config{PhonePeEnv: phonepe.EnvSandbox},
		},
		{
			name:    "production without credentials",
			cfg:     config.Config{PhonePeEnv: phonepe.EnvProduction, PhonePeWebhookUsername: "theater"},
			wantErr: true,
		},
		{
			name: "production with credentials",
			cfg: config.Config{
				PhonePeEnv:             phonepe.EnvProduction,
				PhonePeWebhookUsername: "theater",
				PhonePeWebhookPassword: "hook-pass",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkWebhookCredentials(tt.cfg, zap.NewNop().Sugar())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
