package phonepe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/geethamultiplex/theaterfood/pgk/retryablehttp"
)

const (
	EnvSandbox    = "SANDBOX"
	EnvProduction = "PRODUCTION"

	sandboxAuthHost    = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	sandboxPGHost      = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	productionAuthHost = "https://api.phonepe.com/apis/identity-manager"
	productionPGHost   = "https://api.phonepe.com/apis/pg"

	tokenPath  = "/v1/oauth/token"
	payPath    = "/checkout/v2/pay"
	statusPath = "/checkout/v2/order/%s/status"

	paymentFlowType = "PG_CHECKOUT"

	tokenExpiryMargin = time.Minute
	defaultTokenTTL   = 5 * time.Minute
	defaultRetryAfter = 10 * time.Second

	maxErrorBody = 512
)

type Config struct {
	ClientID        string
	ClientSecret    string
	ClientVersion   int
	Env             string
	WebhookUsername string
	WebhookPassword string

	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt; zero
	// sends each request once.
	MaxRetries int

	// AuthHost and PGHost override the hosts picked by Env.
	AuthHost string
	PGHost   string
}

type Client struct {
	cfg      Config
	authHost string
	pgHost   string
	http     *retryablehttp.RetryableClient

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

func New(cfg Config) *Client {
	authHost, pgHost := sandboxAuthHost, sandboxPGHost
	if cfg.Env == EnvProduction {
		authHost, pgHost = productionAuthHost, productionPGHost
	}
	if cfg.AuthHost != "" {
		authHost = cfg.AuthHost
	}
	if cfg.PGHost != "" {
		pgHost = cfg.PGHost
	}
	if cfg.ClientVersion == 0 {
		cfg.ClientVersion = 1
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = retryablehttp.NoRetries
	}

	return &Client{
		cfg:      cfg,
		authHost: strings.TrimRight(authHost, "/"),
		pgHost:   strings.TrimRight(pgHost, "/"),
		http: retryablehttp.NewRetryableClient(retryablehttp.RetryConfig{
			MaxRetries: maxRetries,
			Timeout:    cfg.Timeout,
		}),
		now: time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
	ExpiresIn   int64  `json:"expires_in"`
}

type merchantURLs struct {
	RedirectURL string `json:"redirectUrl"`
}

type paymentFlow struct {
	Type         string       `json:"type"`
	MerchantURLs merchantURLs `json:"merchantUrls"`
}

type payRequest struct {
	MerchantOrderID string      `json:"merchantOrderId"`
	Amount          int64       `json:"amount"`
	PaymentFlow     paymentFlow `json:"paymentFlow"`
}

// Pay creates a checkout session for the given amount in paise.
func (c *Client) Pay(ctx context.Context, req model.PayRequest) (model.PayResponse, error) {
	var result model.PayResponse

	body, err := json.Marshal(payRequest{
		MerchantOrderID: req.MerchantOrderID,
		Amount:          req.Amount,
		PaymentFlow: paymentFlow{
			Type:         paymentFlowType,
			MerchantURLs: merchantURLs{RedirectURL: req.RedirectURL},
		},
	})
	if err != nil {
		return result, err
	}

	if err := c.call(ctx, http.MethodPost, c.pgHost+payPath, body, &result); err != nil {
		return result, fmt.Errorf("phonepe pay: %w", err)
	}

	if result.RedirectURL == "" {
		return result, errors.New("phonepe pay: response has no redirect url")
	}

	return result, nil
}

func (c *Client) GetOrderStatus(ctx context.Context, merchantOrderID string) (model.GatewayOrderStatus, error) {
	var result model.GatewayOrderStatus

	endpoint := c.pgHost + fmt.Sprintf(statusPath, url.PathEscape(merchantOrderID))
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return result, fmt.Errorf("phonepe order status: %w", err)
	}

	return result, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, body []byte, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "O-Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		c.resetToken()
	}
	if err != nil {
		return responseError(resp, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// accessToken returns the cached token or fetches a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_version", strconv.Itoa(c.cfg.ClientVersion))
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authHost+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("phonepe token: %w", responseError(resp, err))
	}
	defer resp.Body.Close()

	var token tokenResponse
	if err := decodeResponse(resp, &token); err != nil {
		return "", fmt.Errorf("phonepe token: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("phonepe token: empty access token")
	}

	now := c.now()
	expiry := now.Add(defaultTokenTTL)
	switch {
	case token.ExpiresAt > 0:
		expiry = time.Unix(token.ExpiresAt, 0)
	case token.ExpiresIn > 0:
		expiry = now.Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	c.token = token.AccessToken
	c.tokenExpiry = expiry.Add(-tokenExpiryMargin)

	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// responseError turns a failed exchange into an error, keeping 429 typed.
func responseError(resp *http.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return &model.RateLimitError{RetryAfter: retryablehttp.RetryAfter(resp, defaultRetryAfter)}
	}

	return err
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return &model.RateLimitError{RetryAfter: retryablehttp.RetryAfter(resp, defaultRetryAfter)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
