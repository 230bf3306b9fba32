package config

import (
	"errors"
	"flag"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/geethamultiplex/theaterfood/internal/gateway/phonepe"
	"github.com/joho/godotenv"
)

const (
	DefaultRunAddress    = ":8080"
	DefaultDatabaseURI   = ""
	DefaultRedisAddr     = ""
	DefaultSecretKey     = "secret"
	DefaultTokenLifetime = 12 * time.Hour
	DefaultSweepInterval = 30 * time.Second
)

type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	RedisAddr   string `env:"REDIS_ADDR"`

	PhonePeClientID        string `env:"PHONEPE_CLIENT_ID"`
	PhonePeClientSecret    string `env:"PHONEPE_CLIENT_SECRET"`
	PhonePeClientVersion   int    `env:"PHONEPE_CLIENT_VERSION" envDefault:"1"`
	PhonePeEnv             string `env:"PHONEPE_ENV" envDefault:"SANDBOX"`
	PhonePeWebhookUsername string `env:"PHONEPE_WEBHOOK_USERNAME"`
	PhonePeWebhookPassword string `env:"PHONEPE_WEBHOOK_PASSWORD"`

	RedirectURL       string        `env:"REDIRECT_URL" envDefault:"https://theater-food.life/order-confirmation"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://theater-food.life"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	GatewayMaxRetries int           `env:"GATEWAY_MAX_RETRIES" envDefault:"2"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`
	SweepWorkers  int           `env:"SWEEP_WORKERS" envDefault:"4"`

	PassCost      int           `env:"PASS_COST" envDefault:"10"`
	SecretKey     string        `env:"SECRET_KEY"`
	TokenLifetime time.Duration `env:"TOKEN_LIFETIME"`
	StaffLogin    string        `env:"STAFF_LOGIN"`
	StaffPassword string        `env:"STAFF_PASSWORD"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Read loads an optional .env file, then flags, then environment variables.
// Environment variables win over flags.
func Read() (Config, error) {
	config := Config{}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, err
	}

	flag.StringVar(&config.RunAddress, "a", DefaultRunAddress, "Server run address")
	flag.StringVar(&config.DatabaseURI, "d", DefaultDatabaseURI, "Database connect string")
	flag.StringVar(&config.RedisAddr, "r", DefaultRedisAddr, "Redis address host:port for staff notifications")
	flag.DurationVar(&config.SweepInterval, "i", DefaultSweepInterval, "Payment reconciliation sweep interval")

	flag.StringVar(&config.SecretKey, "s", DefaultSecretKey, "Secret key for staff tokens")
	flag.DurationVar(&config.TokenLifetime, "h", DefaultTokenLifetime, "Staff token lifetime (e.g. 1h, 30m, 2h30m)")

	flag.Parse()

	err := env.Parse(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func (c Config) Production() bool {
	return c.PhonePeEnv == phonepe.EnvProduction
}
