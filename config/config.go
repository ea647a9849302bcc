package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"serverpe-gateway/logger"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Backend  BackendConfig  `envPrefix:"SERVERPE_"`
	Session  SessionConfig  `envPrefix:"SESSION_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Checkout CheckoutConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port          string `env:"SERVER_PORT" envDefault:"8080"`
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:5173"`
	RateLimit     int    `env:"API_RATE_LIMIT_PER_MINUTE" envDefault:"120"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// BackendConfig points at the ServerPe REST backend.
type BackendConfig struct {
	BaseURL        string        `env:"BASE_URL" envDefault:"http://localhost:5000/api"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"20s"`
	PaymentTimeout time.Duration `env:"PAYMENT_TIMEOUT" envDefault:"10s"`
}

type SessionConfig struct {
	Secret   string `env:"SECRET"`
	Name     string `env:"NAME" envDefault:"serverpe-session"`
	Domain   string `env:"DOMAIN"`
	MaxAge   int    `env:"MAX_AGE" envDefault:"86400"`
	Secure   bool   `env:"SECURE" envDefault:"true"`
	HttpOnly bool   `env:"HTTP_ONLY" envDefault:"true"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost:3306"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	DBName   string `env:"NAME" envDefault:"serverpe_gateway"`
}

type RedisConfig struct {
	URL            string        `env:"URL" envDefault:"redis://localhost:6379/0"`
	StatesCacheTTL time.Duration `env:"STATES_CACHE_TTL" envDefault:"24h"`
}

type CheckoutConfig struct {
	SellerStateCode string        `env:"SELLER_STATE_CODE" envDefault:"29"`
	QuoteSecret     string        `env:"QUOTE_SIGNING_SECRET"`
	QuoteTTL        time.Duration `env:"QUOTE_TTL" envDefault:"15m"`
	GatewayKeyID    string        `env:"RAZORPAY_KEY_ID"`
	MerchantName    string        `env:"MERCHANT_NAME" envDefault:"ServerPe"`
}

type AuthConfig struct {
	OTPTimeout      time.Duration `env:"OTP_TIMEOUT" envDefault:"15s"`
	OTPSendLimit    int           `env:"OTP_SEND_LIMIT" envDefault:"5"`
	OTPSendWindow   time.Duration `env:"OTP_SEND_WINDOW" envDefault:"15m"`
	PublicRoutes    []string      `env:"PUBLIC_ROUTES" envSeparator:"," envDefault:"/,/auth,/auth/*,/login,/subscribe,/legal/*,/privacy-policy,/terms-and-conditions,/refund-policy,/shipping-policy,/contact,/about,/projects,/projects/*"`
	AuthScreenRoute string        `env:"AUTH_SCREEN_ROUTE" envDefault:"/auth"`
}

var ErrMissingSecret = errors.New("session and quote signing secrets are required")

// Load reads an optional .env file and binds the environment onto Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warn("Error loading .env file", zap.Error(err))
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Session.Secret == "" || cfg.Checkout.QuoteSecret == "" {
		return nil, ErrMissingSecret
	}

	return cfg, nil
}

// DSN renders the go-sql-driver/mysql connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", c.User, c.Password, c.Host, c.DBName)
}
