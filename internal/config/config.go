package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:5174"}

// Config is decoded from the process environment (optionally seeded from .env).
type Config struct {
	Env      string `env:"ENV,default=dev"`
	Port     string `env:"PORT,default=5000"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	MongoURI  string        `env:"MONGODB_URI"`
	MongoUser string        `env:"MDB_USER"`
	MongoPass string        `env:"MDB_PASS"`
	MongoHost string        `env:"MDB_HOST,default=cluster0.mongodb.net"`
	MongoDB   string        `env:"MONGODB_DB,default=bms"`
	DBTimeout time.Duration `env:"DB_TIMEOUT,default=5s"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=1h"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	StripeAPIBase   string `env:"STRIPE_API_BASE,default=https://api.stripe.com"`
	PaymentCurrency string `env:"PAYMENT_CURRENCY,default=usd"`

	CORSOrigins string `env:"CORS_ORIGINS"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX,default=30"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load decodes the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}
	return &cfg, nil
}

// MongoConnURI returns MONGODB_URI when set, otherwise builds an Atlas SRV URI
// from MDB_USER/MDB_PASS/MDB_HOST, falling back to a local server.
func (c *Config) MongoConnURI() string {
	if uri := strings.TrimSpace(c.MongoURI); uri != "" {
		return uri
	}
	if c.MongoUser == "" {
		return "mongodb://localhost:27017"
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.MongoUser, c.MongoPass),
		Host:     c.MongoHost,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority&appName=bms",
	}
	return u.String()
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	raw := strings.TrimSpace(c.CORSOrigins)
	if raw == "" {
		return defaultCORSOrigins
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
