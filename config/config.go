package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

type Checkout struct {
	URL        string        `long:"url" env:"URL" description:"base URL of the checkout provider"`
	APIKey     string        `long:"api-key" env:"API_KEY" description:"secret key of the checkout provider"`
	SuccessURL string        `long:"success-url" env:"SUCCESS_URL" description:"where the provider redirects after payment"`
	CancelURL  string        `long:"cancel-url" env:"CANCEL_URL" description:"where the provider redirects after cancellation"`
	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"timeout of a single provider call"`
}

type Config struct {
	HTTPAddr       string   `long:"http-addr" env:"HTTP_ADDR" default:":8080" description:"address the HTTP server listens on"`
	PostgresURL    string   `long:"postgres-url" env:"POSTGRES_URL" description:"Postgres connection string"`
	RedisAddr      string   `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address, host:port"`
	JWTSecret      string   `long:"jwt-secret" env:"JWT_SECRET" description:"HS256 secret of identity tokens"`
	Currency       string   `long:"currency" env:"CURRENCY" default:"usd" description:"currency of all prices"`
	JaegerEndpoint string   `long:"jaeger-endpoint" env:"JAEGER_ENDPOINT" description:"collector endpoint, tracing export is off when empty"`
	LogLevel       string   `long:"log-level" env:"LOG_LEVEL" default:"info" description:"logrus level"`
	Checkout       Checkout `group:"Checkout" namespace:"checkout" env-namespace:"CHECKOUT"`
}

// Load parses args (without the program name) and the environment. Flags win over env.
func Load(args []string) (Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return Config{}, fmt.Errorf("could not parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	if c.PostgresURL == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}
	if c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Checkout.URL == "" {
		errs = append(errs, errors.New("CHECKOUT_URL is required"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}

func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
