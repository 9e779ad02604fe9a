// Package config loads storefront settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/currency"
)

const (
	StorageGCS    = "gcs"
	StorageMemory = "memory"
)

type Config struct {
	Addr           string   `env:"STOREFRONT_ADDR" envDefault:":8080"`
	DatabaseURL    string   `env:"STOREFRONT_DATABASE_URL"`
	StorageDriver  string   `env:"STOREFRONT_STORAGE_DRIVER" envDefault:"memory"`
	CartBucket     string   `env:"STOREFRONT_CART_BUCKET"`
	CatalogPath    string   `env:"STOREFRONT_CATALOG_PATH"`
	Currency       string   `env:"STOREFRONT_CURRENCY" envDefault:"USD"`
	AllowedOrigins []string `env:"STOREFRONT_ALLOWED_ORIGINS" envSeparator:","`
	AdminToken     string   `env:"STOREFRONT_ADMIN_TOKEN"`
	SecureCookies  bool     `env:"STOREFRONT_SECURE_COOKIES" envDefault:"false"`
	OtelEndpoint   string   `env:"STOREFRONT_OTEL_ENDPOINT"`

	Printify Printify
	Stripe   Stripe
	Mail     Mail
}

type Printify struct {
	Token              string `env:"PRINTIFY_API_TOKEN"`
	ShopID             string `env:"PRINTIFY_SHOP_ID"`
	BaseURL            string `env:"PRINTIFY_BASE_URL"`
	MaxRetries         int    `env:"PRINTIFY_MAX_RETRIES" envDefault:"3"`
	RateLimitPerMinute int    `env:"PRINTIFY_RATE_LIMIT_PER_MINUTE" envDefault:"600"`
}

type Stripe struct {
	SecretKey string `env:"STRIPE_SECRET_KEY"`
}

type Mail struct {
	SendGridKey string `env:"SENDGRID_API_KEY"`
	From        string `env:"STOREFRONT_MAIL_FROM" envDefault:"shop@localhost"`
	OpsEmail    string `env:"STOREFRONT_OPS_EMAIL"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageGCS:
		if strings.TrimSpace(c.CartBucket) == "" {
			errs = append(errs, errors.New("STOREFRONT_CART_BUCKET is required for the gcs storage driver"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STOREFRONT_STORAGE_DRIVER %q is not one of gcs, memory", c.StorageDriver))
	}

	if _, err := c.CurrencyUnit(); err != nil {
		errs = append(errs, err)
	}
	if c.Printify.MaxRetries < 0 {
		errs = append(errs, errors.New("PRINTIFY_MAX_RETRIES must not be negative"))
	}
	if c.Printify.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("PRINTIFY_RATE_LIMIT_PER_MINUTE must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("STOREFRONT_CURRENCY %q: %w", c.Currency, err)
	}
	return unit, nil
}

// UseDatabase reports whether guest carts and checkouts live in Postgres.
func (c Config) UseDatabase() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}
