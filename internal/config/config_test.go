package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 600, cfg.Printify.RateLimitPerMinute)
	assert.False(t, cfg.UseDatabase())

	unit, err := cfg.CurrencyUnit()
	require.NoError(t, err)
	assert.Equal(t, currency.USD, unit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "gcs")
	t.Setenv("STOREFRONT_CART_BUCKET", "carts")
	t.Setenv("STOREFRONT_ALLOWED_ORIGINS", "https://shop.example.com,http://localhost:3000")
	t.Setenv("STOREFRONT_DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("PRINTIFY_SHOP_ID", "12345")
	t.Setenv("STOREFRONT_CURRENCY", "eur")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "carts", cfg.CartBucket)
	assert.Equal(t, []string{"https://shop.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "12345", cfg.Printify.ShopID)
	assert.True(t, cfg.UseDatabase())

	unit, err := cfg.CurrencyUnit()
	require.NoError(t, err)
	assert.Equal(t, currency.EUR, unit)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unparsable int",
			env:     map[string]string{"PRINTIFY_MAX_RETRIES": "many"},
			wantErr: "parse env:",
		},
		{
			name:    "unknown storage driver",
			env:     map[string]string{"STOREFRONT_STORAGE_DRIVER": "s3"},
			wantErr: "STOREFRONT_STORAGE_DRIVER",
		},
		{
			name:    "gcs without bucket",
			env:     map[string]string{"STOREFRONT_STORAGE_DRIVER": "gcs"},
			wantErr: "STOREFRONT_CART_BUCKET",
		},
		{
			name:    "bad currency",
			env:     map[string]string{"STOREFRONT_CURRENCY": "dollars"},
			wantErr: "STOREFRONT_CURRENCY",
		},
		{
			name:    "zero rate limit",
			env:     map[string]string{"PRINTIFY_RATE_LIMIT_PER_MINUTE": "0"},
			wantErr: "PRINTIFY_RATE_LIMIT_PER_MINUTE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
