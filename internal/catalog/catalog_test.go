package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nikolayk812/podstore/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)

	products := c.Products()
	require.Len(t, products, 4)

	p, ok := c.Product(3)
	require.True(t, ok)
	assert.Equal(t, "Digital Realm Hoodie", p.Name)
	assert.True(t, decimal.RequireFromString("159.99").Equal(p.Price))
	assert.Equal(t, "686061b9115d268c1d0f2afd", p.ProviderProductID)

	back, ok := c.ByProviderID(p.ProviderProductID)
	require.True(t, ok)
	assert.Equal(t, 3, back.ID)

	_, ok = c.Product(99)
	assert.False(t, ok)

	assert.Equal(t, 4, c.MaxID())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	err := os.WriteFile(path, []byte(`
[[product]]
id = 7
name = "Tee"
price = "25.00"
`), 0o600)
	require.NoError(t, err)

	c, err := catalog.Load(path)
	require.NoError(t, err)

	p, ok := c.Product(7)
	require.True(t, ok)
	assert.Equal(t, "Tee", p.Name)
	assert.Empty(t, p.ProviderProductID)
	assert.Equal(t, 7, c.MaxID())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantError string
	}{
		{
			name:      "empty catalog",
			text:      ``,
			wantError: "catalog has no products",
		},
		{
			name: "duplicate id",
			text: `
[[product]]
id = 1
price = "1"
[[product]]
id = 1
price = "2"
`,
			wantError: "product 1: duplicate id",
		},
		{
			name: "zero id",
			text: `
[[product]]
id = 0
name = "x"
price = "1"
`,
			wantError: `product "x": id must be positive`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse(tt.text)
			require.EqualError(t, err, tt.wantError)
		})
	}
}

func TestParse_BadPrice(t *testing.T) {
	_, err := catalog.Parse(`
[[product]]
id = 2
price = "abc"
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product 2: price")
}
