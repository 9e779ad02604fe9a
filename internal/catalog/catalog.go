// Package catalog loads the storefront's local product list from TOML.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/shopspring/decimal"
)

//go:embed default.toml
var defaultCatalog string

type file struct {
	Products []productEntry `toml:"product"`
}

type productEntry struct {
	ID                int    `toml:"id"`
	Name              string `toml:"name"`
	Price             string `toml:"price"`
	Image1            string `toml:"image1"`
	Image2            string `toml:"image2"`
	ProviderProductID string `toml:"provider_product_id"`
}

type Catalog struct {
	products []domain.CatalogProduct
	byID     map[int]domain.CatalogProduct
}

var _ port.Catalog = (*Catalog)(nil)

// Load reads a catalog file, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	var f file

	if strings.TrimSpace(path) == "" {
		if _, err := toml.Decode(defaultCatalog, &f); err != nil {
			return nil, fmt.Errorf("toml.Decode(default): %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, fmt.Errorf("toml.DecodeFile[%s]: %w", path, err)
		}
	}

	return build(f.Products)
}

// Parse reads a catalog from TOML text.
func Parse(text string) (*Catalog, error) {
	var f file
	if _, err := toml.Decode(text, &f); err != nil {
		return nil, fmt.Errorf("toml.Decode: %w", err)
	}
	return build(f.Products)
}

func build(entries []productEntry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog has no products")
	}

	c := &Catalog{byID: make(map[int]domain.CatalogProduct, len(entries))}

	for _, e := range entries {
		if e.ID <= 0 {
			return nil, fmt.Errorf("product %q: id must be positive", e.Name)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("product %d: duplicate id", e.ID)
		}

		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d: price %q: %w", e.ID, e.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %d: price is negative", e.ID)
		}

		p := domain.CatalogProduct{
			ID:                e.ID,
			Name:              e.Name,
			Price:             price,
			Image1:            e.Image1,
			Image2:            e.Image2,
			ProviderProductID: strings.TrimSpace(e.ProviderProductID),
		}
		c.byID[p.ID] = p
		c.products = append(c.products, p)
	}

	slices.SortFunc(c.products, func(a, b domain.CatalogProduct) int {
		return a.ID - b.ID
	})

	return c, nil
}

func (c *Catalog) Product(id int) (domain.CatalogProduct, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Products() []domain.CatalogProduct {
	return slices.Clone(c.products)
}

// ByProviderID maps a provider product back to its local id.
func (c *Catalog) ByProviderID(providerID string) (domain.CatalogProduct, bool) {
	for _, p := range c.products {
		if p.ProviderProductID != "" && p.ProviderProductID == providerID {
			return p, true
		}
	}
	return domain.CatalogProduct{}, false
}

// MaxID is the highest local id in the catalog. Provider products without a
// catalog entry are numbered above it.
func (c *Catalog) MaxID() int {
	if len(c.products) == 0 {
		return 0
	}
	return c.products[len(c.products)-1].ID
}
