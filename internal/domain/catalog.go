package domain

import "github.com/shopspring/decimal"

// CatalogProduct is the storefront's local view of a product, addressed by the
// small numeric id the UI and stored carts use.
type CatalogProduct struct {
	ID                int
	Name              string
	Price             decimal.Decimal
	Image1            string
	Image2            string
	ProviderProductID string
}

// NewCartItem seeds a cart line from catalog defaults.
func (p CatalogProduct) NewCartItem(quantity int, size, color string) CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
		Image1:    p.Image1,
		Image2:    p.Image2,
	}
}
