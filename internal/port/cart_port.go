package port

import (
	"context"

	"github.com/nikolayk812/podstore/internal/domain"
)

// CartRepository persists whole carts. SaveCart succeeds only when the stored
// version still equals cart.Version and returns the cart at its new version;
// otherwise it fails with domain.ErrVersionConflict.
type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
}

// GuestCartRepository can run cart writes inside a transaction that commits
// only when fn returns nil.
type GuestCartRepository interface {
	CartRepository
	WithinTx(ctx context.Context, fn func(repo CartRepository) error) error
}

type Catalog interface {
	Product(id int) (domain.CatalogProduct, bool)
	Products() []domain.CatalogProduct
	ByProviderID(providerID string) (domain.CatalogProduct, bool)
	MaxID() int
}
