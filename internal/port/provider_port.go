package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/podstore/internal/domain"
)

type FulfillmentProvider interface {
	ListProducts(ctx context.Context, page, limit int) (domain.ProductPage, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
}

type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, amount domain.Money, metadata map[string]string) (domain.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (domain.PaymentIntent, error)
}

// Precondition guards an object upload. Generation 0 means the object must not exist yet.
type Precondition struct {
	Enabled    bool
	Generation int64
}

func IfGeneration(gen int64) Precondition {
	return Precondition{Enabled: true, Generation: gen}
}

type ObjectStorage interface {
	Exists(ctx context.Context, path string) (bool, error)
	// Download returns the object bytes and generation, domain.ErrNotFound when absent.
	Download(ctx context.Context, path string) ([]byte, int64, error)
	Upload(ctx context.Context, path string, data []byte, contentType string, cond Precondition) (int64, error)
	PublicURL(path string) string
}

type CheckoutRepository interface {
	CreateCheckout(ctx context.Context, c domain.Checkout) error
	GetCheckoutByIntent(ctx context.Context, intentID string) (domain.Checkout, error)
	UpdateCheckoutStatus(ctx context.Context, id uuid.UUID, status domain.CheckoutStatus, orderID, reason string) error
	// ClaimCheckout moves the checkout from one status to another only if it is
	// still in the first. It reports false when another caller got there first.
	ClaimCheckout(ctx context.Context, id uuid.UUID, from, to domain.CheckoutStatus) (bool, error)
	ListCheckoutsByStatus(ctx context.Context, status domain.CheckoutStatus, limit int) ([]domain.Checkout, error)
}

type Notifier interface {
	ManualOrderPlaced(ctx context.Context, address domain.ShippingAddress, order domain.Order, total domain.Money) error
	FulfillmentPending(ctx context.Context, c domain.Checkout) error
}
