package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
)

// memoryCarts keeps guest carts in process memory. Used when no database is
// configured; carts do not survive a restart.
type memoryCarts struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func NewMemoryCart() port.GuestCartRepository {
	return &memoryCarts{carts: make(map[string]domain.Cart)}
}

func (r *memoryCarts) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return loadCart(r.carts, ownerID)
}

func (r *memoryCarts) SaveCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return storeCart(r.carts, cart)
}

// WithinTx serializes fn against every other write and applies its writes
// only when it returns nil.
func (r *memoryCarts) WithinTx(_ context.Context, fn func(repo port.CartRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := &stagedCarts{carts: maps.Clone(r.carts)}
	if err := fn(staged); err != nil {
		return err
	}

	r.carts = staged.carts
	return nil
}

type stagedCarts struct {
	carts map[string]domain.Cart
}

func (s *stagedCarts) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	return loadCart(s.carts, ownerID)
}

func (s *stagedCarts) SaveCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	return storeCart(s.carts, cart)
}

func loadCart(carts map[string]domain.Cart, ownerID string) (domain.Cart, error) {
	owner, err := domain.GuestIdentifier(ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}
	if c, ok := carts[owner.ID]; ok {
		return c.Clone(), nil
	}
	return domain.NewCart(owner), nil
}

func storeCart(carts map[string]domain.Cart, cart domain.Cart) (domain.Cart, error) {
	if cart.Owner.ID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}
	if cart.Owner.Kind != domain.KindGuest {
		return domain.Cart{}, fmt.Errorf("owner[%s] is not a guest cart", cart.Owner)
	}

	current := carts[cart.Owner.ID]
	if current.Version != cart.Version {
		return domain.Cart{}, &domain.Error{
			Kind: domain.KindConflict,
			Op:   "SaveCart",
			Msg:  fmt.Sprintf("cart %s changed since version %d", cart.Owner, cart.Version),
		}
	}

	saved := cart.Clone()
	saved.Version = current.Version + 1
	saved.UpdatedAt = time.Now().UTC()
	carts[cart.Owner.ID] = saved

	return saved.Clone(), nil
}

type memoryCheckouts struct {
	mu        sync.Mutex
	checkouts map[uuid.UUID]domain.Checkout
}

func NewMemoryCheckout() port.CheckoutRepository {
	return &memoryCheckouts{checkouts: make(map[uuid.UUID]domain.Checkout)}
}

func (r *memoryCheckouts) CreateCheckout(_ context.Context, c domain.Checkout) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("checkout id is empty")
	}
	if c.PaymentIntentID == "" {
		return fmt.Errorf("paymentIntentID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.checkouts {
		if existing.PaymentIntentID == c.PaymentIntentID {
			return fmt.Errorf("checkout for intent %s already exists", c.PaymentIntentID)
		}
	}

	if c.Status == "" {
		c.Status = domain.CheckoutAwaitingPayment
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Lines = slices.Clone(c.Lines)
	r.checkouts[c.ID] = c

	return nil
}

func (r *memoryCheckouts) GetCheckoutByIntent(_ context.Context, intentID string) (domain.Checkout, error) {
	if intentID == "" {
		return domain.Checkout{}, fmt.Errorf("intentID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.checkouts {
		if c.PaymentIntentID == intentID {
			return c, nil
		}
	}
	return domain.Checkout{}, domain.NotFound("paymentIntentId", "no checkout for this payment")
}

func (r *memoryCheckouts) UpdateCheckoutStatus(_ context.Context, id uuid.UUID, status domain.CheckoutStatus, orderID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.checkouts[id]
	if !ok {
		return domain.NotFound("checkoutId", fmt.Sprintf("checkout %s not found", id))
	}

	c.Status, c.OrderID, c.FailureReason = status, orderID, reason
	c.UpdatedAt = time.Now().UTC()
	r.checkouts[id] = c

	return nil
}

func (r *memoryCheckouts) ClaimCheckout(_ context.Context, id uuid.UUID, from, to domain.CheckoutStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.checkouts[id]
	if !ok || c.Status != from {
		return false, nil
	}

	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	r.checkouts[id] = c

	return true, nil
}

func (r *memoryCheckouts) ListCheckoutsByStatus(_ context.Context, status domain.CheckoutStatus, limit int) ([]domain.Checkout, error) {
	if limit <= 0 {
		limit = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Checkout
	for _, c := range r.checkouts {
		if c.Status == status {
			result = append(result, c)
		}
	}

	slices.SortFunc(result, func(a, b domain.Checkout) int {
		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
