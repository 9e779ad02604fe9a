package service_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
)

// memGuestRepo is an in-memory guest cart store. Writes made through WithinTx
// become visible only when fn returns nil and commitErr is unset.
type memGuestRepo struct {
	mu        sync.Mutex
	carts     map[string]domain.Cart
	commitErr error
}

func newMemGuestRepo() *memGuestRepo {
	return &memGuestRepo{carts: map[string]domain.Cart{}}
}

func (r *memGuestRepo) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return getFrom(r.carts, ownerID), nil
}

func (r *memGuestRepo) SaveCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return saveTo(r.carts, cart)
}

func (r *memGuestRepo) WithinTx(_ context.Context, fn func(repo port.CartRepository) error) error {
	r.mu.Lock()
	staged := &memTx{carts: maps.Clone(r.carts)}
	r.mu.Unlock()

	if err := fn(staged); err != nil {
		return err
	}
	if r.commitErr != nil {
		return fmt.Errorf("tx.Commit: %w", r.commitErr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts = staged.carts
	return nil
}

type memTx struct {
	carts map[string]domain.Cart
}

func (t *memTx) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	return getFrom(t.carts, ownerID), nil
}

func (t *memTx) SaveCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	return saveTo(t.carts, cart)
}

func getFrom(carts map[string]domain.Cart, ownerID string) domain.Cart {
	if c, ok := carts[ownerID]; ok {
		return c.Clone()
	}
	return domain.NewCart(domain.CartIdentifier{Kind: domain.KindGuest, ID: ownerID})
}

func saveTo(carts map[string]domain.Cart, cart domain.Cart) (domain.Cart, error) {
	current := carts[cart.Owner.ID]
	if current.Version != cart.Version {
		return domain.Cart{}, &domain.Error{Kind: domain.KindConflict, Op: "SaveCart", Msg: "cart was modified concurrently"}
	}
	saved := cart.Clone()
	saved.Version++
	carts[cart.Owner.ID] = saved
	return saved.Clone(), nil
}

// racingRepo lets another writer slip in before the first `races` saves.
type racingRepo struct {
	port.CartRepository
	races int
	saves int
	rival func(ctx context.Context) error
}

func (r *racingRepo) SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	r.saves++
	if r.races > 0 {
		r.races--
		if err := r.rival(ctx); err != nil {
			return domain.Cart{}, err
		}
	}
	return r.CartRepository.SaveCart(ctx, cart)
}

type fakeProvider struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	listing   []domain.Product
	orders    []domain.OrderRequest
	createErr error
	// partialOrderID is returned with createErr, as when the order exists but
	// could not be sent to production.
	partialOrderID string
	getCalls       int
	// beforeCreate runs at the start of CreateOrder, outside the lock.
	beforeCreate func()
}

func newFakeProvider(products ...domain.Product) *fakeProvider {
	p := &fakeProvider{products: map[string]domain.Product{}}
	for _, prod := range products {
		p.products[prod.ID] = prod
		p.listing = append(p.listing, prod)
	}
	return p
}

func (p *fakeProvider) ListProducts(_ context.Context, page, limit int) (domain.ProductPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := min((page-1)*limit, len(p.listing))
	end := min(start+limit, len(p.listing))
	return domain.ProductPage{Page: page, LastPage: 1, Total: len(p.listing), Products: slices.Clone(p.listing[start:end])}, nil
}

func (p *fakeProvider) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.getCalls++
	prod, ok := p.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return prod, nil
}

func (p *fakeProvider) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.Order, error) {
	if p.beforeCreate != nil {
		p.beforeCreate()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.orders = append(p.orders, req)
	if p.createErr != nil {
		return domain.Order{ID: p.partialOrderID}, p.createErr
	}
	return domain.Order{ID: fmt.Sprintf("ord-%d", len(p.orders)), ExternalID: req.ExternalID, Status: "on-hold"}, nil
}

type fakePayments struct {
	intents map[string]domain.PaymentIntent
	created []map[string]string
	seq     int
}

func newFakePayments() *fakePayments {
	return &fakePayments{intents: map[string]domain.PaymentIntent{}}
}

func (p *fakePayments) CreatePaymentIntent(_ context.Context, amount domain.Money, metadata map[string]string) (domain.PaymentIntent, error) {
	if amount.MinorUnits() <= 0 {
		return domain.PaymentIntent{}, domain.Invalid("amount", "must be positive")
	}
	p.seq++
	intent := domain.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", p.seq),
		ClientSecret: fmt.Sprintf("pi_%d_secret", p.seq),
		Status:       domain.PaymentRequiresMethod,
		Amount:       amount,
	}
	p.intents[intent.ID] = intent
	p.created = append(p.created, metadata)
	return intent, nil
}

func (p *fakePayments) RetrieveIntent(_ context.Context, intentID string) (domain.PaymentIntent, error) {
	intent, ok := p.intents[intentID]
	if !ok {
		return domain.PaymentIntent{}, domain.NotFound("paymentIntentId", "no such intent")
	}
	return intent, nil
}

func (p *fakePayments) setStatus(intentID string, status domain.PaymentStatus) {
	intent := p.intents[intentID]
	intent.Status = status
	p.intents[intentID] = intent
}

type memCheckouts struct {
	mu       sync.Mutex
	byIntent map[string]domain.Checkout
}

func newMemCheckouts() *memCheckouts {
	return &memCheckouts{byIntent: map[string]domain.Checkout{}}
}

func (r *memCheckouts) CreateCheckout(_ context.Context, c domain.Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byIntent[c.PaymentIntentID]; ok {
		return fmt.Errorf("duplicate intent %s", c.PaymentIntentID)
	}
	r.byIntent[c.PaymentIntentID] = c
	return nil
}

func (r *memCheckouts) GetCheckoutByIntent(_ context.Context, intentID string) (domain.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byIntent[intentID]
	if !ok {
		return domain.Checkout{}, domain.NotFound("paymentIntentId", "checkout not found")
	}
	return c, nil
}

func (r *memCheckouts) UpdateCheckoutStatus(_ context.Context, id uuid.UUID, status domain.CheckoutStatus, orderID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, c := range r.byIntent {
		if c.ID == id {
			c.Status, c.OrderID, c.FailureReason = status, orderID, reason
			r.byIntent[k] = c
			return nil
		}
	}
	return domain.NotFound("id", "checkout not found")
}

func (r *memCheckouts) ClaimCheckout(_ context.Context, id uuid.UUID, from, to domain.CheckoutStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, c := range r.byIntent {
		if c.ID == id {
			if c.Status != from {
				return false, nil
			}
			c.Status = to
			r.byIntent[k] = c
			return true, nil
		}
	}
	return false, nil
}

func (r *memCheckouts) ListCheckoutsByStatus(_ context.Context, status domain.CheckoutStatus, limit int) ([]domain.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Checkout
	for _, c := range r.byIntent {
		if c.Status == status && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	manual  []domain.Order
	pending []domain.Checkout
}

func (n *recordingNotifier) ManualOrderPlaced(_ context.Context, _ domain.ShippingAddress, order domain.Order, _ domain.Money) error {
	n.manual = append(n.manual, order)
	return nil
}

func (n *recordingNotifier) FulfillmentPending(_ context.Context, c domain.Checkout) error {
	n.pending = append(n.pending, c)
	return nil
}
