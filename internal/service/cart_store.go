// Package service holds the storefront's cart, migration, product and checkout logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/nikolayk812/podstore/internal/repository"
)

const (
	defaultSaveAttempts = 3
	conflictRetryDelay  = 25 * time.Millisecond
)

// CartStore applies cart operations to the backend owning the identifier.
// Every mutation is a conditional read-modify-write that is re-run on a
// version conflict, up to the configured number of attempts.
type CartStore struct {
	guest    port.GuestCartRepository
	wallet   port.CartRepository
	catalog  port.Catalog
	storage  port.ObjectStorage
	attempts int
}

func NewCartStore(guest port.GuestCartRepository, wallet port.CartRepository, catalog port.Catalog, storage port.ObjectStorage) *CartStore {
	return &CartStore{
		guest:    guest,
		wallet:   wallet,
		catalog:  catalog,
		storage:  storage,
		attempts: defaultSaveAttempts,
	}
}

func (s *CartStore) Get(ctx context.Context, id domain.CartIdentifier) (domain.Cart, error) {
	repo, err := s.repo(id)
	if err != nil {
		return domain.Cart{}, err
	}

	cart, err := repo.GetCart(ctx, id.ID)
	if err != nil {
		return domain.Cart{}, persistenceError("GetCart", err)
	}
	return cart, nil
}

func (s *CartStore) AddItem(ctx context.Context, id domain.CartIdentifier, productID, quantity int, size, color string) (domain.Cart, error) {
	if quantity <= 0 {
		return domain.Cart{}, domain.Invalid("quantity", "quantity must be a positive integer")
	}
	product, ok := s.catalog.Product(productID)
	if !ok {
		return domain.Cart{}, domain.NotFound("id", fmt.Sprintf("product %d does not exist", productID))
	}

	item := product.NewCartItem(quantity, size, color)
	return s.mutate(ctx, id, "AddItem", func(c *domain.Cart) (bool, error) {
		return true, c.Add(item)
	})
}

// RemoveItem deletes every line matching sel. Removing a line that is not in
// the cart is not an error.
func (s *CartStore) RemoveItem(ctx context.Context, id domain.CartIdentifier, sel domain.LineSelector) (domain.Cart, error) {
	return s.mutate(ctx, id, "RemoveItem", func(c *domain.Cart) (bool, error) {
		return c.Remove(sel) > 0, nil
	})
}

func (s *CartStore) UpdateQuantity(ctx context.Context, id domain.CartIdentifier, sel domain.LineSelector, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id, sel)
	}
	return s.mutate(ctx, id, "UpdateQuantity", func(c *domain.Cart) (bool, error) {
		return true, c.SetQuantity(sel, quantity)
	})
}

func (s *CartStore) Clear(ctx context.Context, id domain.CartIdentifier) (domain.Cart, error) {
	return s.mutate(ctx, id, "Clear", func(c *domain.Cart) (bool, error) {
		changed := !c.IsEmpty()
		c.Clear()
		return changed || c.Version == 0, nil
	})
}

// Replace overwrites the stored items and open flag with the given state.
func (s *CartStore) Replace(ctx context.Context, id domain.CartIdentifier, items []domain.CartItem, isOpen bool) (domain.Cart, error) {
	return s.mutate(ctx, id, "Replace", func(c *domain.Cart) (bool, error) {
		c.Clear()
		c.IsOpen = isOpen
		return true, c.Merge(items)
	})
}

// CartURL is the public location of a wallet cart document; empty for guests.
func (s *CartStore) CartURL(id domain.CartIdentifier) string {
	if !id.IsWallet() || s.storage == nil {
		return ""
	}
	return s.storage.PublicURL(repository.WalletCartPath(id.ID))
}

func (s *CartStore) repo(id domain.CartIdentifier) (port.CartRepository, error) {
	switch id.Kind {
	case domain.KindGuest:
		return s.guest, nil
	case domain.KindWallet:
		return s.wallet, nil
	default:
		return nil, domain.Invalid("cartIdentifier", fmt.Sprintf("unknown cart type %q", id.Kind))
	}
}

// mutate re-reads the cart on every attempt; fn reports whether it changed anything.
func (s *CartStore) mutate(ctx context.Context, id domain.CartIdentifier, op string, fn func(c *domain.Cart) (bool, error)) (domain.Cart, error) {
	repo, err := s.repo(id)
	if err != nil {
		return domain.Cart{}, err
	}

	var result domain.Cart
	err = retryOnConflict(ctx, s.attempts, func() error {
		cart, err := repo.GetCart(ctx, id.ID)
		if err != nil {
			return persistenceError(op, err)
		}

		changed, err := fn(&cart)
		if err != nil {
			return err
		}
		if !changed {
			result = cart
			return nil
		}

		saved, err := repo.SaveCart(ctx, cart)
		if err != nil {
			return persistenceError(op, err)
		}
		result = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			log.Printf("[cart_store] %s gave up after %d attempts cart=%s", op, s.attempts, id)
		}
		return domain.Cart{}, err
	}

	log.Printf("[cart_store] %s ok cart=%s lines=%d version=%d", op, id, len(result.Items), result.Version)
	return result, nil
}

// retryOnConflict re-runs fn while it fails with a version conflict.
func retryOnConflict(ctx context.Context, attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(conflictRetryDelay), uint64(attempts-1)),
		ctx,
	)

	return backoff.Retry(func() error {
		err := fn()
		if err == nil || errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

// persistenceError classifies storage failures that are not already domain errors.
func persistenceError(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return &domain.Error{Kind: domain.KindPersistence, Op: op, Msg: "cart storage failed", Err: err}
}
