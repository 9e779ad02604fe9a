package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
)

// Migrator moves a guest cart into a wallet cart on explicit request.
// Lines merge on (productId, size, color), the same key addItem uses.
type Migrator struct {
	guest    port.GuestCartRepository
	wallet   port.CartRepository
	catalog  port.Catalog
	attempts int
}

func NewMigrator(guest port.GuestCartRepository, wallet port.CartRepository, catalog port.Catalog) *Migrator {
	return &Migrator{
		guest:    guest,
		wallet:   wallet,
		catalog:  catalog,
		attempts: defaultSaveAttempts,
	}
}

// Migrate merges the guest session's cart into the wallet cart and empties
// the guest cart. Either both carts change or neither does: the guest clear
// commits only after the wallet upload succeeded, and a failed commit puts
// the wallet cart back the way it was.
func (m *Migrator) Migrate(ctx context.Context, guestSession string, wallet domain.CartIdentifier) (domain.Cart, error) {
	guestID, err := domain.GuestIdentifier(guestSession)
	if err != nil {
		return domain.Cart{}, err
	}
	if !wallet.IsWallet() {
		return domain.Cart{}, domain.Invalid("walletId", "migration target must be a wallet cart")
	}

	var result domain.Cart
	err = retryOnConflict(ctx, m.attempts, func() error {
		merged, err := m.migrateOnce(ctx, guestID, wallet)
		if err != nil {
			return err
		}
		result = merged
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	return result, nil
}

func (m *Migrator) migrateOnce(ctx context.Context, guestID, wallet domain.CartIdentifier) (domain.Cart, error) {
	var (
		before  domain.Cart
		written *domain.Cart
		result  domain.Cart
	)

	txErr := m.guest.WithinTx(ctx, func(guestRepo port.CartRepository) error {
		guestCart, err := guestRepo.GetCart(ctx, guestID.ID)
		if err != nil {
			return persistenceError("Migrate", err)
		}

		walletCart, err := m.wallet.GetCart(ctx, wallet.ID)
		if err != nil {
			return persistenceError("Migrate", err)
		}

		if guestCart.IsEmpty() {
			result = walletCart
			return nil
		}

		before = walletCart.Clone()
		merged := walletCart.Clone()
		if err := merged.Merge(guestCart.Items); err != nil {
			return err
		}

		saved, err := m.wallet.SaveCart(ctx, merged)
		if err != nil {
			return persistenceError("Migrate", err)
		}
		written = &saved

		guestCart.Clear()
		if _, err := guestRepo.SaveCart(ctx, guestCart); err != nil {
			return persistenceError("Migrate", err)
		}

		result = saved
		return nil
	})
	if txErr == nil {
		if written != nil {
			log.Printf("[migrate] guest=%s wallet=%s lines=%d", guestID.ID, wallet.ID, len(result.Items))
		}
		return result, nil
	}

	if written != nil {
		if err := m.restoreWallet(ctx, before, *written); err != nil {
			log.Printf("[migrate] RESTORE FAILED wallet=%s guest=%s err=%v", wallet.ID, guestID.ID, err)
			return domain.Cart{}, &domain.Error{
				Kind: domain.KindPersistence,
				Op:   "Migrate",
				Msg:  "migration failed and the wallet cart could not be restored",
				Err:  errors.Join(txErr, err),
			}
		}
		log.Printf("[migrate] rolled back wallet=%s guest=%s err=%v", wallet.ID, guestID.ID, txErr)
	}

	return domain.Cart{}, txErr
}

// restoreWallet writes the pre-migration items over the cart we just wrote.
// It is conditional on our own write still being current.
func (m *Migrator) restoreWallet(ctx context.Context, before, written domain.Cart) error {
	restore := before.Clone()
	restore.Version = written.Version

	if _, err := m.wallet.SaveCart(ctx, restore); err != nil {
		return fmt.Errorf("wallet.SaveCart: %w", err)
	}
	return nil
}

// MigrateItems merges browser-held guest items into the wallet cart. Catalog
// defaults replace whatever name, price and images the client sent.
func (m *Migrator) MigrateItems(ctx context.Context, items []domain.CartItem, wallet domain.CartIdentifier) (domain.Cart, error) {
	if !wallet.IsWallet() {
		return domain.Cart{}, domain.Invalid("walletId", "migration target must be a wallet cart")
	}

	normalized := make([]domain.CartItem, 0, len(items))
	for i, item := range items {
		product, ok := m.catalog.Product(item.ProductID)
		if !ok {
			e := domain.NotFound("id", fmt.Sprintf("product %d does not exist", item.ProductID))
			e.Line = i + 1
			return domain.Cart{}, e
		}
		line := product.NewCartItem(item.Quantity, item.Size, item.Color)
		line.VariantImage = item.VariantImage
		normalized = append(normalized, line)
	}

	var result domain.Cart
	err := retryOnConflict(ctx, m.attempts, func() error {
		cart, err := m.wallet.GetCart(ctx, wallet.ID)
		if err != nil {
			return persistenceError("MigrateItems", err)
		}
		if len(normalized) == 0 {
			result = cart
			return nil
		}
		if err := cart.Merge(normalized); err != nil {
			return err
		}
		saved, err := m.wallet.SaveCart(ctx, cart)
		if err != nil {
			return persistenceError("MigrateItems", err)
		}
		result = saved
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	log.Printf("[migrate] local items=%d wallet=%s lines=%d", len(items), wallet.ID, len(result.Items))
	return result, nil
}
