package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
)

const cartContentType = "application/json"

// walletCartDocument is the stored JSON shape of a wallet cart.
type walletCartDocument struct {
	Items     []domain.CartItem `json:"items"`
	IsOpen    bool              `json:"isOpen"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// walletCartRepository keeps one JSON document per wallet in object storage.
// The object generation is the cart version.
type walletCartRepository struct {
	storage port.ObjectStorage
}

func NewWalletCart(storage port.ObjectStorage) port.CartRepository {
	return &walletCartRepository{storage: storage}
}

// WalletCartPath is the deterministic object path of a wallet cart.
func WalletCartPath(walletAddress string) string {
	return fmt.Sprintf("wallets/%s/cart.json", domain.NormalizeWalletAddress(walletAddress))
}

func (r *walletCartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	owner, err := domain.WalletIdentifier(ownerID)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.NewCart(owner)

	data, generation, err := r.storage.Download(ctx, WalletCartPath(owner.ID))
	if errors.Is(err, domain.ErrNotFound) {
		return cart, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("storage.Download: %w", err)
	}

	var doc walletCartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Cart{}, fmt.Errorf("json.Unmarshal[%s]: %w", owner, err)
	}

	if doc.Items != nil {
		cart.Items = doc.Items
	}
	cart.IsOpen = doc.IsOpen
	cart.Version = generation
	cart.UpdatedAt = doc.UpdatedAt

	return cart, nil
}

func (r *walletCartRepository) SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if cart.Owner.Kind != domain.KindWallet {
		return domain.Cart{}, fmt.Errorf("owner[%s] is not a wallet cart", cart.Owner)
	}
	owner, err := domain.WalletIdentifier(cart.Owner.ID)
	if err != nil {
		return domain.Cart{}, err
	}

	saved := cart.Clone()
	saved.Owner = owner
	saved.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(walletCartDocument{
		Items:     saved.Items,
		IsOpen:    saved.IsOpen,
		UpdatedAt: saved.UpdatedAt,
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("json.Marshal: %w", err)
	}

	generation, err := r.storage.Upload(ctx, WalletCartPath(owner.ID), data, cartContentType, port.IfGeneration(cart.Version))
	if err != nil {
		return domain.Cart{}, fmt.Errorf("storage.Upload: %w", err)
	}

	saved.Version = generation
	return saved, nil
}
