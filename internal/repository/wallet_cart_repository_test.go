package repository_test

import (
	"encoding/json"
	"testing"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/objectstore"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/nikolayk812/podstore/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"

func TestWalletCartPath(t *testing.T) {
	assert.Equal(t, "wallets/0xabcdef0123456789abcdef0123456789abcdef01/cart.json", repository.WalletCartPath(testWallet))
}

func TestWalletCart_GetMissing(t *testing.T) {
	repo := repository.NewWalletCart(objectstore.NewMemory(""))

	cart, err := repo.GetCart(t.Context(), testWallet)
	require.NoError(t, err)

	assert.Equal(t, domain.KindWallet, cart.Owner.Kind)
	assert.Equal(t, domain.NormalizeWalletAddress(testWallet), cart.Owner.ID)
	assert.Empty(t, cart.Items)
	assert.NotNil(t, cart.Items)
	assert.Zero(t, cart.Version)
}

func TestWalletCart_InvalidAddress(t *testing.T) {
	repo := repository.NewWalletCart(objectstore.NewMemory(""))

	_, err := repo.GetCart(t.Context(), "not-a-wallet")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWalletCart_SaveAndConflict(t *testing.T) {
	ctx := t.Context()
	store := objectstore.NewMemory("")
	repo := repository.NewWalletCart(store)

	cart, err := repo.GetCart(ctx, testWallet)
	require.NoError(t, err)
	require.NoError(t, cart.Add(randomCartItem()))

	saved, err := repo.SaveCart(ctx, cart)
	require.NoError(t, err)
	assert.NotZero(t, saved.Version)

	// the stored document is plain JSON the browser can read
	data, _, err := store.Download(ctx, repository.WalletCartPath(testWallet))
	require.NoError(t, err)
	var doc struct {
		Items  []map[string]any `json:"items"`
		IsOpen bool             `json:"isOpen"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Items, 1)
	assert.EqualValues(t, cart.Items[0].ProductID, doc.Items[0]["id"])

	got, err := repo.GetCart(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, saved.Version, got.Version)
	assertCartItems(t, saved.Items, got.Items)

	// a writer holding the first read version loses
	_, err = repo.SaveCart(ctx, cart)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	got.Clear()
	cleared, err := repo.SaveCart(ctx, got)
	require.NoError(t, err)
	assert.Greater(t, cleared.Version, saved.Version)
}

func TestWalletCart_RejectsGuestOwner(t *testing.T) {
	repo := repository.NewWalletCart(objectstore.NewMemory(""))

	_, err := repo.SaveCart(t.Context(), domain.NewCart(domain.CartIdentifier{Kind: domain.KindGuest, ID: "guest"}))
	require.Error(t, err)
}

var _ port.ObjectStorage = (*objectstore.Memory)(nil)
