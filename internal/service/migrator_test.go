package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingSaves fails every SaveCart with err.
type failingSaves struct {
	port.CartRepository
	err error
}

func (f failingSaves) SaveCart(context.Context, domain.Cart) (domain.Cart, error) {
	return domain.Cart{}, f.err
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name       string
		guestLines []lineQty
		walletSeed []lineQty
		want       []lineQty
	}{
		{
			name:       "into empty wallet cart",
			guestLines: []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 2}},
			want:       []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 2}},
		},
		{
			name:       "same key adds quantities",
			guestLines: []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 2}},
			walletSeed: []lineQty{
				{ProductID: 1, Size: "M", Color: "Black", Quantity: 3},
				{ProductID: 2, Size: "L", Color: "White", Quantity: 1},
			},
			want: []lineQty{
				{ProductID: 1, Size: "M", Color: "Black", Quantity: 5},
				{ProductID: 2, Size: "L", Color: "White", Quantity: 1},
			},
		},
		{
			name:       "different size is a separate line",
			guestLines: []lineQty{{ProductID: 1, Size: "L", Color: "Black", Quantity: 1}},
			walletSeed: []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 1}},
			want: []lineQty{
				{ProductID: 1, Size: "M", Color: "Black", Quantity: 1},
				{ProductID: 1, Size: "L", Color: "Black", Quantity: 1},
			},
		},
		{
			name:       "empty guest cart leaves wallet untouched",
			walletSeed: []lineQty{{ProductID: 4, Size: "S", Color: "White", Quantity: 1}},
			want:       []lineQty{{ProductID: 4, Size: "S", Color: "White", Quantity: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := t.Context()
			guest, wallet := randomGuest(t), randomWallet(t)

			seedCart(t, e, guest, tt.guestLines)
			seedCart(t, e, wallet, tt.walletSeed)

			merged, err := e.migrator.Migrate(ctx, guest.ID, wallet)
			require.NoError(t, err)
			assertLines(t, tt.want, merged.Items)

			stored, err := e.carts.Get(ctx, wallet)
			require.NoError(t, err)
			assertLines(t, tt.want, stored.Items)

			guestCart, err := e.carts.Get(ctx, guest)
			require.NoError(t, err)
			assert.Empty(t, guestCart.Items)
		})
	}
}

func TestMigrate_CommitFailureRestoresWallet(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()
	guest, wallet := randomGuest(t), randomWallet(t)

	seedCart(t, e, guest, []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 2}})
	seedCart(t, e, wallet, []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 3}})

	e.guest.commitErr = errors.New("connection reset")

	_, err := e.migrator.Migrate(ctx, guest.ID, wallet)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")

	stored, err := e.carts.Get(ctx, wallet)
	require.NoError(t, err)
	assertLines(t, []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 3}}, stored.Items)

	guestCart, err := e.carts.Get(ctx, guest)
	require.NoError(t, err)
	assertLines(t, []lineQty{{ProductID: 1, Size: "M", Color: "Black", Quantity: 2}}, guestCart.Items)
}

func TestMigrate_WalletWriteFailureKeepsGuest(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()
	guest, wallet := randomGuest(t), randomWallet(t)

	seedCart(t, e, guest, []lineQty{{ProductID: 2, Size: "M", Color: "Black", Quantity: 1}})

	e.wallet = failingSaves{CartRepository: e.wallet, err: errors.New("bucket unavailable")}
	e.rewire()

	_, err := e.migrator.Migrate(ctx, guest.ID, wallet)
	require.Error(t, err)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))

	guestCart, err := e.carts.Get(ctx, guest)
	require.NoError(t, err)
	assertLines(t, []lineQty{{ProductID: 2, Size: "M", Color: "Black", Quantity: 1}}, guestCart.Items)
}

func TestMigrate_InvalidArguments(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()

	_, err := e.migrator.Migrate(ctx, "", randomWallet(t))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.migrator.Migrate(ctx, randomGuest(t).ID, randomGuest(t))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMigrateItems(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()
	wallet := randomWallet(t)

	seedCart(t, e, wallet, []lineQty{{ProductID: 3, Size: "M", Color: "Black", Quantity: 1}})

	merged, err := e.migrator.MigrateItems(ctx, []domain.CartItem{
		{ProductID: 3, Quantity: 2, Size: "M", Color: "Black", Name: "spoofed", VariantImage: "https://img/v.png"},
		{ProductID: 1, Quantity: 1, Size: "L", Color: "White"},
	}, wallet)
	require.NoError(t, err)

	assertLines(t, []lineQty{
		{ProductID: 3, Size: "M", Color: "Black", Quantity: 3},
		{ProductID: 1, Size: "L", Color: "White", Quantity: 1},
	}, merged.Items)

	for _, it := range merged.Items {
		product, ok := e.catalog.Product(it.ProductID)
		require.True(t, ok)
		assert.Equal(t, product.Name, it.Name)
	}
}

func TestMigrateItems_UnknownProduct(t *testing.T) {
	e := newEnv(t)

	_, err := e.migrator.MigrateItems(t.Context(), []domain.CartItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 42, Quantity: 1},
	}, randomWallet(t))

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindNotFound, de.Kind)
	assert.Equal(t, 2, de.Line)
}

func seedCart(t *testing.T, e *env, id domain.CartIdentifier, lines []lineQty) {
	t.Helper()

	for _, l := range lines {
		_, err := e.carts.AddItem(t.Context(), id, l.ProductID, l.Quantity, l.Size, l.Color)
		require.NoError(t, err)
	}
}
