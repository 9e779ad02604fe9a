package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/nikolayk812/podstore/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type cartRepositorySuite struct {
	suite.Suite

	repo      port.GuestCartRepository
	pool      *pgxpool.Pool
	container *postgres.PostgresContainer
}

// entry point to run the tests in the suite
func TestCartRepositorySuite(t *testing.T) {
	suite.Run(t, new(cartRepositorySuite))
}

// before all tests in the suite
func (suite *cartRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	suite.repo = repository.NewCart(suite.pool)
}

// after all tests in the suite
func (suite *cartRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(suite.T().Context()))
	}
}

func (suite *cartRepositorySuite) TestGetCart() {
	defer suite.deleteAll()

	tests := []struct {
		name       string
		ownerID    string
		setupItems []domain.CartItem
		wantError  string
	}{
		{
			name:    "get cart with items: ok",
			ownerID: gofakeit.UUID(),
			setupItems: []domain.CartItem{
				randomCartItem(),
				randomCartItem(),
			},
		},
		{
			name:    "get never saved cart: empty",
			ownerID: gofakeit.UUID(),
		},
		{
			name:      "get cart with empty owner ID: error",
			ownerID:   "",
			wantError: "ownerID is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			if len(tt.setupItems) > 0 {
				cart := newGuestCart(t, tt.ownerID)
				cart.Items = tt.setupItems
				_, err := suite.repo.SaveCart(ctx, cart)
				require.NoError(t, err)
			}

			cart, err := suite.repo.GetCart(ctx, tt.ownerID)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, domain.KindGuest, cart.Owner.Kind)
			assert.Equal(t, tt.ownerID, cart.Owner.ID)
			assertCartItems(t, tt.setupItems, cart.Items)

			if len(tt.setupItems) == 0 {
				assert.Zero(t, cart.Version)
				assert.NotNil(t, cart.Items)
			} else {
				assert.Equal(t, int64(1), cart.Version)
				assert.False(t, cart.UpdatedAt.IsZero())
			}
		})
	}
}

func (suite *cartRepositorySuite) TestSaveCart() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()
	ownerID := gofakeit.UUID()

	cart := newGuestCart(t, ownerID)
	require.NoError(t, cart.Add(randomCartItem()))

	saved, err := suite.repo.SaveCart(ctx, cart)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	require.NoError(t, saved.Add(randomCartItem()))
	saved.IsOpen = true

	saved, err = suite.repo.SaveCart(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	got, err := suite.repo.GetCart(ctx, ownerID)
	require.NoError(t, err)
	assert.True(t, got.IsOpen)
	assert.Equal(t, int64(2), got.Version)
	assertCartItems(t, saved.Items, got.Items)

	// clearing keeps the cart row, only the lines go
	got.Clear()
	cleared, err := suite.repo.SaveCart(ctx, got)
	require.NoError(t, err)

	got, err = suite.repo.GetCart(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, cleared.Version, got.Version)
}

func (suite *cartRepositorySuite) TestSaveCart_VersionConflict() {
	defer suite.deleteAll()

	tests := []struct {
		name    string
		version func(current int64) int64
	}{
		{
			name:    "stale version: conflict",
			version: func(current int64) int64 { return current - 1 },
		},
		{
			name:    "version ahead of storage: conflict",
			version: func(current int64) int64 { return current + 5 },
		},
		{
			name:    "insert over existing cart: conflict",
			version: func(int64) int64 { return 0 },
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()
			ownerID := gofakeit.UUID()

			cart := newGuestCart(t, ownerID)
			require.NoError(t, cart.Add(randomCartItem()))
			first, err := suite.repo.SaveCart(ctx, cart)
			require.NoError(t, err)
			second, err := suite.repo.SaveCart(ctx, first)
			require.NoError(t, err)

			stale := second.Clone()
			stale.Version = tt.version(second.Version)
			stale.Clear()

			_, err = suite.repo.SaveCart(ctx, stale)
			require.ErrorIs(t, err, domain.ErrVersionConflict)

			// the rejected write left nothing behind
			got, err := suite.repo.GetCart(ctx, ownerID)
			require.NoError(t, err)
			assert.Equal(t, second.Version, got.Version)
			assertCartItems(t, second.Items, got.Items)
		})
	}
}

func (suite *cartRepositorySuite) TestSaveCart_RejectsWalletOwner() {
	t := suite.T()

	owner, err := domain.WalletIdentifier("0x1234567890abcdef1234567890abcdef12345678")
	require.NoError(t, err)

	_, err = suite.repo.SaveCart(t.Context(), domain.NewCart(owner))
	require.Error(t, err)
}

func (suite *cartRepositorySuite) TestWithinTx() {
	defer suite.deleteAll()

	tests := []struct {
		name       string
		fnError    bool
		wantClosed bool
	}{
		{
			name:       "commit: changes visible",
			wantClosed: true,
		},
		{
			name:    "rollback: changes discarded",
			fnError: true,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()
			ownerID := gofakeit.UUID()

			cart := newGuestCart(t, ownerID)
			require.NoError(t, cart.Add(randomCartItem()))
			saved, err := suite.repo.SaveCart(ctx, cart)
			require.NoError(t, err)

			err = suite.repo.WithinTx(ctx, func(repo port.CartRepository) error {
				inTx, err := repo.GetCart(ctx, ownerID)
				if err != nil {
					return err
				}
				inTx.Clear()
				if _, err := repo.SaveCart(ctx, inTx); err != nil {
					return err
				}
				if tt.fnError {
					return assert.AnError
				}
				return nil
			})
			if tt.fnError {
				require.ErrorIs(t, err, assert.AnError)
			} else {
				require.NoError(t, err)
			}

			got, err := suite.repo.GetCart(ctx, ownerID)
			require.NoError(t, err)

			if tt.wantClosed {
				assert.Empty(t, got.Items)
				assert.Equal(t, saved.Version+1, got.Version)
			} else {
				assertCartItems(t, saved.Items, got.Items)
				assert.Equal(t, saved.Version, got.Version)
			}
		})
	}
}

func (suite *cartRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(), "TRUNCATE TABLE carts CASCADE")
	suite.NoError(err)
}

func newGuestCart(t *testing.T, ownerID string) domain.Cart {
	t.Helper()

	owner, err := domain.GuestIdentifier(ownerID)
	require.NoError(t, err)

	return domain.NewCart(owner)
}

func randomCartItem() domain.CartItem {
	return domain.CartItem{
		ProductID: gofakeit.IntRange(1, 4),
		Name:      gofakeit.ProductName(),
		UnitPrice: decimal.NewFromFloat(gofakeit.Price(1, 200)).Round(2),
		Quantity:  gofakeit.IntRange(1, 5),
		Size:      gofakeit.RandomString([]string{"S", "M", "L", "XL"}),
		Color:     gofakeit.Color() + " " + gofakeit.UUID()[:8],
		Image1:    gofakeit.URL(),
	}
}

func assertCartItems(t *testing.T, expected, actual []domain.CartItem) {
	t.Helper()

	decimalComparer := cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})

	opts := cmp.Options{
		decimalComparer,
		cmpopts.EquateEmpty(),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}
