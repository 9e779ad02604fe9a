package service_test

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nikolayk812/podstore/internal/catalog"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/objectstore"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/nikolayk812/podstore/internal/repository"
	"github.com/nikolayk812/podstore/internal/service"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

const (
	hoodieProviderID = "686061b9115d268c1d0f2afd"
	hoodieLocalID    = 3
)

// env wires services over in-memory storage, the built-in catalog and fake collaborators.
type env struct {
	guest    *memGuestRepo
	storage  *objectstore.Memory
	wallet   port.CartRepository
	catalog  *catalog.Catalog
	provider *fakeProvider
	payments *fakePayments
	checks   *memCheckouts
	notifier *recordingNotifier

	carts    *service.CartStore
	migrator *service.Migrator
	checkout *service.Checkout
	products *service.Products
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cat, err := catalog.Load("")
	require.NoError(t, err)

	e := &env{
		guest:    newMemGuestRepo(),
		storage:  objectstore.NewMemory("https://storage.test/carts"),
		catalog:  cat,
		provider: newFakeProvider(hoodieProduct()),
		payments: newFakePayments(),
		checks:   newMemCheckouts(),
		notifier: &recordingNotifier{},
	}
	e.wallet = repository.NewWalletCart(e.storage)
	e.rewire()
	return e
}

// rewire rebuilds the services after a collaborator was swapped.
func (e *env) rewire() {
	e.carts = service.NewCartStore(e.guest, e.wallet, e.catalog, e.storage)
	e.migrator = service.NewMigrator(e.guest, e.wallet, e.catalog)
	e.checkout = service.NewCheckout(e.provider, e.payments, e.checks, e.carts, e.catalog, e.notifier, currency.USD)
	e.products = service.NewProducts(e.provider, e.catalog)
}

// hoodieProduct has Black/M and Black/L enabled and White/L disabled.
func hoodieProduct() domain.Product {
	return domain.Product{
		ID:    hoodieProviderID,
		Title: "Digital Realm Hoodie",
		Options: []domain.OptionGroup{
			{Name: "Colors", Type: "color", Values: []domain.OptionValue{{ID: 418, Title: "Black"}, {ID: 521, Title: "White"}}},
			{Name: "Sizes", Type: "size", Values: []domain.OptionValue{{ID: 14, Title: "M"}, {ID: 15, Title: "L"}}},
		},
		Variants: []domain.Variant{
			{ID: 101, Price: domain.MoneyFromMinor(4599, currency.USD), Enabled: true, Options: []domain.VariantOption{
				{Group: "Colors", ValueID: 418, Title: "Black"}, {Group: "Sizes", ValueID: 14, Title: "M"},
			}},
			{ID: 102, Price: domain.MoneyFromMinor(4799, currency.USD), Enabled: false, Options: []domain.VariantOption{
				{Group: "Colors", ValueID: 521, Title: "White"}, {Group: "Sizes", ValueID: 15, Title: "L"},
			}},
			{ID: 103, Price: domain.MoneyFromMinor(4699, currency.USD), Enabled: true, Options: []domain.VariantOption{
				{Group: "Colors", ValueID: 418, Title: "Black"}, {Group: "Sizes", ValueID: 15, Title: "L"},
			}},
		},
	}
}

func randomGuest(t *testing.T) domain.CartIdentifier {
	t.Helper()
	id, err := domain.GuestIdentifier(gofakeit.UUID())
	require.NoError(t, err)
	return id
}

func randomWallet(t *testing.T) domain.CartIdentifier {
	t.Helper()
	id, err := domain.WalletIdentifier(fmt.Sprintf("0x%040x", gofakeit.Uint64()))
	require.NoError(t, err)
	return id
}

func randomAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Phone:     gofakeit.Phone(),
		Country:   "US",
		State:     gofakeit.StateAbr(),
		Address1:  gofakeit.Street(),
		City:      gofakeit.City(),
		ZipCode:   gofakeit.Zip(),
	}
}

type lineQty struct {
	ProductID int
	Size      string
	Color     string
	Quantity  int
}

func assertLines(t *testing.T, want []lineQty, items []domain.CartItem) {
	t.Helper()

	got := make([]lineQty, 0, len(items))
	for _, it := range items {
		got = append(got, lineQty{ProductID: it.ProductID, Size: it.Size, Color: it.Color, Quantity: it.Quantity})
	}

	less := func(a, b lineQty) bool { return fmt.Sprint(a) < fmt.Sprint(b) }
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(less), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("cart lines mismatch (-want +got):\n%s", diff)
	}
}

func ptr[T any](v T) *T {
	return &v
}
