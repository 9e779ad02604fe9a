// Command storefront serves the cart, product, checkout and payment API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/podstore/internal/catalog"
	"github.com/nikolayk812/podstore/internal/config"
	"github.com/nikolayk812/podstore/internal/httpapi"
	"github.com/nikolayk812/podstore/internal/notify"
	"github.com/nikolayk812/podstore/internal/objectstore"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/nikolayk812/podstore/internal/printify"
	"github.com/nikolayk812/podstore/internal/repository"
	"github.com/nikolayk812/podstore/internal/service"
	"github.com/nikolayk812/podstore/internal/stripepay"
	"github.com/nikolayk812/podstore/internal/telemetry"
)

const (
	serviceName     = "storefront"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("[boot] %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	unit, err := cfg.CurrencyUnit()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry.Setup: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Printf("[boot] otel shutdown: %v", err)
		}
	}()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("catalog.Load: %w", err)
	}

	guest, checkouts, closeDB, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	objects, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	provider, err := printify.New(printify.Config{
		BaseURL:            cfg.Printify.BaseURL,
		Token:              cfg.Printify.Token,
		ShopID:             cfg.Printify.ShopID,
		MaxRetries:         cfg.Printify.MaxRetries,
		RateLimitPerMinute: cfg.Printify.RateLimitPerMinute,
		Currency:           unit,
	})
	if err != nil {
		return fmt.Errorf("printify.New: %w", err)
	}

	var payments port.PaymentProcessor = stripepay.Disabled{}
	if cfg.Stripe.SecretKey != "" {
		p, err := stripepay.New(cfg.Stripe.SecretKey, nil)
		if err != nil {
			return fmt.Errorf("stripepay.New: %w", err)
		}
		payments = p
	} else {
		log.Printf("[boot] STRIPE_SECRET_KEY not set, card payments disabled")
	}

	var notifier port.Notifier = notify.Log{}
	if cfg.Mail.SendGridKey != "" {
		n, err := notify.NewSendGrid(cfg.Mail.SendGridKey, cfg.Mail.From, cfg.Mail.OpsEmail)
		if err != nil {
			return fmt.Errorf("notify.NewSendGrid: %w", err)
		}
		notifier = n
	}

	if len(cfg.AllowedOrigins) == 0 {
		log.Printf("[boot] STOREFRONT_ALLOWED_ORIGINS not set, CORS allows any origin without credentials")
	}

	wallet := repository.NewWalletCart(objects)
	carts := service.NewCartStore(guest, wallet, cat, objects)

	h := httpapi.NewHandler(httpapi.Deps{
		Carts:          carts,
		Migrator:       service.NewMigrator(guest, wallet, cat),
		Products:       service.NewProducts(provider, cat),
		Checkout:       service.NewCheckout(provider, payments, checkouts, carts, cat, notifier, unit),
		Provider:       provider,
		AdminToken:     cfg.AdminToken,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[boot] listening addr=%s storage=%s database=%t", cfg.Addr, cfg.StorageDriver, cfg.UseDatabase())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("[boot] shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}
	return nil
}

// openRepositories uses Postgres when a database URL is configured and
// process memory otherwise. The schema is expected to be applied already.
func openRepositories(ctx context.Context, cfg config.Config) (port.GuestCartRepository, port.CheckoutRepository, func(), error) {
	if !cfg.UseDatabase() {
		log.Printf("[boot] STOREFRONT_DATABASE_URL not set, guest carts and checkouts kept in memory")
		return repository.NewMemoryCart(), repository.NewMemoryCheckout(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("pool.Ping: %w", err)
	}

	return repository.NewCart(pool), repository.NewCheckout(pool), pool.Close, nil
}

func openStorage(ctx context.Context, cfg config.Config) (port.ObjectStorage, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		return objectstore.NewMemory("memory://carts"), func() {}, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	gcs, err := objectstore.NewGCS(client, cfg.CartBucket)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("objectstore.NewGCS: %w", err)
	}

	return gcs, func() {
		if err := client.Close(); err != nil {
			log.Printf("[boot] storage client close: %v", err)
		}
	}, nil
}
