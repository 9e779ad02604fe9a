// Command cartwatch follows a wallet cart through the storefront API and
// prints every copy it receives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nikolayk812/podstore/internal/cartsync"
	"github.com/nikolayk812/podstore/internal/client"
	"github.com/nikolayk812/podstore/internal/domain"
)

func main() {
	var (
		baseURL  string
		wallet   string
		interval time.Duration
		changes  bool
	)

	flag.StringVar(&baseURL, "url", envOr("STOREFRONT_URL", "http://localhost:8080"), "storefront base URL (env STOREFRONT_URL)")
	flag.StringVar(&wallet, "wallet", "", "wallet address to follow")
	flag.DurationVar(&interval, "interval", cartsync.DefaultInterval, "poll interval")
	flag.BoolVar(&changes, "changes", false, "print only when the cart version changes")
	flag.Parse()

	if _, err := domain.WalletIdentifier(wallet); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -wallet: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.New(baseURL, nil)
	if err != nil {
		log.Fatalf("[cartwatch] %v", err)
	}

	var lastVersion int64 = -1
	p := cartsync.New(c, func(cart domain.Cart) {
		if changes && cart.Version == lastVersion {
			return
		}
		lastVersion = cart.Version
		fmt.Println(describe(cart))
	}, cartsync.WithInterval(interval))
	p.SetWallet(wallet)

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[cartwatch] %v", err)
	}
}

func describe(cart domain.Cart) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s version=%d lines=%d", time.Now().Format(time.TimeOnly), cart.Version, len(cart.Items))
	for _, it := range cart.Items {
		fmt.Fprintf(&b, "\n  #%d %s x%d", it.ProductID, it.Name, it.Quantity)
		if it.Size != "" || it.Color != "" {
			fmt.Fprintf(&b, " (%s/%s)", it.Size, it.Color)
		}
	}
	return b.String()
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
