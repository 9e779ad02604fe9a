// Package cartsync keeps a local view of a wallet cart in step with the copy
// held by the server while the cart UI is closed.
package cartsync

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/nikolayk812/podstore/internal/domain"
)

const DefaultInterval = 5 * time.Second

type Fetcher interface {
	FetchCart(ctx context.Context, walletID string) (domain.Cart, error)
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithErrorHandler(fn func(error)) Option {
	return func(p *Poller) {
		p.onError = fn
	}
}

// Poller re-fetches the wallet cart on a fixed interval. It is idle while no
// wallet is set or the cart UI is open. A response that arrives after either
// changed is dropped.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	onUpdate func(domain.Cart)
	onError  func(error)

	mu     sync.Mutex
	wallet string
	open   bool
	gen    uint64
	cancel context.CancelFunc

	wake chan struct{}
}

func New(fetcher Fetcher, onUpdate func(domain.Cart), opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: DefaultInterval,
		onUpdate: onUpdate,
		onError: func(err error) {
			log.Printf("[cartsync] fetch failed: %v", err)
		},
		wake: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetWallet switches the polled wallet. An empty address disconnects.
func (p *Poller) SetWallet(walletID string) {
	walletID = domain.NormalizeWalletAddress(walletID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wallet == walletID {
		return
	}
	p.wallet = walletID
	p.bumpLocked()
}

// SetOpen pauses polling while the cart UI is open so local edits are not
// overwritten by a stale remote copy.
func (p *Poller) SetOpen(open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open == open {
		return
	}
	p.open = open
	p.bumpLocked()
}

func (p *Poller) bumpLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done. The first fetch after polling becomes active
// happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	immediate := true
	for {
		wallet, gen, active := p.state()

		var tick <-chan time.Time
		if active {
			if immediate {
				p.poll(ctx, wallet, gen)
				immediate = false
				continue
			}
			timer.Reset(p.interval)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
			timer.Stop()
			immediate = true
		case <-tick:
			p.poll(ctx, wallet, gen)
		}
	}
}

func (p *Poller) state() (string, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wallet, p.gen, p.wallet != "" && !p.open
}

func (p *Poller) poll(ctx context.Context, wallet string, gen uint64) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.cancel = cancel
	p.mu.Unlock()

	cart, err := p.fetcher.FetchCart(fetchCtx, wallet)

	p.mu.Lock()
	stale := p.gen != gen
	if !stale {
		p.cancel = nil
	}
	p.mu.Unlock()

	if stale || ctx.Err() != nil {
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) && p.onError != nil {
			p.onError(err)
		}
		return
	}
	p.onUpdate(cart)
}
