// Package printify is the fulfillment provider client.
package printify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/currency"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL            = "https://api.printify.com/v1"
	DefaultMaxRetries         = 3
	DefaultRateLimitPerMinute = 600

	defaultRetryInterval = time.Second
	defaultTimeout       = 30 * time.Second

	// recentOrdersLimit is how many of the newest orders are searched for an
	// external id before an order POST is retried.
	recentOrdersLimit = 10
)

type Config struct {
	BaseURL            string
	Token              string
	ShopID             string
	MaxRetries         int
	RateLimitPerMinute int
	Currency           currency.Unit

	// RetryInitialInterval is the first backoff delay; each retry doubles it.
	RetryInitialInterval time.Duration
	HTTPClient           *http.Client
}

type Client struct {
	baseURL       string
	token         string
	shopID        string
	maxRetries    int
	retryInterval time.Duration
	currency      currency.Unit
	limiter       *rate.Limiter
	http          *http.Client
}

var _ port.FulfillmentProvider = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("printify api token is empty")
	}
	if strings.TrimSpace(cfg.ShopID) == "" {
		return nil, fmt.Errorf("printify shop id is empty")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("url.Parse[%s]: %w", baseURL, err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = DefaultRateLimitPerMinute
	}
	retryInterval := cfg.RetryInitialInterval
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	unit := cfg.Currency
	if unit == (currency.Unit{}) {
		unit = currency.USD
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		baseURL:       baseURL,
		token:         cfg.Token,
		shopID:        cfg.ShopID,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		currency:      unit,
		limiter:       rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
		http:          httpClient,
	}, nil
}

func (c *Client) ListProducts(ctx context.Context, page, limit int) (domain.ProductPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var wire wireProductPage
	if err := c.doWithRetry(ctx, http.MethodGet, c.shopPath("/products.json")+pageQuery(page, limit), nil, &wire); err != nil {
		return domain.ProductPage{}, err
	}

	products := make([]domain.Product, 0, len(wire.Data))
	for _, wp := range wire.Data {
		p, err := mapProductToDomain(wp, c.currency)
		if err != nil {
			return domain.ProductPage{}, fmt.Errorf("product %s: %w", wp.ID, err)
		}
		products = append(products, p)
	}

	return domain.ProductPage{
		Page:     wire.CurrentPage,
		LastPage: wire.LastPage,
		Total:    wire.Total,
		Products: products,
	}, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, domain.Invalid("productId", "is empty")
	}

	var wire wireProduct
	if err := c.doWithRetry(ctx, http.MethodGet, c.shopPath("/products/"+url.PathEscape(productID)+".json"), nil, &wire); err != nil {
		return domain.Product{}, err
	}

	p, err := mapProductToDomain(wire, c.currency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", productID, err)
	}
	return p, nil
}

// CreateOrder creates the provider order. With ProcessPayment set the order is
// also sent to production, which is when the provider charges the shop.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	if len(req.Lines) == 0 {
		return domain.Order{}, domain.Invalid("lineItems", "order has no lines")
	}

	body, err := json.Marshal(mapOrderRequestToWire(req))
	if err != nil {
		return domain.Order{}, fmt.Errorf("json.Marshal: %w", err)
	}

	path := c.shopPath("/orders.json")

	var wire wireOrder
	err = c.retry(ctx, http.MethodPost, path, func(attempt int) error {
		if attempt > 1 && req.ExternalID != "" {
			existing, found, err := c.findOrder(ctx, req.ExternalID)
			if err != nil {
				return err
			}
			if found {
				log.Printf("[printify] order external_id=%s already exists id=%s, not posting again", req.ExternalID, existing.ID)
				wire = existing
				return nil
			}
		}
		return c.do(ctx, http.MethodPost, path, body, &wire)
	})
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:         string(wire.ID),
		ExternalID: firstNonEmpty(wire.ExternalID, req.ExternalID),
		Status:     firstNonEmpty(wire.Status, "on-hold"),
	}
	log.Printf("[printify] order created id=%s external_id=%s lines=%d", order.ID, order.ExternalID, len(req.Lines))

	if req.ProcessPayment {
		if err := c.SendToProduction(ctx, order.ID); err != nil {
			return order, fmt.Errorf("order %s created but not sent to production: %w", order.ID, err)
		}
		order.Status = "sending-to-production"
	}

	return order, nil
}

// findOrder looks for an order with the given external id among the shop's
// most recent orders.
func (c *Client) findOrder(ctx context.Context, externalID string) (wireOrder, bool, error) {
	var page struct {
		Data []wireOrder `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, c.shopPath("/orders.json")+pageQuery(1, recentOrdersLimit), nil, &page); err != nil {
		return wireOrder{}, false, err
	}
	for _, o := range page.Data {
		if o.ExternalID == externalID {
			return o, true, nil
		}
	}
	return wireOrder{}, false, nil
}

func (c *Client) SendToProduction(ctx context.Context, orderID string) error {
	if orderID == "" {
		return domain.Invalid("orderId", "is empty")
	}
	return c.doWithRetry(ctx, http.MethodPost, c.shopPath("/orders/"+url.PathEscape(orderID)+"/send_to_production.json"), nil, nil)
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.Invalid("orderId", "is empty")
	}

	var wire wireOrder
	if err := c.doWithRetry(ctx, http.MethodGet, c.shopPath("/orders/"+url.PathEscape(orderID)+".json"), nil, &wire); err != nil {
		return domain.Order{}, err
	}

	return domain.Order{ID: string(wire.ID), ExternalID: wire.ExternalID, Status: wire.Status}, nil
}

type Health struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ShopID       string `json:"shopId"`
	ProductCount int    `json:"productCount,omitempty"`
}

func (c *Client) HealthCheck(ctx context.Context) Health {
	page, err := c.ListProducts(ctx, 1, 1)
	if err != nil {
		return Health{Status: "unhealthy", Message: err.Error(), ShopID: c.shopID}
	}
	return Health{
		Status:       "healthy",
		Message:      "provider API is reachable",
		ShopID:       c.shopID,
		ProductCount: page.Total,
	}
}

func (c *Client) shopPath(suffix string) string {
	return "/shops/" + url.PathEscape(c.shopID) + suffix
}

// doWithRetry retries server and network failures. Such a failure can arrive
// after the provider already applied a POST, so order creation goes through
// retry directly and checks for its external id before posting again.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte, out any) error {
	return c.retry(ctx, method, path, func(int) error {
		return c.do(ctx, method, path, body, out)
	})
}

// retry runs call with the client's backoff policy. call gets the 1-based attempt number.
func (c *Client) retry(ctx context.Context, method, path string, call func(attempt int) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries-1)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := call(attempt)
		if err == nil {
			return nil
		}
		if apiErr, ok := AsAPIError(err); ok && apiErr.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		log.Printf("[printify] retrying method=%s path=%s attempt=%d wait=%s err=%v", method, path, attempt, wait, err)
	}

	return backoff.RetryNotify(op, policy, notify)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if !c.limiter.Allow() {
		return &APIError{Category: CategoryRateLimit, Message: "local request budget exhausted, retry later"}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &APIError{Category: CategoryNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Category: CategoryNetwork, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newStatusError(resp.StatusCode, data)
		log.Printf("[printify] error method=%s path=%s status=%d category=%s body=%s", method, path, resp.StatusCode, apiErr.Category, truncate(data, 512))
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("json.Unmarshal[%s %s]: %w", method, path, err)
	}

	return nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}

// IsCategory reports whether err is a provider error of the given category.
func IsCategory(err error, cat Category) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Category == cat
}
