// Package client talks to the storefront cart HTTP surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/httpapi"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// Client addresses the wallet cart when a wallet id is given and the guest
// cart of its own cookie session otherwise.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse[%s]: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}

	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookiejar.New: %w", err)
		}
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Jar:       jar,
		}
	}

	return &Client{baseURL: baseURL, http: httpClient}, nil
}

func (c *Client) FetchCart(ctx context.Context, walletID string) (domain.Cart, error) {
	return c.cart(ctx, http.MethodGet, "/api/cart/storage", walletID, nil)
}

func (c *Client) AddItem(ctx context.Context, walletID string, req httpapi.AddItemRequest) (domain.Cart, error) {
	return c.cart(ctx, http.MethodPost, "/api/cart/add", walletID, req)
}

func (c *Client) RemoveItem(ctx context.Context, walletID string, req httpapi.LineRequest) (domain.Cart, error) {
	return c.cart(ctx, http.MethodPost, "/api/cart/remove", walletID, req)
}

func (c *Client) UpdateQuantity(ctx context.Context, walletID string, req httpapi.LineRequest) (domain.Cart, error) {
	return c.cart(ctx, http.MethodPost, "/api/cart/update-quantity", walletID, req)
}

func (c *Client) Clear(ctx context.Context, walletID string) (domain.Cart, error) {
	return c.cart(ctx, http.MethodPost, "/api/cart/clear", walletID, struct{}{})
}

// Migrate moves this client's guest session cart into the wallet cart.
func (c *Client) Migrate(ctx context.Context, walletID string) (domain.Cart, error) {
	if strings.TrimSpace(walletID) == "" {
		return domain.Cart{}, domain.Invalid("walletId", "wallet address is empty")
	}
	return c.cart(ctx, http.MethodPost, "/api/cart/migrate", walletID, nil)
}

func (c *Client) cart(ctx context.Context, method, path, walletID string, body any) (domain.Cart, error) {
	var resp httpapi.CartResponse
	if err := c.do(ctx, method, path, walletID, body, &resp); err != nil {
		return domain.Cart{}, err
	}
	return mapResponseToCart(resp), nil
}

func (c *Client) do(ctx context.Context, method, path, walletID string, body, out any) error {
	target := c.baseURL + path
	if walletID = strings.TrimSpace(walletID); walletID != "" {
		target += "?" + url.Values{"walletId": {walletID}}.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("http.NewRequest: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.Error{Kind: domain.KindUpstream, Op: method + " " + path, Msg: "storefront unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}

	if resp.StatusCode >= 300 {
		return mapStatusToError(method+" "+path, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	return nil
}

func mapStatusToError(op string, status int, body []byte) error {
	var er httpapi.ErrorResponse
	_ = json.Unmarshal(body, &er)
	if er.Message == "" {
		er.Message = http.StatusText(status)
	}

	e := &domain.Error{Op: op, Field: er.Field, Line: er.Line, Msg: er.Message}
	switch {
	case status == http.StatusBadRequest:
		e.Kind = domain.KindValidation
	case status == http.StatusNotFound:
		e.Kind = domain.KindNotFound
	case status == http.StatusConflict:
		e.Kind = domain.KindConflict
	case status == http.StatusInternalServerError:
		e.Kind = domain.KindPersistence
	default:
		e.Kind = domain.KindUpstream
		e.Err = fmt.Errorf("HTTP %d", status)
	}
	return e
}

func mapResponseToCart(resp httpapi.CartResponse) domain.Cart {
	cart := domain.Cart{
		Owner:   resp.CartIdentifier,
		Items:   resp.Items,
		IsOpen:  resp.IsOpen,
		Version: resp.Version,
	}
	if resp.UpdatedAt != nil {
		cart.UpdatedAt = *resp.UpdatedAt
	}
	return cart
}
