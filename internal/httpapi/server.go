// Package httpapi exposes carts, products and checkout over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/printify"
	"github.com/nikolayk812/podstore/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	SessionCookie = "cart_session_id"
	sessionMaxAge = 30 * 24 * time.Hour

	maxBodyBytes = 1 << 20
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) printify.Health
}

type Deps struct {
	Carts    *service.CartStore
	Migrator *service.Migrator
	Products *service.Products
	Checkout *service.Checkout
	Provider HealthChecker

	// AdminToken guards the admin routes; empty disables them.
	AdminToken     string
	AllowedOrigins []string
	SecureCookies  bool
}

type Handler struct {
	carts    *service.CartStore
	migrator *service.Migrator
	products *service.Products
	checkout *service.Checkout
	provider HealthChecker

	adminToken     string
	allowedOrigins []string
	secureCookies  bool
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		carts:          d.Carts,
		migrator:       d.Migrator,
		products:       d.Products,
		checkout:       d.Checkout,
		provider:       d.Provider,
		adminToken:     d.AdminToken,
		allowedOrigins: d.AllowedOrigins,
		secureCookies:  d.SecureCookies,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.origins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: h.allowCredentials(),
		MaxAge:           300,
	}))

	r.Get("/healthz", h.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/storage", h.getCart)
			r.Post("/storage", h.replaceCart)
			r.Post("/add", h.addItem)
			r.Post("/remove", h.removeItem)
			r.Post("/update-quantity", h.updateQuantity)
			r.Post("/clear", h.clearCart)
			r.Post("/migrate", h.migrate)
			r.Post("/migrate-local", h.migrateLocal)
		})

		r.Get("/products", h.listProducts)
		r.Get("/products/{productId}", h.getProduct)
		r.Get("/products/{productId}/variants", h.getVariants)

		r.Post("/checkout", h.placeOrder)
		r.Post("/checkout/quote", h.quote)
		r.Post("/payments/stripe/create-intent", h.createIntent)
		r.Post("/payments/stripe/confirm", h.confirmPayment)

		r.With(h.requireAdmin).Get("/admin/reconciliations", h.reconciliations)
		r.Get("/printify/health", h.providerHealth)
	})

	return otelhttp.NewHandler(r, "storefront")
}

func (h *Handler) origins() []string {
	if len(h.allowedOrigins) == 0 {
		return []string{"*"}
	}
	return h.allowedOrigins
}

// allowCredentials is false for the wildcard fallback. The cors middleware
// echoes the request origin, so credentials with "*" would trust any site
// with the guest session cookie.
func (h *Handler) allowCredentials() bool {
	return len(h.allowedOrigins) > 0 && !slices.Contains(h.allowedOrigins, "*")
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "storefront"})
}

func (h *Handler) providerHealth(w http.ResponseWriter, r *http.Request) {
	health := h.provider.HealthCheck(r.Context())

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "not found"})
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.Invalid("body", "could not read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return domain.Invalid("body", "empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.Invalid(typeErr.Field, "has the wrong type")
		}
		return domain.Invalid("body", "invalid JSON payload")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(r *http.Request, key string, def, min, max int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
