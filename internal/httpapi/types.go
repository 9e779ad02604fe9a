package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/service"
)

type CartResponse struct {
	Items          []domain.CartItem     `json:"items"`
	IsOpen         bool                  `json:"isOpen"`
	CartURL        string                `json:"cartUrl"`
	CartIdentifier domain.CartIdentifier `json:"cartIdentifier"`
	Version        int64                 `json:"version"`
	UpdatedAt      *time.Time            `json:"updatedAt,omitempty"`
}

type AddItemRequest struct {
	ID       int    `json:"id"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
}

// LineRequest selects a cart line. Omitted size or color match any value.
type LineRequest struct {
	ID       int     `json:"id"`
	Quantity int     `json:"quantity,omitempty"`
	Size     *string `json:"size,omitempty"`
	Color    *string `json:"color,omitempty"`
}

type StorageRequest struct {
	Items  []domain.CartItem `json:"items"`
	IsOpen bool              `json:"isOpen"`
}

type MigrateLocalRequest struct {
	Items []domain.CartItem `json:"items"`
}

type CheckoutRequest struct {
	CartItems       []domain.CartItem      `json:"cartItems"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty"`
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type OrderLineResponse struct {
	CartLine          int    `json:"cartLine"`
	ProductID         int    `json:"productId"`
	ProviderProductID string `json:"providerProductId"`
	VariantID         int    `json:"variantId"`
	Quantity          int    `json:"quantity"`
	UnitPrice         string `json:"unitPrice"`
	Size              string `json:"size,omitempty"`
	Color             string `json:"color,omitempty"`
}

type CheckoutResponse struct {
	Success         bool                `json:"success"`
	Outcome         domain.Outcome      `json:"outcome"`
	OrderID         string              `json:"orderId,omitempty"`
	CheckoutID      string              `json:"checkoutId,omitempty"`
	Total           string              `json:"total"`
	Currency        string              `json:"currency"`
	ClientSecret    string              `json:"clientSecret,omitempty"`
	PaymentIntentID string              `json:"paymentIntentId,omitempty"`
	Message         string              `json:"message,omitempty"`
	Lines           []OrderLineResponse `json:"lines"`
}

type QuoteResponse struct {
	Lines     []OrderLineResponse `json:"lines"`
	Total     string              `json:"total"`
	Currency  string              `json:"currency"`
	CartTotal string              `json:"cartTotal"`
}

type VariantResponse struct {
	ID        int                    `json:"id"`
	Title     string                 `json:"title,omitempty"`
	Price     string                 `json:"price"`
	IsEnabled bool                   `json:"isEnabled"`
	Options   []domain.VariantOption `json:"options"`
}

type ProductResponse struct {
	ID          string               `json:"id"`
	LocalID     int                  `json:"localId,omitempty"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Tags        []string             `json:"tags,omitempty"`
	Image       string               `json:"image,omitempty"`
	Options     []domain.OptionGroup `json:"options"`
	Variants    []VariantResponse    `json:"variants"`
	Images      []domain.Image       `json:"images"`
	Visible     bool                 `json:"visible"`

	// DefaultVariantID is the variant a product card shows. It is not an
	// orderable selection: checkout resolves variants strictly.
	DefaultVariantID int    `json:"defaultVariantId,omitempty"`
	DisplayPrice     string `json:"displayPrice,omitempty"`
}

type VariantsResponse struct {
	ProductID string               `json:"productId"`
	Variants  []VariantResponse    `json:"variants"`
	Options   []domain.OptionGroup `json:"options"`
}

type ReconciliationResponse struct {
	CheckoutID      string    `json:"checkoutId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	OrderID         string    `json:"orderId,omitempty"`
	Reason          string    `json:"reason"`
	Total           string    `json:"total"`
	Currency        string    `json:"currency"`
	Email           string    `json:"email"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func mapCartToResponse(cart domain.Cart, cartURL string) CartResponse {
	resp := CartResponse{
		Items:          cart.Items,
		IsOpen:         cart.IsOpen,
		CartURL:        cartURL,
		CartIdentifier: cart.Owner,
		Version:        cart.Version,
	}
	if resp.Items == nil {
		resp.Items = []domain.CartItem{}
	}
	if !cart.UpdatedAt.IsZero() {
		updated := cart.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func mapOrderLinesToResponse(lines []domain.OrderLine) []OrderLineResponse {
	out := make([]OrderLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderLineResponse{
			CartLine:          l.CartLine,
			ProductID:         l.LocalProductID,
			ProviderProductID: l.ProviderProductID,
			VariantID:         l.VariantID,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice.Amount.StringFixed(2),
			Size:              l.Size,
			Color:             l.Color,
		})
	}
	return out
}

func mapResultToResponse(res domain.CheckoutResult) CheckoutResponse {
	resp := CheckoutResponse{
		Success:         res.Outcome != domain.OutcomeFulfillmentPending,
		Outcome:         res.Outcome,
		OrderID:         res.OrderID,
		Total:           res.Total.Amount.StringFixed(2),
		Currency:        res.Total.Currency.String(),
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.IntentID,
		Message:         res.Message,
		Lines:           mapOrderLinesToResponse(res.Lines),
	}
	if res.CheckoutID != uuid.Nil {
		resp.CheckoutID = res.CheckoutID.String()
	}
	return resp
}

func mapQuoteToResponse(q service.Quote) QuoteResponse {
	return QuoteResponse{
		Lines:     mapOrderLinesToResponse(q.Lines),
		Total:     q.Total.Amount.StringFixed(2),
		Currency:  q.Total.Currency.String(),
		CartTotal: q.CartTotal.StringFixed(2),
	}
}

func mapVariantsToResponse(variants []domain.Variant) []VariantResponse {
	out := make([]VariantResponse, 0, len(variants))
	for _, v := range variants {
		out = append(out, VariantResponse{
			ID:        v.ID,
			Title:     v.Title,
			Price:     v.Price.Amount.StringFixed(2),
			IsEnabled: v.Enabled,
			Options:   v.Options,
		})
	}
	return out
}

// mapProductToResponse fills the display fields from the variant matching
// color and size, falling back the way domain.DisplayVariant does.
func mapProductToResponse(p domain.Product, localID int, color, size string) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		LocalID:     localID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		Image:       p.DefaultImage(),
		Options:     p.Options,
		Variants:    mapVariantsToResponse(p.Variants),
		Images:      p.Images,
		Visible:     p.Visible,
	}

	if v, ok := domain.DisplayVariant(p, color, size); ok {
		resp.DefaultVariantID = v.ID
		resp.DisplayPrice = v.Price.Amount.StringFixed(2)
		if img := p.VariantImage(v.ID); img != "" {
			resp.Image = img
		}
	}
	return resp
}

func mapCheckoutToReconciliation(c domain.Checkout) ReconciliationResponse {
	return ReconciliationResponse{
		CheckoutID:      c.ID.String(),
		PaymentIntentID: c.PaymentIntentID,
		OrderID:         c.OrderID,
		Reason:          c.FailureReason,
		Total:           c.Total.Amount.StringFixed(2),
		Currency:        c.Total.Currency.String(),
		Email:           c.Address.Email,
		CreatedAt:       c.CreatedAt,
	}
}
