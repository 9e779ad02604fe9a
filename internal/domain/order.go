package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country"`
	State     string `json:"state"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
}

func (a ShippingAddress) Validate() error {
	required := []struct{ field, value string }{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.Email},
		{"country", a.Country},
		{"address1", a.Address1},
		{"city", a.City},
		{"zipCode", a.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Invalid("shippingAddress."+r.field, "is required")
		}
	}
	if !strings.Contains(a.Email, "@") {
		return Invalid("shippingAddress.email", "is not an email address")
	}
	return nil
}

type PaymentMethod string

const (
	PaymentManual PaymentMethod = "manual"
	PaymentCard   PaymentMethod = "card"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentManual, PaymentCard:
		return m, nil
	case "":
		return PaymentManual, nil
	default:
		return "", Invalid("paymentMethod", "must be manual or card")
	}
}

// OrderLine is a cart line resolved onto provider identifiers.
type OrderLine struct {
	CartLine          int    `json:"cartLine"`
	LocalProductID    int    `json:"localProductId"`
	ProviderProductID string `json:"providerProductId"`
	VariantID         int    `json:"variantId"`
	Quantity          int    `json:"quantity"`
	UnitPrice         Money  `json:"-"`
	Size              string `json:"size,omitempty"`
	Color             string `json:"color,omitempty"`
}

func (l OrderLine) Subtotal() Money {
	return l.UnitPrice.Mul(l.Quantity)
}

type OrderRequest struct {
	ExternalID               string
	Label                    string
	Lines                    []OrderLine
	Address                  ShippingAddress
	ProcessPayment           bool
	SendShippingNotification bool
}

type Order struct {
	ID         string
	ExternalID string
	Status     string
}

type PaymentStatus string

const (
	PaymentSucceeded       PaymentStatus = "succeeded"
	PaymentProcessing      PaymentStatus = "processing"
	PaymentRequiresAction  PaymentStatus = "requires_action"
	PaymentRequiresMethod  PaymentStatus = "requires_payment_method"
	PaymentCanceled        PaymentStatus = "canceled"
	PaymentStatusUndefined PaymentStatus = ""
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       PaymentStatus
	Amount       Money
}

type CheckoutStatus string

const (
	CheckoutAwaitingPayment    CheckoutStatus = "awaiting_payment"
	CheckoutProcessing         CheckoutStatus = "processing"
	CheckoutCompleted          CheckoutStatus = "completed"
	CheckoutFulfillmentPending CheckoutStatus = "fulfillment_pending"
)

// Checkout is the persisted record of a card payment between intent creation
// and provider order creation.
type Checkout struct {
	ID              uuid.UUID
	PaymentIntentID string
	Owner           CartIdentifier
	Lines           []OrderLine
	Address         ShippingAddress
	Total           Money
	Status          CheckoutStatus
	OrderID         string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Outcome string

const (
	OutcomeOrderPlaced        Outcome = "order_placed"
	OutcomePaymentRequired    Outcome = "payment_required"
	OutcomeFulfillmentPending Outcome = "payment_succeeded_fulfillment_pending"
)

type CheckoutResult struct {
	Outcome      Outcome
	OrderID      string
	CheckoutID   uuid.UUID
	Total        Money
	Lines        []OrderLine
	ClientSecret string
	IntentID     string
	Message      string
}
