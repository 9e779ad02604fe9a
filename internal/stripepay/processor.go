// Package stripepay creates and inspects card payment intents.
package stripepay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"golang.org/x/text/currency"
)

// maxMetadataValue bounds metadata values in characters, the processor
// rejects longer ones.
const maxMetadataValue = 500

type Processor struct {
	api *client.API
}

var _ port.PaymentProcessor = (*Processor)(nil)

// New builds a processor. backends may be nil to use the processor's public API.
func New(secretKey string, backends *stripe.Backends) (*Processor, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("stripe secret key is empty")
	}
	return &Processor{api: client.New(secretKey, backends)}, nil
}

func (p *Processor) CreatePaymentIntent(ctx context.Context, amount domain.Money, metadata map[string]string) (domain.PaymentIntent, error) {
	minor := amount.MinorUnits()
	if minor <= 0 {
		return domain.PaymentIntent{}, domain.Invalid("amount", "must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(strings.ToLower(amount.Currency.String())),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, truncateRunes(v, maxMetadataValue))
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return domain.PaymentIntent{}, mapError("CreatePaymentIntent", err)
	}

	log.Printf("[stripe] payment intent created id=%s amount=%d currency=%s", pi.ID, pi.Amount, pi.Currency)
	return mapIntentToDomain(pi)
}

// truncateRunes cuts s to at most n runes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func (p *Processor) RetrieveIntent(ctx context.Context, intentID string) (domain.PaymentIntent, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return domain.PaymentIntent{}, domain.Invalid("paymentIntentId", "is empty")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return domain.PaymentIntent{}, mapError("RetrieveIntent", err)
	}

	return mapIntentToDomain(pi)
}

func mapIntentToDomain(pi *stripe.PaymentIntent) (domain.PaymentIntent, error) {
	unit, err := currency.ParseISO(strings.ToUpper(string(pi.Currency)))
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("currency.ParseISO[%s]: %w", pi.Currency, err)
	}

	return domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       domain.PaymentStatus(pi.Status),
		Amount:       domain.MoneyFromMinor(pi.Amount, unit),
	}, nil
}

func mapError(op string, err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &domain.Error{Kind: domain.KindUpstream, Op: "stripe." + op, Err: err}
	}

	log.Printf("[stripe] %s failed status=%d type=%s code=%s msg=%s", op, stripeErr.HTTPStatusCode, stripeErr.Type, stripeErr.Code, stripeErr.Msg)

	kind := domain.KindUpstream
	switch {
	case stripeErr.HTTPStatusCode == 404:
		kind = domain.KindNotFound
	case stripeErr.Type == stripe.ErrorTypeCard:
		kind = domain.KindValidation
	}

	return &domain.Error{Kind: kind, Op: "stripe." + op, Msg: stripeErr.Msg, Err: err}
}

// Disabled stands in when no secret key is configured; every card payment
// call fails and manual checkout keeps working.
type Disabled struct{}

var _ port.PaymentProcessor = Disabled{}

var errDisabled = &domain.Error{Kind: domain.KindUpstream, Msg: "card payments are not configured"}

func (Disabled) CreatePaymentIntent(context.Context, domain.Money, map[string]string) (domain.PaymentIntent, error) {
	return domain.PaymentIntent{}, errDisabled
}

func (Disabled) RetrieveIntent(context.Context, string) (domain.PaymentIntent, error) {
	return domain.PaymentIntent{}, errDisabled
}
