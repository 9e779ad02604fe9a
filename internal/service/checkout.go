package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	manualOrderLabel = "Manual payment"
	cardOrderLabel   = "Card payment"

	defaultReconciliationLimit = 100
)

type CheckoutRequest struct {
	// Owner is the cart to clear once the order exists; nil leaves carts alone.
	Owner         *domain.CartIdentifier
	Items         []domain.CartItem
	Address       domain.ShippingAddress
	PaymentMethod domain.PaymentMethod
}

// Quote is the authoritative total computed from live provider prices.
// CartTotal is the sum of the display prices the client held, for comparison only.
type Quote struct {
	Lines     []domain.OrderLine
	Total     domain.Money
	CartTotal decimal.Decimal
}

type Checkout struct {
	provider  port.FulfillmentProvider
	payments  port.PaymentProcessor
	checkouts port.CheckoutRepository
	carts     *CartStore
	catalog   port.Catalog
	notifier  port.Notifier
	currency  currency.Unit
}

func NewCheckout(
	provider port.FulfillmentProvider,
	payments port.PaymentProcessor,
	checkouts port.CheckoutRepository,
	carts *CartStore,
	catalog port.Catalog,
	notifier port.Notifier,
	unit currency.Unit,
) *Checkout {
	if unit == (currency.Unit{}) {
		unit = currency.USD
	}
	return &Checkout{
		provider:  provider,
		payments:  payments,
		checkouts: checkouts,
		carts:     carts,
		catalog:   catalog,
		notifier:  notifier,
		currency:  unit,
	}
}

// Checkout places a manual order or starts a card payment, depending on the request.
func (s *Checkout) Checkout(ctx context.Context, req CheckoutRequest) (domain.CheckoutResult, error) {
	switch req.PaymentMethod {
	case domain.PaymentManual, "":
		return s.PlaceManualOrder(ctx, req)
	case domain.PaymentCard:
		return s.BeginCardPayment(ctx, req)
	default:
		return domain.CheckoutResult{}, domain.Invalid("paymentMethod", "must be manual or card")
	}
}

// Quote resolves every cart line onto a provider variant and prices it. Any
// line that cannot be resolved aborts the whole quote.
func (s *Checkout) Quote(ctx context.Context, items []domain.CartItem) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, domain.Invalid("cartItems", "cart is empty")
	}

	resolver := newProductResolver(s.provider, s.catalog)
	total := domain.ZeroMoney(s.currency)
	cartTotal := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(items))

	for i, item := range items {
		lineNo := i + 1
		if item.Quantity <= 0 {
			return Quote{}, atLine(domain.Invalid("quantity", "quantity must be a positive integer"), lineNo)
		}

		product, err := resolver.resolve(ctx, item.ProductID)
		if err != nil {
			return Quote{}, atLine(err, lineNo)
		}

		variant, err := domain.ResolveVariant(product, item.Color, item.Size)
		if err != nil {
			return Quote{}, atLine(err, lineNo)
		}

		line := domain.OrderLine{
			CartLine:          lineNo,
			LocalProductID:    item.ProductID,
			ProviderProductID: product.ID,
			VariantID:         variant.ID,
			Quantity:          item.Quantity,
			UnitPrice:         variant.Price,
			Size:              item.Size,
			Color:             item.Color,
		}

		total, err = total.Add(line.Subtotal())
		if err != nil {
			return Quote{}, atLine(&domain.Error{Kind: domain.KindUpstream, Op: "Quote", Msg: "provider price currency differs from store currency", Err: err}, lineNo)
		}
		cartTotal = cartTotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lines = append(lines, line)
	}

	return Quote{Lines: lines, Total: total, CartTotal: cartTotal}, nil
}

// PlaceManualOrder creates the provider order without charging anyone. The
// customer pays out of band and is told so by email.
func (s *Checkout) PlaceManualOrder(ctx context.Context, req CheckoutRequest) (domain.CheckoutResult, error) {
	quote, err := s.prepare(ctx, req)
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	order, err := s.provider.CreateOrder(ctx, domain.OrderRequest{
		ExternalID:               "manual_" + uuid.NewString(),
		Label:                    manualOrderLabel,
		Lines:                    quote.Lines,
		Address:                  req.Address,
		ProcessPayment:           false,
		SendShippingNotification: true,
	})
	if err != nil {
		return domain.CheckoutResult{}, upstreamError("CreateOrder", err)
	}
	log.Printf("[checkout] manual order=%s total=%s lines=%d", order.ID, quote.Total, len(quote.Lines))

	s.clearCart(ctx, req.Owner)
	if err := s.notifier.ManualOrderPlaced(ctx, req.Address, order, quote.Total); err != nil {
		log.Printf("[checkout] customer email failed order=%s err=%v", order.ID, err)
	}

	return domain.CheckoutResult{
		Outcome: domain.OutcomeOrderPlaced,
		OrderID: order.ID,
		Total:   quote.Total,
		Lines:   quote.Lines,
		Message: "Order placed. Payment instructions will follow by email.",
	}, nil
}

// BeginCardPayment creates a payment intent for the quoted total and records
// the checkout so confirmation can build the order from the same lines.
func (s *Checkout) BeginCardPayment(ctx context.Context, req CheckoutRequest) (domain.CheckoutResult, error) {
	quote, err := s.prepare(ctx, req)
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	checkoutID := uuid.New()
	intent, err := s.payments.CreatePaymentIntent(ctx, quote.Total, map[string]string{
		"checkoutId":    checkoutID.String(),
		"customerEmail": req.Address.Email,
	})
	if err != nil {
		return domain.CheckoutResult{}, paymentError("CreatePaymentIntent", err)
	}

	record := domain.Checkout{
		ID:              checkoutID,
		PaymentIntentID: intent.ID,
		Lines:           quote.Lines,
		Address:         req.Address,
		Total:           quote.Total,
		Status:          domain.CheckoutAwaitingPayment,
	}
	if req.Owner != nil {
		record.Owner = *req.Owner
	}

	if err := s.checkouts.CreateCheckout(ctx, record); err != nil {
		return domain.CheckoutResult{}, &domain.Error{Kind: domain.KindPersistence, Op: "CreateCheckout", Msg: "could not record checkout", Err: err}
	}
	log.Printf("[checkout] card payment started checkout=%s intent=%s total=%s", checkoutID, intent.ID, quote.Total)

	return domain.CheckoutResult{
		Outcome:      domain.OutcomePaymentRequired,
		CheckoutID:   checkoutID,
		Total:        quote.Total,
		Lines:        quote.Lines,
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
	}, nil
}

// ConfirmCardPayment turns a succeeded payment into a provider order. A
// payment that succeeded but could not be fulfilled is reported as its own
// outcome and queued for reconciliation. Confirming twice returns the first result.
func (s *Checkout) ConfirmCardPayment(ctx context.Context, intentID string) (domain.CheckoutResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return domain.CheckoutResult{}, domain.Invalid("paymentIntentId", "is empty")
	}

	ck, err := s.checkouts.GetCheckoutByIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CheckoutResult{}, err
		}
		return domain.CheckoutResult{}, &domain.Error{Kind: domain.KindPersistence, Op: "GetCheckoutByIntent", Msg: "could not load checkout", Err: err}
	}

	if ck.Status != domain.CheckoutAwaitingPayment {
		return settledResult(ck)
	}

	intent, err := s.payments.RetrieveIntent(ctx, intentID)
	if err != nil {
		return domain.CheckoutResult{}, paymentError("RetrieveIntent", err)
	}
	if intent.Status != domain.PaymentSucceeded {
		return domain.CheckoutResult{}, fmt.Errorf("payment %s is %s: %w", intentID, intent.Status, domain.ErrPaymentIncomplete)
	}

	// Only the confirm that moves the checkout out of awaiting_payment may
	// create the provider order.
	claimed, err := s.checkouts.ClaimCheckout(ctx, ck.ID, domain.CheckoutAwaitingPayment, domain.CheckoutProcessing)
	if err != nil {
		return domain.CheckoutResult{}, &domain.Error{Kind: domain.KindPersistence, Op: "ClaimCheckout", Msg: "could not claim checkout", Err: err}
	}
	if !claimed {
		current, err := s.checkouts.GetCheckoutByIntent(ctx, intentID)
		if err != nil {
			return domain.CheckoutResult{}, &domain.Error{Kind: domain.KindPersistence, Op: "GetCheckoutByIntent", Msg: "could not load checkout", Err: err}
		}
		return settledResult(current)
	}

	if intent.Amount.MinorUnits() != ck.Total.MinorUnits() {
		reason := fmt.Sprintf("charged amount %s differs from checkout total %s", intent.Amount, ck.Total)
		return s.fulfillmentPending(ctx, ck, "", reason), nil
	}

	order, err := s.provider.CreateOrder(ctx, domain.OrderRequest{
		ExternalID:               "stripe_" + intentID,
		Label:                    cardOrderLabel,
		Lines:                    ck.Lines,
		Address:                  ck.Address,
		ProcessPayment:           true,
		SendShippingNotification: true,
	})
	if err != nil {
		return s.fulfillmentPending(ctx, ck, order.ID, err.Error()), nil
	}

	if err := s.checkouts.UpdateCheckoutStatus(ctx, ck.ID, domain.CheckoutCompleted, order.ID, ""); err != nil {
		log.Printf("[checkout] ORDER CREATED BUT STATUS NOT SAVED checkout=%s order=%s err=%v", ck.ID, order.ID, err)
	}
	log.Printf("[checkout] card order=%s checkout=%s intent=%s", order.ID, ck.ID, intentID)

	if ck.Owner.Kind != "" {
		owner := ck.Owner
		s.clearCart(ctx, &owner)
	}

	return completedResult(ck, order.ID), nil
}

// settledResult reports a checkout another confirm already claimed.
func settledResult(ck domain.Checkout) (domain.CheckoutResult, error) {
	switch ck.Status {
	case domain.CheckoutCompleted:
		return completedResult(ck, ck.OrderID), nil
	case domain.CheckoutFulfillmentPending:
		return pendingResult(ck, ck.OrderID), nil
	default:
		return domain.CheckoutResult{}, &domain.Error{
			Kind:  domain.KindConflict,
			Op:    "ConfirmCardPayment",
			Field: "paymentIntentId",
			Msg:   fmt.Sprintf("payment %s is already being confirmed, retry shortly", ck.PaymentIntentID),
		}
	}
}

// PendingReconciliations lists paid checkouts that still have no provider order.
func (s *Checkout) PendingReconciliations(ctx context.Context, limit int) ([]domain.Checkout, error) {
	if limit <= 0 {
		limit = defaultReconciliationLimit
	}

	list, err := s.checkouts.ListCheckoutsByStatus(ctx, domain.CheckoutFulfillmentPending, limit)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindPersistence, Op: "ListCheckoutsByStatus", Msg: "could not list checkouts", Err: err}
	}
	return list, nil
}

func (s *Checkout) prepare(ctx context.Context, req CheckoutRequest) (Quote, error) {
	if err := req.Address.Validate(); err != nil {
		return Quote{}, err
	}
	return s.Quote(ctx, req.Items)
}

func (s *Checkout) fulfillmentPending(ctx context.Context, ck domain.Checkout, orderID, reason string) domain.CheckoutResult {
	log.Printf("[checkout] RECONCILIATION checkout=%s intent=%s order=%q reason=%q", ck.ID, ck.PaymentIntentID, orderID, reason)

	if err := s.checkouts.UpdateCheckoutStatus(ctx, ck.ID, domain.CheckoutFulfillmentPending, orderID, reason); err != nil {
		log.Printf("[checkout] status update failed checkout=%s err=%v", ck.ID, err)
	}

	ck.Status = domain.CheckoutFulfillmentPending
	ck.OrderID = orderID
	ck.FailureReason = reason
	if err := s.notifier.FulfillmentPending(ctx, ck); err != nil {
		log.Printf("[checkout] ops notification failed checkout=%s err=%v", ck.ID, err)
	}

	return pendingResult(ck, orderID)
}

func (s *Checkout) clearCart(ctx context.Context, owner *domain.CartIdentifier) {
	if owner == nil || s.carts == nil {
		return
	}
	if _, err := s.carts.Clear(ctx, *owner); err != nil {
		log.Printf("[checkout] cart clear failed cart=%s err=%v", owner, err)
	}
}

func completedResult(ck domain.Checkout, orderID string) domain.CheckoutResult {
	return domain.CheckoutResult{
		Outcome:    domain.OutcomeOrderPlaced,
		OrderID:    orderID,
		CheckoutID: ck.ID,
		Total:      ck.Total,
		Lines:      ck.Lines,
		IntentID:   ck.PaymentIntentID,
		Message:    "Payment received and order placed.",
	}
}

func pendingResult(ck domain.Checkout, orderID string) domain.CheckoutResult {
	return domain.CheckoutResult{
		Outcome:    domain.OutcomeFulfillmentPending,
		OrderID:    orderID,
		CheckoutID: ck.ID,
		Total:      ck.Total,
		Lines:      ck.Lines,
		IntentID:   ck.PaymentIntentID,
		Message:    "Payment received. Your order will be fulfilled after a manual review.",
	}
}

// atLine ties err to a 1-based cart line, classifying it if needed.
func atLine(err error, line int) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = &domain.Error{Kind: domain.KindUpstream, Msg: "fulfillment provider request failed", Err: err}
	}
	annotated := *de
	annotated.Line = line
	if annotated.Field == "" {
		annotated.Field = "id"
	}
	return &annotated
}

func paymentError(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return &domain.Error{Kind: domain.KindUpstream, Op: op, Msg: "payment processor request failed", Err: err}
}
