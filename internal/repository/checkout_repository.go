package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/podstore/internal/db"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type checkoutRepository struct {
	q *db.Queries
}

func NewCheckout(pool *pgxpool.Pool) port.CheckoutRepository {
	return &checkoutRepository{q: db.New(pool)}
}

// checkoutLine is the JSONB shape of a resolved order line.
type checkoutLine struct {
	domain.OrderLine
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (r *checkoutRepository) CreateCheckout(ctx context.Context, c domain.Checkout) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("checkout id is empty")
	}
	if c.PaymentIntentID == "" {
		return fmt.Errorf("paymentIntentID is empty")
	}

	lines := make([]checkoutLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, checkoutLine{OrderLine: l, UnitPrice: l.UnitPrice.Amount})
	}

	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("json.Marshal(lines): %w", err)
	}

	addressJSON, err := json.Marshal(c.Address)
	if err != nil {
		return fmt.Errorf("json.Marshal(address): %w", err)
	}

	status := c.Status
	if status == "" {
		status = domain.CheckoutAwaitingPayment
	}

	err = r.q.CreateCheckout(ctx, db.CreateCheckoutParams{
		ID:              c.ID,
		PaymentIntentID: c.PaymentIntentID,
		OwnerKind:       string(c.Owner.Kind),
		OwnerID:         c.Owner.ID,
		Lines:           linesJSON,
		ShippingAddress: addressJSON,
		TotalAmount:     c.Total.Amount,
		TotalCurrency:   c.Total.Currency.String(),
		Status:          string(status),
	})
	if err != nil {
		return fmt.Errorf("q.CreateCheckout: %w", err)
	}

	return nil
}

func (r *checkoutRepository) GetCheckoutByIntent(ctx context.Context, intentID string) (domain.Checkout, error) {
	if intentID == "" {
		return domain.Checkout{}, fmt.Errorf("intentID is empty")
	}

	row, err := r.q.GetCheckoutByIntent(ctx, intentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Checkout{}, domain.NotFound("paymentIntentId", "no checkout for this payment")
	}
	if err != nil {
		return domain.Checkout{}, fmt.Errorf("q.GetCheckoutByIntent: %w", err)
	}

	return mapCheckoutToDomain(row)
}

func (r *checkoutRepository) UpdateCheckoutStatus(ctx context.Context, id uuid.UUID, status domain.CheckoutStatus, orderID, reason string) error {
	affected, err := r.q.UpdateCheckoutStatus(ctx, db.UpdateCheckoutStatusParams{
		ID:            id,
		Status:        string(status),
		OrderID:       orderID,
		FailureReason: reason,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateCheckoutStatus: %w", err)
	}
	if affected == 0 {
		return domain.NotFound("checkoutId", fmt.Sprintf("checkout %s not found", id))
	}

	return nil
}

func (r *checkoutRepository) ClaimCheckout(ctx context.Context, id uuid.UUID, from, to domain.CheckoutStatus) (bool, error) {
	affected, err := r.q.ClaimCheckout(ctx, db.ClaimCheckoutParams{
		ID:       id,
		Status:   string(from),
		Status_2: string(to),
	})
	if err != nil {
		return false, fmt.Errorf("q.ClaimCheckout: %w", err)
	}

	return affected == 1, nil
}

func (r *checkoutRepository) ListCheckoutsByStatus(ctx context.Context, status domain.CheckoutStatus, limit int) ([]domain.Checkout, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.q.ListCheckoutsByStatus(ctx, db.ListCheckoutsByStatusParams{
		Status: string(status),
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("q.ListCheckoutsByStatus: %w", err)
	}

	result := make([]domain.Checkout, 0, len(rows))
	for _, row := range rows {
		c, err := mapCheckoutToDomain(row)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	return result, nil
}

func mapCheckoutToDomain(row db.Checkout) (domain.Checkout, error) {
	unit, err := currency.ParseISO(row.TotalCurrency)
	if err != nil {
		return domain.Checkout{}, fmt.Errorf("currency.ParseISO[%s]: %w", row.TotalCurrency, err)
	}

	var lines []checkoutLine
	if err := json.Unmarshal(row.Lines, &lines); err != nil {
		return domain.Checkout{}, fmt.Errorf("json.Unmarshal(lines): %w", err)
	}

	var address domain.ShippingAddress
	if err := json.Unmarshal(row.ShippingAddress, &address); err != nil {
		return domain.Checkout{}, fmt.Errorf("json.Unmarshal(address): %w", err)
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		line := l.OrderLine
		line.UnitPrice = domain.Money{Amount: l.UnitPrice, Currency: unit}
		orderLines = append(orderLines, line)
	}

	return domain.Checkout{
		ID:              row.ID,
		PaymentIntentID: row.PaymentIntentID,
		Owner:           domain.CartIdentifier{Kind: domain.IdentifierKind(row.OwnerKind), ID: row.OwnerID},
		Lines:           orderLines,
		Address:         address,
		Total:           domain.Money{Amount: row.TotalAmount, Currency: unit},
		Status:          domain.CheckoutStatus(row.Status),
		OrderID:         row.OrderID,
		FailureReason:   row.FailureReason,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}
