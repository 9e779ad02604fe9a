package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/podstore/internal/db"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
)

// cartRepository stores guest carts in Postgres, keyed by guest session id.
type cartRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) port.GuestCartRepository {
	return &cartRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	owner, err := domain.GuestIdentifier(ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	cart := domain.NewCart(owner)

	header, err := r.q.GetCartHeader(ctx, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCartHeader: %w", err)
	}

	rows, err := r.q.GetCart(ctx, ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCart: %w", err)
	}

	cart.Items = mapGetCartRowsToDomain(rows)
	cart.IsOpen = header.IsOpen
	cart.Version = header.Version
	cart.UpdatedAt = header.UpdatedAt

	return cart, nil
}

func (r *cartRepository) SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	ownerID := cart.Owner.ID
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}
	if cart.Owner.Kind != domain.KindGuest {
		return domain.Cart{}, fmt.Errorf("owner[%s] is not a guest cart", cart.Owner)
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.Cart, error) {
		var (
			affected int64
			err      error
		)

		if cart.Version == 0 {
			affected, err = q.InsertCart(ctx, db.InsertCartParams{OwnerID: ownerID, IsOpen: cart.IsOpen})
			if err != nil {
				return domain.Cart{}, fmt.Errorf("q.InsertCart: %w", err)
			}
		} else {
			affected, err = q.BumpCartVersion(ctx, db.BumpCartVersionParams{
				OwnerID: ownerID,
				IsOpen:  cart.IsOpen,
				Version: cart.Version,
			})
			if err != nil {
				return domain.Cart{}, fmt.Errorf("q.BumpCartVersion: %w", err)
			}
		}
		if affected == 0 {
			return domain.Cart{}, &domain.Error{
				Kind: domain.KindConflict,
				Op:   "SaveCart",
				Msg:  fmt.Sprintf("cart %s changed since version %d", cart.Owner, cart.Version),
			}
		}

		if err := q.DeleteItems(ctx, ownerID); err != nil {
			return domain.Cart{}, fmt.Errorf("q.DeleteItems: %w", err)
		}

		for i, item := range cart.Items {
			err := q.AddItem(ctx, mapDomainToAddItemParams(ownerID, i, item))
			if err != nil {
				return domain.Cart{}, fmt.Errorf("q.AddItem[%d]: %w", item.ProductID, err)
			}
		}

		header, err := q.GetCartHeader(ctx, ownerID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("q.GetCartHeader: %w", err)
		}

		saved := cart.Clone()
		saved.Version = header.Version
		saved.UpdatedAt = header.UpdatedAt
		return saved, nil
	})
}

func (r *cartRepository) WithinTx(ctx context.Context, fn func(repo port.CartRepository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	_, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (struct{}, error) {
		return struct{}{}, fn(&cartRepository{q: q})
	})
	return err
}

func mapDomainToAddItemParams(ownerID string, position int, item domain.CartItem) db.AddItemParams {
	return db.AddItemParams{
		OwnerID:      ownerID,
		Position:     int32(position),
		ProductID:    int32(item.ProductID),
		Name:         item.Name,
		PriceAmount:  item.UnitPrice,
		Quantity:     int32(item.Quantity),
		Size:         item.Size,
		Color:        item.Color,
		Image1:       item.Image1,
		Image2:       item.Image2,
		VariantImage: item.VariantImage,
	}
}

func mapGetCartRowToDomain(row db.GetCartRow) domain.CartItem {
	return domain.CartItem{
		ProductID:    int(row.ProductID),
		Name:         row.Name,
		UnitPrice:    row.PriceAmount,
		Quantity:     int(row.Quantity),
		Size:         row.Size,
		Color:        row.Color,
		Image1:       row.Image1,
		Image2:       row.Image2,
		VariantImage: row.VariantImage,
	}
}

func mapGetCartRowsToDomain(rows []db.GetCartRow) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(rows))

	for _, row := range rows {
		items = append(items, mapGetCartRowToDomain(row))
	}

	return items
}
