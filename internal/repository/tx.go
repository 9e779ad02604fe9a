package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/podstore/internal/db"
	"github.com/nikolayk812/podstore/internal/domain"
)

// Postgres error codes a concurrent writer on the same cart produces.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
)

// withTx runs fn in its own transaction, or in the caller's when pool is nil.
// Write races reported by Postgres come back as conflicts so the service
// layer retries them like a stale version.
func withTx[T any](ctx context.Context, pool *pgxpool.Pool, q *db.Queries, fn func(q *db.Queries) (T, error)) (T, error) {
	var zero T

	if pool == nil {
		res, err := fn(q)
		return res, asConflict(err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("pool.Begin: %w", err)
	}

	result, err := fn(q.WithTx(tx))
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Printf("[repository] rollback failed: %v", rbErr)
			err = errors.Join(err, fmt.Errorf("tx.Rollback: %w", rbErr))
		}
		return zero, asConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, asConflict(fmt.Errorf("tx.Commit: %w", err))
	}

	return result, nil
}

func asConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeSerializationFailure:
		return &domain.Error{Kind: domain.KindConflict, Op: "withTx", Msg: "concurrent cart write", Err: err}
	default:
		return err
	}
}
