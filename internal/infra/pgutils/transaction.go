package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// WithTx runs fn inside a transaction.
// It commits if fn returns nil, otherwise it rolls back.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// TxRunner runs fn in a transaction. Services depend on this instead of
// *sql.DB so tests can run them without a database.
type TxRunner func(ctx context.Context, fn func(*sql.Tx) error) error

func Runner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(*sql.Tx) error) error {
		return WithTx(ctx, db, fn)
	}
}

// NoTx calls fn with a nil transaction.
func NoTx(_ context.Context, fn func(*sql.Tx) error) error {
	return fn(nil)
}

const codeUniqueViolation = "23505"

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
