// Package repository implements the Store (C1): durable relational
// state for incidents, organisations, divisions, staff, facilities, the
// dispatch queue and the audit log, plus a short-TTL Redis read cache
// for incidents. All cross-table mutations happen inside one
// transaction obtained from WithTx, matching spec.md §4.3's concurrency
// guard ("every transition is executed inside a single Store
// transaction").
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// isNoRows reports whether err is pgx's no-rows sentinel, the common
// "doesn't exist" case every single-row Get/Update method needs to
// translate into the package's own ErrNotFound.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Store is the concrete C1 implementation.
type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redisClient *redis.Client) *Store {
	return &Store{db: db, redis: redisClient}
}

// Tx is a single Store transaction. All row-level locking (the
// incident's FOR UPDATE read) and workload-ledger deltas happen through
// a Tx so they commit or roll back together.
type Tx struct {
	tx pgx.Tx
}

// WithTx runs fn inside a new transaction, committing on success and
// rolling back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	pgxTx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = pgxTx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, &Tx{tx: pgxTx}); err != nil {
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
