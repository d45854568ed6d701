package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/store"
)

var errNestedTx = errors.New("sqlite: nested transactions are not supported")

// txStore is the store.Tx handed to WithTx callbacks. Its repos share the
// one *sql.Tx, so every write in the callback commits or rolls back
// together.
type txStore struct {
	tx  *sql.Tx
	now func() time.Time
}

func (t *txStore) Users() store.Users { return &usersRepo{db: t.tx, now: t.now} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// WithTx joins the running transaction instead of opening a second one.
func (t *txStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }

// The schema is migrated before the first transaction and the handle is
// owned by the parent Store, so these are no-ops.
func (t *txStore) ApplyMigrations() error     { return nil }
func (t *txStore) Ping(context.Context) error { return nil }
func (t *txStore) Close() error               { return nil }
