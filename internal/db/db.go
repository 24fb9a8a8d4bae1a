// Package db is the query layer over Postgres. It follows the sqlc shape —
// a Querier interface, a Queries struct, typed Params structs — but the
// queries are few enough that they are written by hand.
//
// Dependency rule: db imports nothing from internal/. Every other package
// talks to the database through db.Querier.
package db

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB and *sql.Tx the query methods need. Holding
// this interface instead of *sql.DB lets WithTx scope Queries to a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries executes all SQL against the given DBTX.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to the given pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries scoped to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
