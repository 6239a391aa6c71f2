// Package graph defines the transaction boundary between the tuple mapper
// and a property-graph backend.
//
// A Driver hands out transactions; a Tx runs queryir statements and returns
// rows. Backends: neo4jgraph (Bolt) and sqlgraph (embedded SQLite).
package graph

import (
	"context"
	"errors"

	"github.com/mcwdsi/rt2n4j/internal/queryir"
)

// ErrTxClosed is returned by a Tx used after Commit or Rollback.
var ErrTxClosed = errors.New("transaction already closed")

// ErrConstraint is wrapped by backends when a write violates a uniqueness
// constraint.
var ErrConstraint = errors.New("constraint violation")

// Record is one result row keyed by RETURN alias.
//
// Values are nil, string, bool, int64, float64 or []any (labels).
type Record map[string]any

// Tx is one unit of work. A Tx is not safe for concurrent use.
type Tx interface {
	// Run executes a statement and returns all rows.
	Run(ctx context.Context, stmt queryir.Statement) ([]Record, error)
	// Commit makes the transaction's writes durable and releases the session.
	Commit(ctx context.Context) error
	// Rollback discards the transaction's writes and releases the session.
	Rollback(ctx context.Context) error
}

// Driver opens transactions against one graph database.
type Driver interface {
	Begin(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}
