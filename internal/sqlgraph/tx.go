package sqlgraph

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/queryir"
)

// Tx is an open transaction on a Graph.
//
// Each Run is atomic: a statement that fails part way is undone to a
// savepoint, leaving earlier statements of the transaction in place.
type Tx struct {
	mu   sync.Mutex
	tx   *sql.Tx
	done bool
}

var _ graph.Tx = (*Tx)(nil)

// Run validates and executes one statement.
func (t *Tx) Run(ctx context.Context, stmt queryir.Statement) ([]graph.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil, graph.ErrTxClosed
	}
	if err := queryir.Validate(stmt).Err(); err != nil {
		return nil, err
	}

	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT stmt"); err != nil {
		return nil, fmt.Errorf("savepoint: %w", err)
	}

	x := newExecutor(t.tx)
	records, err := x.run(ctx, stmt)
	if err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO stmt"); rbErr != nil {
			return nil, fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		_, _ = t.tx.ExecContext(ctx, "RELEASE stmt")
		return nil, err
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE stmt"); err != nil {
		return nil, fmt.Errorf("release savepoint: %w", err)
	}
	return records, nil
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return graph.ErrTxClosed
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the transaction's writes.
func (t *Tx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return graph.ErrTxClosed
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
