package neo4jgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/querycypher"
	"github.com/mcwdsi/rt2n4j/internal/queryir"
)

// Tx is an explicit Neo4j transaction and the session that owns it.
type Tx struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
	logger  *slog.Logger
	done    bool
}

var _ graph.Tx = (*Tx)(nil)

// Run compiles stmt to Cypher and collects every row.
func (t *Tx) Run(ctx context.Context, stmt queryir.Statement) ([]graph.Record, error) {
	if t.done {
		return nil, graph.ErrTxClosed
	}

	text, params, err := querycypher.Compile(stmt)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("running cypher", "query", text, "params", len(params))

	result, err := t.tx.Run(ctx, text, params)
	if err != nil {
		return nil, wrapError("run", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, wrapError("collect", err)
	}

	out := make([]graph.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecord(rec.Keys, rec.Values))
	}
	return out, nil
}

// Commit commits the transaction and closes its session.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return graph.ErrTxClosed
	}
	t.done = true
	defer t.session.Close(ctx)

	if err := t.tx.Commit(ctx); err != nil {
		return wrapError("commit", err)
	}
	return nil
}

// Rollback rolls the transaction back and closes its session.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return graph.ErrTxClosed
	}
	t.done = true
	defer t.session.Close(ctx)

	if err := t.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// toRecord zips a Bolt record into a graph.Record. Bolt already returns
// integers as int64 and lists as []any.
func toRecord(keys []string, values []any) graph.Record {
	rec := make(graph.Record, len(keys))
	for i, k := range keys {
		if i < len(values) {
			rec[k] = values[i]
		} else {
			rec[k] = nil
		}
	}
	return rec
}
