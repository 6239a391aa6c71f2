package neo4jgraph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcwdsi/rt2n4j/internal/graph"
)

func TestToRecord(t *testing.T) {
	rec := toRecord([]string{"rui", "labels", "pos"}, []any{"r1", []any{"AN", "tuple"}, int64(2)})
	assert.Equal(t, graph.Record{"rui": "r1", "labels": []any{"AN", "tuple"}, "pos": int64(2)}, rec)

	labels, err := rec.Strings("labels")
	require.NoError(t, err)
	assert.Equal(t, []string{"AN", "tuple"}, labels)

	short := toRecord([]string{"a", "b"}, []any{"x"})
	assert.Nil(t, short["b"])
}

func TestWrapError_Constraint(t *testing.T) {
	err := wrapError("run", &neo4j.Neo4jError{Code: constraintCode, Msg: "already exists"})
	assert.True(t, errors.Is(err, graph.ErrConstraint))

	err = wrapError("run", &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "bad"})
	assert.False(t, errors.Is(err, graph.ErrConstraint))
	assert.Contains(t, err.Error(), "run")
}

func TestSchemaStatements_Idempotent(t *testing.T) {
	for _, stmt := range schemaStatements {
		assert.Contains(t, stmt, "IF NOT EXISTS", stmt)
	}
	joined := strings.Join(schemaStatements, "\n")
	assert.Contains(t, joined, "FOR (n:code) REQUIRE n.digest IS UNIQUE")
	assert.Contains(t, joined, "FOR (n:data) REQUIRE n.digest IS UNIQUE")
	assert.Contains(t, joined, "FOR (n:ident) REQUIRE n.rui IS UNIQUE")
	assert.NotContains(t, joined, "FOR (n:N) ON (n.rui)")
}

func TestOpen_BadScheme(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := Open(context.Background(), Config{URI: "bogus://localhost:7687"}, logger)
	assert.Error(t, err)
}

func TestOpen_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for connect retries")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Open(ctx, Config{
		URI:            "bolt://127.0.0.1:1",
		ConnectTimeout: 500 * time.Millisecond,
	}, logger)
	assert.Error(t, err)
}
