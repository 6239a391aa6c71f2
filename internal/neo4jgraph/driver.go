// Package neo4jgraph runs queryir statements against Neo4j over Bolt.
package neo4jgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mcwdsi/rt2n4j/internal/graph"
)

// DefaultConnectTimeout bounds the wait for the server at Open.
const DefaultConnectTimeout = 30 * time.Second

// Config holds connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	// Database is the target database. Empty means the server default.
	Database string
	// ConnectTimeout bounds connectivity retries. Zero means
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// schemaStatements back the content-addressed MERGE of leaf nodes with a
// uniqueness constraint and keep one node per identifier.
var schemaStatements = []string{
	"CREATE CONSTRAINT code_digest IF NOT EXISTS FOR (n:code) REQUIRE n.digest IS UNIQUE",
	"CREATE CONSTRAINT data_digest IF NOT EXISTS FOR (n:data) REQUIRE n.digest IS UNIQUE",
	"CREATE CONSTRAINT ident_rui IF NOT EXISTS FOR (n:ident) REQUIRE n.rui IS UNIQUE",
	"CREATE INDEX tuple_rui IF NOT EXISTS FOR (n:tuple) ON (n.rui)",
	"CREATE INDEX rel_uri IF NOT EXISTS FOR (n:rel) ON (n.uri)",
}

// Driver is a graph.Driver backed by a Neo4j driver.
type Driver struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

var _ graph.Driver = (*Driver)(nil)

// Open connects to Neo4j, waiting with exponential backoff until the
// server answers or the connect timeout elapses, then ensures the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = timeout
	attempt := 1
	err = backoff.Retry(func() error {
		if err := driver.VerifyConnectivity(ctx); err != nil {
			logger.Info("waiting for neo4j", "uri", cfg.URI, "attempt", attempt, "error", err)
			attempt++
			return err
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j at %s: %w", cfg.URI, err)
	}

	d := &Driver{driver: driver, database: cfg.Database, logger: logger}
	if err := d.EnsureSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	logger.Info("connected to neo4j", "uri", cfg.URI, "database", cfg.Database)
	return d, nil
}

// EnsureSchema creates the constraints and indexes the mapper relies on.
// Safe to call repeatedly.
func (d *Driver) EnsureSchema(ctx context.Context) error {
	session := d.session(ctx)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("ensure schema %q: %w", stmt, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("ensure schema %q: %w", stmt, err)
		}
	}
	return nil
}

func (d *Driver) session(ctx context.Context) neo4j.SessionWithContext {
	return d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
}

// Begin opens a session and an explicit transaction on it. The session is
// released when the transaction ends.
func (d *Driver) Begin(ctx context.Context) (graph.Tx, error) {
	session := d.session(ctx)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		session.Close(ctx)
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{session: session, tx: tx, logger: d.logger}, nil
}

// Close releases the driver's connection pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// constraintCode is the server status code for a uniqueness violation.
const constraintCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// wrapError marks uniqueness violations with graph.ErrConstraint.
func wrapError(op string, err error) error {
	var ne *neo4j.Neo4jError
	if errors.As(err, &ne) && ne.Code == constraintCode {
		return fmt.Errorf("%s: %w: %v", op, graph.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
