package cli

import (
	"context"
	"fmt"

	"github.com/mcwdsi/rt2n4j/internal/config"
	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/neo4jgraph"
	"github.com/mcwdsi/rt2n4j/internal/sqlgraph"
	"github.com/mcwdsi/rt2n4j/internal/store"
)

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Backend != "" {
		switch b := config.Backend(opts.Backend); b {
		case config.BackendSQLite, config.BackendNeo4j:
			cfg.Backend = b
		default:
			return config.Config{}, fmt.Errorf("invalid backend %q: must be neo4j or sqlite", opts.Backend)
		}
	}
	if opts.SQLitePath != "" {
		cfg.SQLite.Path = opts.SQLitePath
	}
	if opts.Neo4jURI != "" {
		cfg.Neo4j.URI = opts.Neo4jURI
	}
	return cfg, nil
}

// openDriver connects to the configured backend.
func openDriver(ctx context.Context, opts *RootOptions, cfg config.Config) (graph.Driver, error) {
	switch cfg.Backend {
	case config.BackendNeo4j:
		timeout, err := cfg.Neo4j.Timeout()
		if err != nil {
			return nil, err
		}
		d, err := neo4jgraph.Open(ctx, neo4jgraph.Config{
			URI:            cfg.Neo4j.URI,
			Username:       cfg.Neo4j.Username,
			Password:       cfg.Neo4j.Password,
			Database:       cfg.Neo4j.Database,
			ConnectTimeout: timeout,
		}, opts.Logger())
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.BackendSQLite:
		g, err := sqlgraph.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// openStore loads config and opens a store on the configured backend.
// The caller closes the store.
func openStore(ctx context.Context, opts *RootOptions) (*store.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "invalid configuration", Err: err, ErrCode: ErrCodeConfig}
	}
	driver, err := openDriver(ctx, opts, cfg)
	if err != nil {
		return nil, &ExitError{
			Code:    ExitCommandError,
			Message: fmt.Sprintf("cannot open %s backend", cfg.Backend),
			Err:     err,
			ErrCode: ErrCodeBackend,
		}
	}
	opts.Logger().Debug("store opened", "backend", cfg.Backend)
	return store.New(driver, opts.Logger()), nil
}
