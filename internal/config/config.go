// Package config loads rt2n4j settings from CUE.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// DefaultFile is the config file looked up when none is named.
const DefaultFile = "rt2n4j.cue"

// Backend selects the graph store.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendNeo4j  Backend = "neo4j"
)

// Config is the decoded #Config.
type Config struct {
	Backend Backend `json:"backend"`
	Neo4j   Neo4j   `json:"neo4j"`
	SQLite  SQLite  `json:"sqlite"`
}

// Neo4j holds Bolt connection settings.
type Neo4j struct {
	URI            string `json:"uri"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Database       string `json:"database"`
	ConnectTimeout string `json:"connect_timeout"`
}

// Timeout parses ConnectTimeout.
func (n Neo4j) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(n.ConnectTimeout)
	if err != nil {
		return 0, fmt.Errorf("neo4j.connect_timeout: %w", err)
	}
	return d, nil
}

// SQLite holds the embedded store location.
type SQLite struct {
	Path string `json:"path"`
}

// LoadError reports an invalid configuration, with the CUE position when
// one is known.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the schema defaults.
func Default() (Config, error) {
	return Parse(nil, "")
}

// Load reads and validates a config file. An empty path loads DefaultFile
// if it exists and the defaults otherwise.
func Load(path string) (Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return Default()
		}
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse unifies src with #Config and decodes the result. filename is used
// in error positions.
func Parse(src []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(src) > 0 {
		user := ctx.CompileBytes(src, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return Config{}, formatCUEError(err)
		}
		v = v.Unify(user)
	}
	if err := v.Validate(); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}
	if _, err := cfg.Neo4j.Timeout(); err != nil {
		return Config{}, &LoadError{Message: err.Error()}
	}
	return cfg, nil
}

// formatCUEError returns the first CUE error with its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
