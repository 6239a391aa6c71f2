package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "rt2n4j.db", cfg.SQLite.Path)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.Username)

	timeout, err := cfg.Neo4j.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestParse_Neo4j(t *testing.T) {
	src := `
backend: "neo4j"
neo4j: {
	uri:             "neo4j+s://graph.example.org:7687"
	password:        "secret"
	database:        "rt"
	connect_timeout: "5s"
}
`
	cfg, err := Parse([]byte(src), "rt2n4j.cue")
	require.NoError(t, err)

	assert.Equal(t, BackendNeo4j, cfg.Backend)
	assert.Equal(t, "neo4j+s://graph.example.org:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.Username)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, "rt", cfg.Neo4j.Database)
	assert.Equal(t, "rt2n4j.db", cfg.SQLite.Path)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown backend", `backend: "postgres"`},
		{"unknown field", `colour: "red"`},
		{"unknown nested field", `sqlite: {file: "x.db"}`},
		{"bad uri scheme", `neo4j: uri: "http://localhost:7474"`},
		{"bad timeout", `neo4j: connect_timeout: "soon"`},
		{"empty path", `sqlite: path: ""`},
		{"syntax", `backend: `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "rt2n4j.cue")
			require.Error(t, err)

			var le *LoadError
			assert.True(t, errors.As(err, &le), "got %T: %v", err, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.cue")
	require.NoError(t, os.WriteFile(path, []byte(`sqlite: path: "/var/lib/rt/graph.db"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rt/graph.db", cfg.SQLite.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestLoadError_Position(t *testing.T) {
	_, err := Parse([]byte("backend: \"neo4j\"\ncolour: 1\n"), "rt2n4j.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}
