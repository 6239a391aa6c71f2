package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a named sequence of store operations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	Steps []Step `yaml:"steps"`
}

// Step performs exactly one operation. The operation fields are mutually
// exclusive.
type Step struct {
	Save       []map[string]any `yaml:"save,omitempty"`
	Commit     bool             `yaml:"commit,omitempty"`
	Rollback   bool             `yaml:"rollback,omitempty"`
	Get        string           `yaml:"get,omitempty"`
	ByAuthor   string           `yaml:"by_author,omitempty"`
	ByReferent string           `yaml:"by_referent,omitempty"`
	ByType     string           `yaml:"by_type,omitempty"`
	Ruis       bool             `yaml:"ruis,omitempty"`
	Query      map[string]any   `yaml:"query,omitempty"`

	// Expect states the step's outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step outcome.
type Expect struct {
	// Error is the expected mapper error code, e.g. DANGLING_REFERENCE.
	Error string `yaml:"error,omitempty"`

	// Ruis is the exact, ordered list of identifiers a lookup returns.
	// Nil means unchecked; an empty list means no results.
	Ruis []string `yaml:"ruis"`

	// Tuple is the document a get step must decode to.
	Tuple map[string]any `yaml:"tuple,omitempty"`
}

// Operation names, as they appear in scenario files and traces.
const (
	OpSave       = "save"
	OpCommit     = "commit"
	OpRollback   = "rollback"
	OpGet        = "get"
	OpByAuthor   = "by_author"
	OpByReferent = "by_referent"
	OpByType     = "by_type"
	OpRuis       = "ruis"
	OpQuery      = "query"
)

// Op returns the step's operation name, or "" if it has none or several.
func (s Step) Op() string {
	var ops []string
	if s.Save != nil {
		ops = append(ops, OpSave)
	}
	if s.Commit {
		ops = append(ops, OpCommit)
	}
	if s.Rollback {
		ops = append(ops, OpRollback)
	}
	if s.Get != "" {
		ops = append(ops, OpGet)
	}
	if s.ByAuthor != "" {
		ops = append(ops, OpByAuthor)
	}
	if s.ByReferent != "" {
		ops = append(ops, OpByReferent)
	}
	if s.ByType != "" {
		ops = append(ops, OpByType)
	}
	if s.Ruis {
		ops = append(ops, OpRuis)
	}
	if s.Query != nil {
		ops = append(ops, OpQuery)
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		op := step.Op()
		if op == "" {
			return fmt.Errorf("steps[%d]: exactly one operation is required", i)
		}
		if op == OpSave && len(step.Save) == 0 {
			return fmt.Errorf("steps[%d]: save needs at least one tuple", i)
		}
		if e := step.Expect; e != nil {
			if e.Tuple != nil && op != OpGet {
				return fmt.Errorf("steps[%d].expect: tuple is only valid for get", i)
			}
			if e.Error != "" && (e.Ruis != nil || e.Tuple != nil) {
				return fmt.Errorf("steps[%d].expect: error excludes ruis and tuple", i)
			}
		}
	}
	return nil
}
