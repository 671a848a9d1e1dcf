package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sieve/internal/sample"
)

// Scenario defines a filter conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Shape names the record type (sample.Shape).
	Shape string `yaml:"shape"`

	// Query is the raw query string under test.
	Query string `yaml:"query"`

	// Param overrides the filter parameter name.
	Param string `yaml:"param,omitempty"`

	// Key is the member path identifying records in Expect.Match.
	// Defaults to "name".
	Key string `yaml:"key,omitempty"`

	// Remote also runs the compiled data form against a SQLite store and
	// requires it to select the same records.
	Remote bool `yaml:"remote,omitempty"`

	// Records are decoded into Shape. When empty and Shape is "person", the
	// shared fixture people are used.
	Records []any `yaml:"records,omitempty"`

	// Expect states the selection or the compile error.
	Expect ExpectClause `yaml:"expect"`

	// Assertions validate the condition tree and the data form.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected outcome of compiling and applying the
// query.
type ExpectClause struct {
	// Match lists the keys of the selected records, in record order.
	Match []string `yaml:"match"`

	// Error is the expected compile error kind (see ErrorKinds). When set,
	// Match is ignored.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the condition tree or the data form.
type Assertion struct {
	// Type specifies the assertion type (see the Assert constants).
	Type string `yaml:"type"`

	// Condition names a condition (tree_contains).
	Condition string `yaml:"condition,omitempty"`

	// Group names a group (tree_group).
	Group string `yaml:"group,omitempty"`

	// Path is the expected condition path (tree_contains).
	Path *string `yaml:"path,omitempty"`

	// Operator is the expected operator name, e.g. "GreaterThan" (tree_contains).
	Operator string `yaml:"operator,omitempty"`

	// Values are the expected raw values (tree_contains); "~" stands for null.
	Values []any `yaml:"values,omitempty"`

	// Conjunction is "and" or "or" (tree_group).
	Conjunction string `yaml:"conjunction,omitempty"`

	// MemberOf is the expected parent group name.
	MemberOf string `yaml:"member_of,omitempty"`

	// Count is the expected number of conditions (tree_count).
	Count int `yaml:"count,omitempty"`

	// Expr is the expected data form rendering (expr).
	Expr string `yaml:"expr,omitempty"`

	// Portable is the expected portability verdict (portable).
	Portable bool `yaml:"portable,omitempty"`
}

// Assertion type constants.
const (
	AssertTreeContains = "tree_contains"
	AssertTreeGroup    = "tree_group"
	AssertTreeCount    = "tree_count"
	AssertExpr         = "expr"
	AssertPortable     = "portable"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files under dir, sorted by path. A
// non-empty filter is a glob matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	sort.Strings(files)
	return files, err
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Shape == "" {
		return fmt.Errorf("shape is required")
	}
	if _, ok := sample.Shape(s.Shape); !ok {
		return fmt.Errorf("unknown shape %q (known: %s)", s.Shape, strings.Join(sample.ShapeNames(), ", "))
	}
	if s.Expect.Error != "" {
		if _, ok := errorKinds[s.Expect.Error]; !ok {
			return fmt.Errorf("expect.error: unknown error kind %q", s.Expect.Error)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, i); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion.
func validateAssertion(a Assertion, index int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTreeContains:
		if a.Condition == "" {
			return fmt.Errorf("assertions[%d]: condition is required for tree_contains", index)
		}
	case AssertTreeGroup:
		if a.Group == "" {
			return fmt.Errorf("assertions[%d]: group is required for tree_group", index)
		}
	case AssertTreeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for tree_count", index)
		}
	case AssertExpr:
		if a.Expr == "" {
			return fmt.Errorf("assertions[%d]: expr is required for expr", index)
		}
	case AssertPortable:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
