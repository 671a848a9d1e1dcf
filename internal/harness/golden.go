package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a scenario result as the text stored in its golden file.
//
//	scenario: score_window
//	query: filter[score][$gt]=80
//	tree:
//	  root (and)
//	    score-0: score GreaterThan [80]
//	expr: Score > 80
//	matched: [Ada, Carol]
func Snapshot(scenario *Scenario, result *Result) []byte {
	var buf strings.Builder

	fmt.Fprintf(&buf, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&buf, "query: %s\n", scenario.Query)
	fmt.Fprintf(&buf, "tree:\n")
	for _, line := range strings.Split(strings.TrimRight(result.Tree, "\n"), "\n") {
		fmt.Fprintf(&buf, "  %s\n", line)
	}
	if result.CompileError != "" {
		fmt.Fprintf(&buf, "error: %s\n", scenario.Expect.Error)
		return []byte(buf.String())
	}
	fmt.Fprintf(&buf, "expr: %s\n", result.Expr)
	fmt.Fprintf(&buf, "matched: [%s]\n", strings.Join(result.Matched, ", "))

	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against its
// golden file without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
}
