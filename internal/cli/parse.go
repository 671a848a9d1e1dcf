package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/ir"
)

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Recognized bool            `json:"recognized"`
	ID         string          `json:"id"`
	Conditions int             `json:"conditions"`
	Tree       json.RawMessage `json:"tree"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query string into a condition tree",
		Long: `Parse a query string into its condition tree.

Pairs that do not follow the bracket grammar are dropped; run with
--verbose to see why. The tree ID is the content hash of the canonical
tree, so equivalent queries share it.

Examples:
  sieve parse 'filter[score][$gt]=80'
  sieve parse 'filter[$or][0][name][$startswith]=A&filter[$or][1][age][$lt]=18' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	settings := opts.settings()

	parserOpts := append(settings.ParserOptions(), condition.WithLogger(opts.Logger()))
	tree, recognized := condition.NewParser(parserOpts...).TryParse(query)
	if !recognized {
		tree = condition.NewRoot()
	}

	id, err := tree.ID()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("hashing tree: %v", err), nil)
	}
	formatter.VerboseLog("Parsed %d condition(s) from %q", countConditions(tree), query)

	if formatter.JSON() {
		canonical, err := ir.MarshalCanonical(tree.Canonical())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encoding tree: %v", err), nil)
		}
		return formatter.Success(ParseResult{
			Recognized: recognized,
			ID:         id,
			Conditions: countConditions(tree),
			Tree:       canonical,
		})
	}

	var sb strings.Builder
	if !recognized {
		fmt.Fprintf(&sb, "No %s parameters found.\n", settings.Param)
	}
	sb.WriteString(tree.String())
	fmt.Fprintf(&sb, "\nid: %s", id)
	return formatter.Success(sb.String())
}

func countConditions(tree *condition.Group) int {
	n := 0
	condition.Walk(tree, func(node condition.Node, _ int) bool {
		if _, ok := node.(*condition.Condition); ok {
			n++
		}
		return true
	})
	return n
}
