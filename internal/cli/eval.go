package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/filtering"
	"github.com/roach88/sieve/internal/records"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Shape   string // registered record shape
	Records string // YAML record file
	Key     string // member identifying records in the output
	Remote  bool   // also select through an in-memory SQLite store
}

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Expr          string   `json:"expr"`
	Total         int      `json:"total"`
	Matched       []string `json:"matched"`
	Records       []any    `json:"records"`
	RemoteMatched []string `json:"remote_matched,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <query>",
		Short: "Apply a query to a set of records",
		Long: `Apply a query string to records and list the ones it selects.

Records are read from a YAML file (a list, or a mapping with a "records"
list) and decoded into the shape. Without --records the person shape uses
its built-in sample people. With --remote the records are also loaded
into an in-memory SQLite store and selected through the generated SQL;
the two selections must agree.

Exit codes:
  0 - Query applied
  1 - Query does not compile, evaluation failed, or the selections differ
  2 - Command error (unknown shape, unreadable records, bad key)

Examples:
  sieve eval 'filter[score][$gt]=80'
  sieve eval 'filter[city]=Paris' --shape address --records addresses.yaml --key street
  sieve eval 'filter[name][$regex]=^A' --remote --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Shape, "shape", "person", "record shape")
	cmd.Flags().StringVarP(&opts.Records, "records", "r", "", "YAML record file")
	cmd.Flags().StringVar(&opts.Key, "key", "name", "member identifying records in the output")
	cmd.Flags().BoolVar(&opts.Remote, "remote", false, "also select through an in-memory SQLite store")

	return cmd
}

func runEval(opts *EvalOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	shape, err := lookupShape(opts.Shape)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	recs, err := loadRecords(opts.Records, shape)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	keyOf, err := records.Key(opts.Key, shape)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d record(s) of %s", len(recs), shape)

	_, p, err := compileQuery(opts.RootOptions, query, shape)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	result := EvalResult{
		Expr:    p.String(),
		Total:   len(recs),
		Matched: []string{},
		Records: []any{},
	}
	for i, rec := range recs {
		ok, err := p.Eval(rec)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeEvaluation, fmt.Sprintf("record %d: %v", i, err), nil)
		}
		if ok {
			result.Matched = append(result.Matched, keyOf(rec))
			result.Records = append(result.Records, rec)
		}
	}

	if opts.Remote {
		indexes, err := filtering.SelectStored(cmd.Context(), p, recs)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result.RemoteMatched = make([]string, len(indexes))
		for i, idx := range indexes {
			result.RemoteMatched[i] = keyOf(recs[idx])
		}
		if !slices.Equal(result.Matched, result.RemoteMatched) {
			return formatter.Fail(ExitFailure, ErrCodeStore,
				fmt.Sprintf("store selected %v, in-memory selected %v", result.RemoteMatched, result.Matched), nil)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	var sb strings.Builder
	for _, key := range result.Matched {
		fmt.Fprintf(&sb, "%s\n", key)
	}
	fmt.Fprintf(&sb, "%d of %d record(s) matched %s", len(result.Matched), result.Total, result.Expr)
	if opts.Remote {
		sb.WriteString(" (store agrees)")
	}
	return formatter.Success(sb.String())
}
