package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/predicate"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Shape string // registered record shape
	Table string // table named in the generated SELECT
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	TreeID   string          `json:"tree_id"`
	Shape    string          `json:"shape"`
	Expr     string          `json:"expr"`
	Data     json.RawMessage `json:"data"`
	Portable bool            `json:"portable"`
	Warnings []string        `json:"warnings,omitempty"`
	SQL      string          `json:"sql"`
	Params   []any           `json:"params"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query for a record shape",
		Long: `Compile a query string against a record shape.

Prints the data form of the filter, its portability verdict and the
parameterized SQLite SELECT it translates to. Values are converted to
member types here, so malformed values fail at this step.

Exit codes:
  0 - Query compiled
  1 - Query does not compile (bad value, unsupported operator)
  2 - Command error (unknown shape, bad table name)

Examples:
  sieve compile 'filter[score][$gt]=80'
  sieve compile 'filter[city][$startswith]=B' --shape address --table addresses
  sieve compile 'filter[tags][$contains]=go' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Shape, "shape", "person", "record shape to compile for")
	cmd.Flags().StringVar(&opts.Table, "table", "records", "table name for the generated SQL")

	return cmd
}

func runCompile(opts *CompileOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	shape, err := lookupShape(opts.Shape)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	tree, p, err := compileQuery(opts.RootOptions, query, shape)
	if err != nil {
		return outputCompileError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d condition(s) for %s", countConditions(tree), shape)

	sql, params, err := querysql.NewSQLCompiler().Compile(queryir.Select{From: opts.Table, Filter: p.Expr()})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	portability := queryir.Validate(p.Expr())

	if formatter.JSON() {
		canonical, err := queryir.Canonical(p.Expr())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		data, err := ir.MarshalCanonical(canonical)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		if params == nil {
			params = []any{}
		}
		return formatter.Success(CompilationResult{
			TreeID:   p.TreeID(),
			Shape:    opts.Shape,
			Expr:     p.String(),
			Data:     data,
			Portable: portability.IsPortable,
			Warnings: portability.Warnings,
			SQL:      sql,
			Params:   params,
		})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "expr:   %s\n", p.String())
	fmt.Fprintf(&sb, "sql:    %s\n", sql)
	fmt.Fprintf(&sb, "params: %v", formatParams(params))
	for _, w := range portability.Warnings {
		fmt.Fprintf(&sb, "\nwarning: %s", w)
	}
	return formatter.Success(sb.String())
}

// compileQuery parses query with the resolved settings and compiles it for
// shape.
func compileQuery(opts *RootOptions, query string, shape reflect.Type) (*condition.Group, *predicate.Predicate, error) {
	settings := opts.settings()
	logger := opts.Logger()

	parserOpts := append(settings.ParserOptions(), condition.WithLogger(logger))
	tree := condition.NewParser(parserOpts...).Parse(query)

	compiler := predicate.New(
		predicate.WithLogger(logger),
		predicate.WithRegexTimeout(settings.RegexTimeout),
	)
	p, err := compiler.Compile(tree, shape)
	if err != nil {
		return tree, nil, err
	}
	return tree, p, nil
}

// outputCompileError reports a compilation failure. Compile failures are
// query failures (exit code 1).
func outputCompileError(formatter *OutputFormatter, err error) error {
	return formatter.Fail(ExitFailure, compileErrorCode(err), err.Error(), nil)
}

func compileErrorCode(err error) string {
	var unsupported *predicate.UnsupportedOperatorError
	switch {
	case errors.As(err, &unsupported):
		return ErrCodeUnsupported
	case errors.Is(err, coerce.ErrFormat),
		errors.Is(err, coerce.ErrInvalidOperation),
		errors.Is(err, coerce.ErrInvalidCast):
		return ErrCodeCoercion
	default:
		return ErrCodeGeneric
	}
}

// outputLoadError reports a shape or record loading failure (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// formatParams renders bound parameters the way they would be quoted in a
// SQL console.
func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if s, ok := p.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
			continue
		}
		parts[i] = fmt.Sprintf("%v", p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
