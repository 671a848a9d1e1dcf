package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/errors"
	"github.com/roach88/sieve/internal/filtering"
	"github.com/roach88/sieve/internal/predicate"
	"github.com/roach88/sieve/internal/records"
	"github.com/roach88/sieve/internal/sample"
)

// DefaultKey identifies records when a scenario names no key.
const DefaultKey = "name"

// errorKinds maps the expect.error names to the failures they accept.
var errorKinds = map[string]func(error) bool{
	"format":            func(err error) bool { return errors.Is(err, coerce.ErrFormat) },
	"invalid_operation": func(err error) bool { return errors.Is(err, coerce.ErrInvalidOperation) },
	"invalid_cast":      func(err error) bool { return errors.Is(err, coerce.ErrInvalidCast) },
	"unsupported_operator": func(err error) bool {
		var unsupported *predicate.UnsupportedOperatorError
		return errors.As(err, &unsupported)
	},
	"evaluation": func(err error) bool { return err != nil },
}

// Harness is the scenario execution engine.
type Harness struct {
	logger   *slog.Logger
	compiler *predicate.Compiler
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used for parsing, compilation and the run itself.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New returns a Harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	h.compiler = predicate.New(predicate.WithLogger(h.logger))
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Parse the query into a condition tree
//  2. Decode the records into the scenario's shape
//  3. Compile the tree, or check the expected compile error
//  4. Apply the predicate in memory, and remotely when requested
//  5. Evaluate the assertions
//
// The returned error reports a broken scenario (unknown shape, undecodable
// records, store failure), not a failing one.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	shape, ok := sample.Shape(scenario.Shape)
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", scenario.Shape)
	}

	opts := []condition.Option{condition.WithLogger(h.logger)}
	if scenario.Param != "" {
		opts = append(opts, condition.WithParam(scenario.Param))
	}
	tree := condition.NewParser(opts...).Parse(scenario.Query)

	result := NewResult()
	result.Tree = tree.String()

	recs, err := h.records(scenario, shape)
	if err != nil {
		return nil, err
	}
	keyOf, err := keyFunc(scenario.Key, shape)
	if err != nil {
		return nil, err
	}

	p, err := h.compiler.Compile(tree, shape)
	if err != nil {
		result.CompileError = err.Error()
		h.logger.Debug("scenario compile failed", "scenario", scenario.Name, "error", err)
		checkCompileError(scenario.Expect, err, result)
		evaluateAssertions(tree, nil, scenario.Assertions, result)
		return result, nil
	}
	result.Expr = p.String()

	for i, rec := range recs {
		ok, err := p.Eval(rec)
		if err != nil {
			if scenario.Expect.Error == "evaluation" {
				return result, nil
			}
			result.AddError(fmt.Sprintf("record %d: evaluation failed: %v", i, err))
			return result, nil
		}
		if ok {
			result.Matched = append(result.Matched, keyOf(rec))
		}
	}

	if scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected %s error, query compiled to %s", scenario.Expect.Error, result.Expr))
	} else if !slices.Equal(scenario.Expect.Match, result.Matched) {
		result.AddError(fmt.Sprintf("expected match %v, got %v", scenario.Expect.Match, result.Matched))
	}

	if scenario.Remote {
		remote, err := h.remote(ctx, p, recs, keyOf)
		if err != nil {
			return nil, err
		}
		result.RemoteMatched = remote
		if !slices.Equal(result.Matched, remote) {
			result.AddError(fmt.Sprintf("store selected %v, in-memory selected %v", remote, result.Matched))
		}
	}

	evaluateAssertions(tree, p, scenario.Assertions, result)

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"matched", len(result.Matched),
	)
	return result, nil
}

// records decodes the scenario records, falling back to the shared
// fixtures for the person shape.
func (h *Harness) records(scenario *Scenario, shape reflect.Type) ([]any, error) {
	if len(scenario.Records) == 0 && shape == reflect.TypeOf(sample.Person{}) {
		people := sample.People()
		recs := make([]any, len(people))
		for i, p := range people {
			recs[i] = p
		}
		return recs, nil
	}
	recs, err := records.Decode(scenario.Records, shape)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return recs, nil
}

// remote runs the data form against an in-memory store holding recs.
func (h *Harness) remote(ctx context.Context, p *predicate.Predicate, recs []any, keyOf func(any) string) ([]string, error) {
	indexes, err := filtering.SelectStored(ctx, p, recs)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(indexes))
	for i, idx := range indexes {
		keys[i] = keyOf(recs[idx])
	}
	return keys, nil
}

// keyFunc returns a function rendering the identifying member of a record.
func keyFunc(key string, shape reflect.Type) (func(any) string, error) {
	if key == "" {
		key = DefaultKey
	}
	return records.Key(key, shape)
}

func checkCompileError(expect ExpectClause, err error, result *Result) {
	if expect.Error == "" {
		result.AddError(fmt.Sprintf("compile failed: %v", err))
		return
	}
	if !errorKinds[expect.Error](err) {
		result.AddError(fmt.Sprintf("expected %s error, got: %v", expect.Error, err))
	}
}
