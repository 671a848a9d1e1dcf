// Package filtering applies compiled filters to data: in memory over slices,
// or remotely by translating the data form to SQL and running it against a
// store.
package filtering

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/sieve/internal/predicate"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/querysql"
	"github.com/roach88/sieve/internal/store"
)

// Slice returns the items p accepts, in their original order. It stops at the
// first evaluation error.
func Slice[T any](items []T, p *predicate.Predicate) ([]T, error) {
	out := make([]T, 0, len(items))
	for i := range items {
		ok, err := p.Eval(&items[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if ok {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// Selector runs parameterized queries. *store.Store implements it.
type Selector interface {
	Select(ctx context.Context, query string, params ...any) ([]map[string]any, error)
}

// Remote runs expr as a WHERE clause over table and returns the matching
// rows in insertion order.
func Remote(ctx context.Context, st Selector, table string, expr queryir.Predicate) ([]map[string]any, error) {
	q := queryir.Select{From: table, Filter: expr}

	if res := queryir.Validate(expr); !res.IsPortable {
		slog.Debug("filter relies on store extensions", "table", table, "warnings", res.Warnings)
	}

	sql, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile remote filter: %w", err)
	}
	slog.Debug("running remote filter", "table", table, "sql", sql, "params", len(params))

	rows, err := st.Select(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("remote filter on %s: %w", table, err)
	}
	return rows, nil
}

// StoredTable is the table SelectStored loads records into.
const StoredTable = "records"

// SelectStored loads recs into a fresh in-memory store, runs p's data form
// there and returns the indexes of the selected records in ascending order.
// Every record must have p's shape. The store bounds REGEXP matches with p's
// regex timeout.
func SelectStored(ctx context.Context, p *predicate.Predicate, recs []any) ([]int, error) {
	st, err := store.Open(":memory:", store.WithRegexTimeout(p.RegexTimeout()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.CreateTable(ctx, StoredTable, p.Shape()); err != nil {
		return nil, err
	}
	if err := st.Insert(ctx, StoredTable, recs...); err != nil {
		return nil, err
	}

	rows, err := Remote(ctx, st, StoredTable, p.Expr())
	if err != nil {
		return nil, err
	}

	indexes := make([]int, 0, len(rows))
	for _, row := range rows {
		seq, ok := row[store.SeqColumn].(int64)
		if !ok || seq < 1 || int(seq) > len(recs) {
			return nil, fmt.Errorf("store row without a valid %s: %v", store.SeqColumn, row[store.SeqColumn])
		}
		indexes = append(indexes, int(seq-1))
	}
	return indexes, nil
}
