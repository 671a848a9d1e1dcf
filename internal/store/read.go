package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Select runs a query and returns each row as a column → value map, in the
// order the query yields them. Returns an empty slice (not nil) when no rows
// match.
func (s *Store) Select(ctx context.Context, query string, params ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("select columns: %w", err)
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, name := range cols {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[name] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// Table is a catalog entry.
type Table struct {
	Name    string
	Shape   string
	Columns []Column
}

// Tables returns the catalog ordered by name.
func (s *Store) Tables(ctx context.Context) ([]Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, shape, columns
		FROM sieve_catalog
		ORDER BY name ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	tables := []Table{}
	for rows.Next() {
		var (
			t      Table
			layout string
		)
		if err := rows.Scan(&t.Name, &t.Shape, &layout); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		if err := json.Unmarshal([]byte(layout), &t.Columns); err != nil {
			return nil, fmt.Errorf("decode columns of %s: %w", t.Name, err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}

	return tables, nil
}
