package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// CreateTable creates a table for records of shape and records its layout in
// the catalog. Creating an existing table is a no-op.
func (s *Store) CreateTable(ctx context.Context, name string, shape reflect.Type) error {
	if !validIdentifier(name) {
		return fmt.Errorf("create table: invalid table name %q", name)
	}
	cols := Columns(shape)
	if len(cols) == 0 {
		return fmt.Errorf("create table %s: shape %v has no exported fields", name, shape)
	}

	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, SeqColumn+" INTEGER PRIMARY KEY")
	for _, c := range cols {
		defs = append(defs, c.Name+" "+c.Type)
	}

	layout, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sieve_catalog (name, shape, columns)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, shape.String(), string(layout)); err != nil {
		return fmt.Errorf("create table %s: catalog: %w", name, err)
	}

	return tx.Commit()
}

// Insert appends records to the table in one transaction. Each record must be
// a value of the table's shape or a pointer to one.
func (s *Store) Insert(ctx context.Context, table string, records ...any) error {
	if !validIdentifier(table) {
		return fmt.Errorf("insert: invalid table name %q", table)
	}
	if len(records) == 0 {
		return nil
	}

	shape := reflect.TypeOf(records[0])
	cols := Columns(shape)
	if len(cols) == 0 {
		return fmt.Errorf("insert into %s: shape %v has no exported fields", table, shape)
	}

	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(marks, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	defer tx.Rollback()

	for i, record := range records {
		rv := reflect.ValueOf(record)
		if rv.Type() != shape {
			return fmt.Errorf("insert into %s: record %d is %v, want %v", table, i, rv.Type(), shape)
		}
		args := make([]any, len(cols))
		for j, c := range cols {
			if args[j], err = columnValue(c, rv); err != nil {
				return fmt.Errorf("insert into %s: record %d column %s: %w", table, i, c.Name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert into %s: record %d: %w", table, i, err)
		}
	}

	return tx.Commit()
}

// columnValue converts a member to a driver argument. Absent members and
// empty JSON members are stored as NULL.
func columnValue(c Column, record reflect.Value) (any, error) {
	v, ok := c.value(record)
	if !ok {
		return nil, nil
	}
	if c.JSON {
		switch v.Kind() {
		case reflect.Slice, reflect.Map, reflect.Interface:
			if v.IsNil() {
				return nil, nil
			}
		}
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	if valuer, ok := v.Interface().(driver.Valuer); ok {
		return valuer.Value()
	}
	return Param(v.Interface()), nil
}

// Param converts a Go value to the form it is stored in, so literals compare
// against stored columns the way the members themselves would. Named numeric
// and string types become their underlying kind; values the driver handles
// natively pass through.
func Param(v any) any {
	if v == nil {
		return nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil {
			return dv
		}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Param(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	default:
		return v
	}
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
