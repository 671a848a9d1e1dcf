package store

import (
	"database/sql/driver"
	"encoding"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SeqColumn is the insertion-order primary key present in every table.
const SeqColumn = "sieve_seq"

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	textType    = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// ColumnName maps a member path to its column: lower case, with "." replaced
// by "_". "Address.City" is stored in "address_city".
func ColumnName(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, ".", "_"))
}

// Column is one stored member of a shape.
type Column struct {
	// Name is the SQL column name.
	Name string `json:"name"`
	// Path is the dotted Go member path.
	Path string `json:"path"`
	// Type is the declared SQL type.
	Type string `json:"type"`
	// JSON reports whether values are stored as JSON text.
	JSON bool `json:"json,omitempty"`

	index [][]int
}

// Columns returns the column layout for records of shape, in field order.
func Columns(shape reflect.Type) []Column {
	for shape.Kind() == reflect.Pointer {
		shape = shape.Elem()
	}
	if shape.Kind() != reflect.Struct {
		return nil
	}
	return appendColumns(nil, shape, nil, nil)
}

func appendColumns(cols []Column, t reflect.Type, prefix []string, index [][]int) []Column {
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		path := append(append([]string(nil), prefix...), f.Name)
		idx := append(append([][]int(nil), index...), f.Index)

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && !scalarStruct(ft) {
			cols = appendColumns(cols, ft, path, idx)
			continue
		}

		sqlType, isJSON := columnType(ft)
		cols = append(cols, Column{
			Name:  ColumnName(strings.Join(path, ".")),
			Path:  strings.Join(path, "."),
			Type:  sqlType,
			JSON:  isJSON,
			index: idx,
		})
	}
	return cols
}

func scalarStruct(t reflect.Type) bool {
	return t == timeType ||
		t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) ||
		t.Implements(textType) || reflect.PointerTo(t).Implements(textType)
}

func columnType(t reflect.Type) (string, bool) {
	switch {
	case t == timeType:
		return "TIMESTAMP", false
	case t == decimalType:
		return "NUMERIC", false
	case t.Implements(valuerType):
		return "TEXT", false
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "INTEGER", false
	case reflect.Float32, reflect.Float64:
		return "REAL", false
	case reflect.String:
		return "TEXT", false
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "BLOB", false
		}
		return "TEXT", true
	default:
		return "TEXT", true
	}
}

// value reads the column from a struct value. A nil pointer anywhere on the
// way yields (nil, false).
func (c Column) value(record reflect.Value) (reflect.Value, bool) {
	v := record
	for _, idx := range c.index {
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		f, err := v.FieldByIndexErr(idx)
		if err != nil {
			return reflect.Value{}, false
		}
		v = f
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}
