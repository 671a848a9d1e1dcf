// Package records decodes YAML record sets into values of a Go shape.
//
// A record file is either a YAML list of mappings or a mapping with a
// "records" list. Field names follow the shape's yaml tags. Text values are
// accepted for times (RFC 3339), durations ("90m"), decimals and any type
// implementing encoding.TextUnmarshaler (UUIDs, text enums).
package records

import (
	"bytes"
	"fmt"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/resolve"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// Load reads a record file and decodes it into values of shape.
func Load(path string, shape reflect.Type) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	return Parse(data, shape)
}

// Parse decodes YAML record data into values of shape.
func Parse(data []byte, shape reflect.Type) ([]any, error) {
	var raw any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if m, ok := raw.(map[string]any); ok {
		list, ok := m["records"]
		if !ok {
			return nil, fmt.Errorf("expected a list of records or a \"records\" key")
		}
		raw = list
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of records, got %T", raw)
	}
	return Decode(list, shape)
}

// Decode converts generic records (as produced by a YAML or JSON decoder)
// into values of shape. Each element of the result has type shape.
func Decode(list []any, shape reflect.Type) ([]any, error) {
	if shape == nil {
		return nil, fmt.Errorf("record shape is nil")
	}
	out := make([]any, 0, len(list))
	for i, item := range list {
		target := reflect.New(shape)
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				decimalHook,
				mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: false,
			TagName:          "yaml",
			Result:           target.Interface(),
		})
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := dec.Decode(item); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, target.Elem().Interface())
	}
	return out, nil
}

// decimalHook accepts numbers and text for decimal fields.
func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType || from == decimalType {
		return data, nil
	}
	s, err := cast.ToStringE(data)
	if err != nil {
		return nil, fmt.Errorf("decimal: %w", err)
	}
	return decimal.NewFromString(s)
}

// Key returns a function rendering the member at path of a record of shape
// as text. Absent members render as "null".
func Key(path string, shape reflect.Type) (func(any) string, error) {
	acc, ok := resolve.Resolve(path, shape)
	if !ok {
		return nil, fmt.Errorf("key %q does not resolve on %v", path, shape)
	}
	return func(rec any) string {
		v, ok := acc.Get(rec)
		if !ok {
			return "null"
		}
		return coerce.Text(v.Interface())
	}, nil
}
