// Package coerce converts filter literals to the Go types of record members.
//
// Literals arrive as text from query strings, or as arbitrary Go values from
// programmatic callers and record files. To returns a value of the target
// type or a *Error whose Kind separates malformed text (KindFormat) from
// values of the wrong shape (KindInvalidOperation, KindInvalidCast).
package coerce

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/xhit/go-str2duration/v2"
)

// maxEnumOrdinal bounds the name scan for integer enums that only
// implement fmt.Stringer.
const maxEnumOrdinal = 256

var (
	timeType        = reflect.TypeOf(time.Time{})
	durationType    = reflect.TypeOf(time.Duration(0))
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	uuidType        = reflect.TypeOf(uuid.UUID{})
	stringerType    = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// To converts raw to target with pointers stripped. nil (or a nil pointer)
// yields (nil, nil); callers decide what null means for their operator.
func To(raw any, target reflect.Type) (any, error) {
	if target == nil {
		return nil, NewError(KindInvalidOperation, raw, target, nil)
	}
	t := deref(target)

	if raw == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	if rv.Type() == t {
		return rv.Interface(), nil
	}
	if t.Kind() == reflect.Interface {
		if rv.Type().Implements(t) {
			return rv.Interface(), nil
		}
		return nil, NewError(KindInvalidCast, raw, target, nil)
	}
	if t == uuidType {
		return toUUID(rv, raw, target)
	}
	if rv.Kind() == reflect.String {
		return fromText(rv.String(), raw, target, t)
	}
	return fromBoxed(rv, raw, target, t)
}

// Value is To returning a reflect.Value of the target type. nil stays invalid.
func Value(raw any, target reflect.Type) (reflect.Value, error) {
	v, err := To(raw, target)
	if err != nil || v == nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

// Nullable reports whether a member of type t can hold null.
func Nullable(t reflect.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func toUUID(rv reflect.Value, raw any, target reflect.Type) (any, error) {
	switch {
	case rv.Kind() == reflect.String:
		s := rv.String()
		if len(s) != 36 {
			return nil, NewError(KindInvalidOperation, raw, target, fmt.Errorf("expected 36 characters, got %d", len(s)))
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, NewError(KindFormat, raw, target, err)
		}
		return id, nil
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		if rv.Len() != 16 {
			return nil, NewError(KindInvalidOperation, raw, target, fmt.Errorf("expected 16 bytes, got %d", rv.Len()))
		}
		id, err := uuid.FromBytes(rv.Bytes())
		if err != nil {
			return nil, NewError(KindFormat, raw, target, err)
		}
		return id, nil
	case rv.Type().ConvertibleTo(uuidType):
		return rv.Convert(uuidType).Interface(), nil
	default:
		return nil, NewError(KindInvalidOperation, raw, target, nil)
	}
}

// fromText parses the canonical text form of t.
func fromText(s string, raw any, target, t reflect.Type) (any, error) {
	formatErr := func(err error) (any, error) {
		return nil, NewError(KindFormat, raw, target, err)
	}

	if t.Kind() == reflect.String {
		return reflect.ValueOf(s).Convert(t).Interface(), nil
	}
	text := strings.TrimSpace(s)

	switch t {
	case timeType:
		ts, err := cast.ToTimeE(text)
		if err != nil {
			return formatErr(err)
		}
		return ts, nil
	case durationType:
		d, err := parseDuration(text)
		if err != nil {
			return formatErr(err)
		}
		return d, nil
	case decimalType:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return formatErr(err)
		}
		return d, nil
	}

	if reflect.PointerTo(t).Implements(unmarshalerType) {
		ptr := reflect.New(t)
		err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text))
		if err == nil {
			return ptr.Elem().Interface(), nil
		}
		if !isInteger(t.Kind()) {
			return formatErr(err)
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return formatErr(err)
		}
		return reflect.ValueOf(b).Convert(t).Interface(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			if v, ok := enumByName(text, t); ok {
				return v.Interface(), nil
			}
			return formatErr(err)
		}
		v := reflect.New(t).Elem()
		v.SetInt(n)
		return v.Interface(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(text, 10, t.Bits())
		if err != nil {
			if v, ok := enumByName(text, t); ok {
				return v.Interface(), nil
			}
			return formatErr(err)
		}
		v := reflect.New(t).Elem()
		v.SetUint(n)
		return v.Interface(), nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, t.Bits())
		if err != nil {
			return formatErr(err)
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		return v.Interface(), nil
	}

	return nil, NewError(KindInvalidCast, raw, target, nil)
}

// parseDuration accepts Go durations extended with days and weeks ("1d12h"),
// or a bare integer count of nanoseconds.
func parseDuration(text string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(text)
	if err == nil {
		return d, nil
	}
	if n, nerr := strconv.ParseInt(text, 10, 64); nerr == nil {
		return time.Duration(n), nil
	}
	return 0, err
}

// enumByName finds the ordinal whose String() equals name, ignoring case.
func enumByName(name string, t reflect.Type) (reflect.Value, bool) {
	if !t.Implements(stringerType) {
		return reflect.Value{}, false
	}
	v := reflect.New(t).Elem()
	unsigned := !isSigned(t.Kind())
	for i := 0; i < maxEnumOrdinal; i++ {
		if unsigned {
			if v.OverflowUint(uint64(i)) {
				break
			}
			v.SetUint(uint64(i))
		} else {
			if v.OverflowInt(int64(i)) {
				break
			}
			v.SetInt(int64(i))
		}
		if strings.EqualFold(v.Interface().(fmt.Stringer).String(), name) {
			return v, true
		}
	}
	return reflect.Value{}, false
}

// fromBoxed converts non-text values through the cast bridge, then
// reflect conversion to the named target type.
func fromBoxed(rv reflect.Value, raw any, target, t reflect.Type) (any, error) {
	castErr := func(err error) (any, error) {
		return nil, NewError(KindInvalidCast, raw, target, err)
	}
	v := rv.Interface()

	switch t {
	case timeType:
		ts, err := cast.ToTimeE(v)
		if err != nil {
			return castErr(err)
		}
		return ts, nil
	case durationType:
		d, err := cast.ToDurationE(v)
		if err != nil {
			return castErr(err)
		}
		return d, nil
	case decimalType:
		return toDecimal(rv, raw, target)
	}

	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 && t.Kind() == reflect.String {
		return reflect.ValueOf(string(rv.Bytes())).Convert(t).Interface(), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return castErr(err)
		}
		out.SetString(s)
		return out.Interface(), nil

	case reflect.Bool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return castErr(err)
		}
		out.SetBool(b)
		return out.Interface(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !isNumeric(rv.Kind()) && rv.Kind() != reflect.Bool {
			break
		}
		n, err := cast.ToInt64E(v)
		if err != nil {
			return castErr(err)
		}
		if out.OverflowInt(n) {
			return castErr(fmt.Errorf("%d overflows %s", n, t))
		}
		out.SetInt(n)
		return out.Interface(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !isNumeric(rv.Kind()) && rv.Kind() != reflect.Bool {
			break
		}
		n, err := cast.ToUint64E(v)
		if err != nil {
			return castErr(err)
		}
		if out.OverflowUint(n) {
			return castErr(fmt.Errorf("%d overflows %s", n, t))
		}
		out.SetUint(n)
		return out.Interface(), nil

	case reflect.Float32, reflect.Float64:
		if !isNumeric(rv.Kind()) {
			break
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return castErr(err)
		}
		out.SetFloat(f)
		return out.Interface(), nil
	}

	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface(), nil
	}
	return castErr(nil)
}

func toDecimal(rv reflect.Value, raw any, target reflect.Type) (any, error) {
	switch {
	case isSigned(rv.Kind()):
		return decimal.NewFromInt(rv.Int()), nil
	case isInteger(rv.Kind()):
		return decimal.NewFromUint64(rv.Uint()), nil
	case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
		return decimal.NewFromFloat(rv.Float()), nil
	}
	s, err := cast.ToStringE(rv.Interface())
	if err != nil {
		return nil, NewError(KindInvalidCast, raw, target, err)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, NewError(KindInvalidCast, raw, target, err)
	}
	return d, nil
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return isSigned(k)
	}
}

func isNumeric(k reflect.Kind) bool {
	return isInteger(k) || k == reflect.Float32 || k == reflect.Float64
}
