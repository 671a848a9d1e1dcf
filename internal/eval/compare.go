package eval

import (
	"cmp"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/sieve/internal/coerce"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// align returns lit as a value of v's type, coercing when the types differ.
func align(v reflect.Value, lit any) (reflect.Value, bool) {
	lv := reflect.ValueOf(lit)
	for lv.Kind() == reflect.Pointer && !lv.IsNil() {
		lv = lv.Elem()
	}
	if lv.IsValid() && lv.Type() == v.Type() {
		return lv, true
	}
	cv, err := coerce.Value(lit, v.Type())
	if err != nil || !cv.IsValid() {
		return reflect.Value{}, false
	}
	return cv, true
}

// Equal reports whether the member value v equals lit.
func Equal(v reflect.Value, lit any) bool {
	lv, ok := align(v, lit)
	if !ok {
		return false
	}
	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time).Equal(lv.Interface().(time.Time))
	case decimalType:
		return v.Interface().(decimal.Decimal).Equal(lv.Interface().(decimal.Decimal))
	}
	if v.Type().Comparable() {
		return v.Interface() == lv.Interface()
	}
	return reflect.DeepEqual(v.Interface(), lv.Interface())
}

// Compare orders the member value v against lit. It reports false when the
// two cannot be ordered.
func Compare(v reflect.Value, lit any) (int, bool) {
	lv, ok := align(v, lit)
	if !ok {
		return 0, false
	}
	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time).Compare(lv.Interface().(time.Time)), true
	case decimalType:
		return v.Interface().(decimal.Decimal).Cmp(lv.Interface().(decimal.Decimal)), true
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(v.Int(), lv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(v.Uint(), lv.Uint()), true
	case reflect.Float32, reflect.Float64:
		a, b := v.Float(), lv.Float()
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0, false
		}
		return cmp.Compare(a, b), true
	case reflect.String:
		return strings.Compare(v.String(), lv.String()), true
	default:
		return 0, false
	}
}
