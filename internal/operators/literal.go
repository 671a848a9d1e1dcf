package operators

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/resolve"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// first returns the first value of cond, or nil when there is none.
// Single-valued operators ignore the rest.
func first(cond *condition.Condition) any {
	if len(cond.Values) == 0 {
		return nil
	}
	return cond.Values[0]
}

// literal coerces v to the member type. Dynamic members keep v as given;
// the evaluator coerces it against the runtime value.
func literal(acc *resolve.Accessor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return coerce.To(v, acc.Type)
}

// orderable reports whether members of type t have a total order.
func orderable(t reflect.Type) bool {
	if t == timeType || t == decimalType {
		return true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Interface:
		return true
	default:
		return false
	}
}

func requireOrderable(acc *resolve.Accessor, cond *condition.Condition) error {
	if orderable(acc.Type) {
		return nil
	}
	return coerce.NewError(coerce.KindInvalidOperation, first(cond), acc.Type, errNotOrderable)
}

// collection reports whether the member is a list other than a byte slice,
// returning its element type.
func collection(acc *resolve.Accessor) (reflect.Type, bool) {
	elem, ok := acc.ElemType()
	if !ok || elem.Kind() == reflect.Uint8 {
		return nil, false
	}
	return elem, true
}
