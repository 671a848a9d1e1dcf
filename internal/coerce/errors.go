package coerce

import (
	"fmt"
	"reflect"

	"github.com/roach88/sieve/internal/errors"
)

// Kind classifies a coercion failure.
type Kind int

const (
	// KindFormat: the value has the right shape but is malformed text,
	// e.g. "abc" for an int or a 36-char string that is not a UUID.
	KindFormat Kind = iota + 1
	// KindInvalidOperation: the value's shape cannot denote the target at
	// all, e.g. a 10-char string for a UUID.
	KindInvalidOperation
	// KindInvalidCast: no conversion exists between the value's type and the
	// target type.
	KindInvalidCast
)

// Sentinels matched by errors.Is against *Error.
var (
	ErrFormat           = errors.New("format error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidCast      = errors.New("invalid cast")
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindInvalidOperation:
		return "invalid operation"
	case KindInvalidCast:
		return "invalid cast"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindFormat:
		return ErrFormat
	case KindInvalidOperation:
		return ErrInvalidOperation
	case KindInvalidCast:
		return ErrInvalidCast
	default:
		return nil
	}
}

// Error reports a value that could not be coerced to a target type.
type Error struct {
	Kind   Kind
	Value  any
	Target reflect.Type
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cannot coerce %#v (%T) to %s: %s", e.Value, e.Value, e.Target, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewError builds a coercion error of the given kind.
func NewError(kind Kind, value any, target reflect.Type, cause error) *Error {
	return &Error{Kind: kind, Value: value, Target: target, Err: cause}
}
