package operators

import (
	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// Range handles Between and NotBetween with exclusive bounds.
//
// Fewer than two values make the condition false for every record; values
// past the second are ignored. A null bound is an error.
type Range struct{}

func (Range) Name() string { return "range" }

func (Range) CanHandle(op condition.Operator) bool {
	return op == condition.Between || op == condition.NotBetween
}

func (Range) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	if len(cond.Values) < 2 {
		return queryir.False, nil
	}
	if err := requireOrderable(acc, cond); err != nil {
		return nil, err
	}

	low, err := literal(acc, cond.Values[0])
	if err != nil {
		return nil, err
	}
	high, err := literal(acc, cond.Values[1])
	if err != nil {
		return nil, err
	}
	if low == nil || high == nil {
		return nil, coerce.NewError(coerce.KindInvalidOperation, cond.Values[:2], acc.Type, errBothRequired)
	}

	return &queryir.Between{
		Field:  acc.Path,
		Low:    low,
		High:   high,
		Negate: cond.Operator == condition.NotBetween,
	}, nil
}
