package operators

import (
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// Equality handles EqualTo and NotEqualTo.
//
// A null literal against a member that can never be absent is decided at
// build time: EqualTo is always false and NotEqualTo always true.
type Equality struct{}

func (Equality) Name() string { return "equality" }

func (Equality) CanHandle(op condition.Operator) bool {
	return op == condition.EqualTo || op == condition.NotEqualTo
}

func (Equality) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	op := queryir.Eq
	if cond.Operator == condition.NotEqualTo {
		op = queryir.Ne
	}

	value, err := literal(acc, first(cond))
	if err != nil {
		return nil, err
	}
	if value == nil && !acc.Nullable {
		if op == queryir.Eq {
			return queryir.False, nil
		}
		return queryir.True, nil
	}
	return &queryir.Compare{Field: acc.Path, Op: op, Value: value}, nil
}
