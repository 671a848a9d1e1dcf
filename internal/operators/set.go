package operators

import (
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// SetMembership handles In and NotIn. Every member is coerced; null
// members stay null and match absent members.
type SetMembership struct{}

func (SetMembership) Name() string { return "set-membership" }

func (SetMembership) CanHandle(op condition.Operator) bool {
	return op == condition.In || op == condition.NotIn
}

func (SetMembership) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	negate := cond.Operator == condition.NotIn
	if len(cond.Values) == 0 {
		if negate {
			return queryir.True, nil
		}
		return queryir.False, nil
	}

	values := make([]any, len(cond.Values))
	for i, raw := range cond.Values {
		v, err := literal(acc, raw)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return &queryir.In{Field: acc.Path, Values: values, Negate: negate}, nil
}
