package operators

import (
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// Relational handles the ordered comparisons. The member type must be
// orderable; a null literal never compares and yields false.
type Relational struct{}

var relationalOps = map[condition.Operator]queryir.CompareOp{
	condition.GreaterThan:          queryir.Gt,
	condition.GreaterThanOrEqualTo: queryir.Gte,
	condition.LessThan:             queryir.Lt,
	condition.LessThanOrEqualTo:    queryir.Lte,
}

func (Relational) Name() string { return "relational" }

func (Relational) CanHandle(op condition.Operator) bool {
	_, ok := relationalOps[op]
	return ok
}

func (Relational) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	if err := requireOrderable(acc, cond); err != nil {
		return nil, err
	}
	value, err := literal(acc, first(cond))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return queryir.False, nil
	}
	return &queryir.Compare{Field: acc.Path, Op: relationalOps[cond.Operator], Value: value}, nil
}
