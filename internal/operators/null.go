package operators

import (
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// NullCheck handles IsNull and IsNotNull. Values are ignored.
type NullCheck struct{}

func (NullCheck) Name() string { return "null-check" }

func (NullCheck) CanHandle(op condition.Operator) bool {
	return op == condition.IsNull || op == condition.IsNotNull
}

func (NullCheck) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	return &queryir.IsNull{Field: acc.Path, Negate: cond.Operator == condition.IsNotNull}, nil
}
