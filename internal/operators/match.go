package operators

import (
	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// StringMatch handles Contains, NotContains, StartsWith and EndsWith.
//
// Text members are tested on their canonical text. Collection members are
// tested element-wise with the literal coerced to the element type:
// Contains is membership, StartsWith and EndsWith look at the first and
// last element.
type StringMatch struct{}

var matchKinds = map[condition.Operator]queryir.MatchKind{
	condition.Contains:    queryir.Contains,
	condition.NotContains: queryir.Contains,
	condition.StartsWith:  queryir.Prefix,
	condition.EndsWith:    queryir.Suffix,
}

func (StringMatch) Name() string { return "string-match" }

func (StringMatch) CanHandle(op condition.Operator) bool {
	_, ok := matchKinds[op]
	return ok
}

func (StringMatch) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	m := &queryir.Match{
		Field:  acc.Path,
		Kind:   matchKinds[cond.Operator],
		Negate: cond.Operator == condition.NotContains,
	}

	raw := first(cond)
	if elem, ok := collection(acc); ok {
		value, err := coerce.To(raw, elem)
		if err != nil {
			return nil, err
		}
		m.Value = value
		m.Collection = true
		return m, nil
	}

	m.Value = coerce.Text(raw)
	return m, nil
}
