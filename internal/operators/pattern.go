package operators

import (
	"strings"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// Pattern handles Regex. Parsed conditions carry the pattern as a single
// value; several values are joined with ",". Absent values contribute no
// text, so a lone nil is the empty pattern, which matches any present
// subject. The pattern is not compiled here.
type Pattern struct{}

func (Pattern) Name() string { return "pattern" }

func (Pattern) CanHandle(op condition.Operator) bool {
	return op == condition.Regex
}

func (Pattern) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	parts := make([]string, len(cond.Values))
	for i, v := range cond.Values {
		if v == nil {
			continue
		}
		parts[i] = coerce.Text(v)
	}
	return &queryir.Regex{Field: acc.Path, Pattern: strings.Join(parts, ",")}, nil
}
