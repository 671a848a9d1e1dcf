package operators

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/errors"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
	"github.com/roach88/sieve/internal/sample"
)

var personType = reflect.TypeOf(sample.Person{})

func build(t *testing.T, path string, op condition.Operator, values ...any) (queryir.Predicate, error) {
	t.Helper()
	acc, ok := resolve.Resolve(path, personType)
	require.True(t, ok, "path %q", path)
	return DefaultRegistry().Build(acc, &condition.Condition{Name: path + "-0", Path: path, Operator: op, Values: values})
}

func mustBuild(t *testing.T, path string, op condition.Operator, values ...any) queryir.Predicate {
	t.Helper()
	p, err := build(t, path, op, values...)
	require.NoError(t, err)
	return p
}

func TestRegistry_DispatchOrder(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{"equality", "relational", "string-match", "set-membership", "range", "null-check", "pattern"}, r.Names())

	for op := condition.EqualTo; op <= condition.Regex; op++ {
		unit, ok := r.Lookup(op)
		require.True(t, ok, op.String())
		assert.True(t, unit.CanHandle(op))
	}
}

func TestRegistry_EveryOperatorHasExactlyOneUnit(t *testing.T) {
	units := []Compiler{Equality{}, Relational{}, StringMatch{}, SetMembership{}, Range{}, NullCheck{}, Pattern{}}
	for op := condition.EqualTo; op <= condition.Regex; op++ {
		n := 0
		for _, u := range units {
			if u.CanHandle(op) {
				n++
			}
		}
		assert.Equal(t, 1, n, op.String())
	}
}

func TestRegistry_UnsupportedOperator(t *testing.T) {
	for _, op := range []condition.Operator{condition.None, condition.Operator(99), condition.Operator(-3)} {
		_, err := build(t, "age", op, "1")
		require.Error(t, err)

		var unsupported *UnsupportedOperatorError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, op, unsupported.Operator)
		assert.Equal(t, RegistryName, unsupported.Compiler)
		assert.Equal(t, "age-0", unsupported.Condition)
		assert.Contains(t, err.Error(), op.String())
		assert.Contains(t, err.Error(), RegistryName)
	}
}

func TestRegistry_RestrictedUnits(t *testing.T) {
	r := NewRegistry(Equality{})
	acc, ok := resolve.Resolve("age", personType)
	require.True(t, ok)

	_, err := r.Build(acc, &condition.Condition{Name: "age-0", Path: "age", Operator: condition.GreaterThan, Values: []any{"1"}})

	var unsupported *UnsupportedOperatorError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, condition.GreaterThan, unsupported.Operator)
}

func TestEquality(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		op     condition.Operator
		values []any
		want   queryir.Predicate
	}{
		{"coerced int", "age", condition.EqualTo, []any{"36"}, &queryir.Compare{Field: "Age", Op: queryir.Eq, Value: 36}},
		{"not equal", "name", condition.NotEqualTo, []any{"Ada"}, &queryir.Compare{Field: "Name", Op: queryir.Ne, Value: "Ada"}},
		{"extra values ignored", "age", condition.EqualTo, []any{"1", "2"}, &queryir.Compare{Field: "Age", Op: queryir.Eq, Value: 1}},
		{"enum by name", "status", condition.EqualTo, []any{"active"}, &queryir.Compare{Field: "Status", Op: queryir.Eq, Value: sample.StatusActive}},
		{"null on non-nullable", "age", condition.EqualTo, []any{nil}, queryir.False},
		{"not null on non-nullable", "age", condition.NotEqualTo, []any{nil}, queryir.True},
		{"no values on non-nullable", "age", condition.EqualTo, nil, queryir.False},
		{"null on pointer", "rank", condition.EqualTo, []any{nil}, &queryir.Compare{Field: "Rank", Op: queryir.Eq}},
		{"null through nullable chain", "address.city", condition.EqualTo, []any{nil}, &queryir.Compare{Field: "Address.City", Op: queryir.Eq}},
		{"pointer member coerced to element", "rank", condition.EqualTo, []any{"1"}, &queryir.Compare{Field: "Rank", Op: queryir.Eq, Value: 1}},
		{"dynamic keeps literal", "extra", condition.EqualTo, []any{"vip"}, &queryir.Compare{Field: "Extra", Op: queryir.Eq, Value: "vip"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustBuild(t, tc.path, tc.op, tc.values...))
		})
	}
}

func TestEquality_FormatError(t *testing.T) {
	_, err := build(t, "age", condition.EqualTo, "old")
	require.Error(t, err)
	assert.ErrorIs(t, err, coerce.ErrFormat)
}

func TestRelational(t *testing.T) {
	when := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		path   string
		op     condition.Operator
		values []any
		want   queryir.Predicate
	}{
		{"gt", "score", condition.GreaterThan, []any{"80"}, &queryir.Compare{Field: "Score", Op: queryir.Gt, Value: 80.0}},
		{"gte", "age", condition.GreaterThanOrEqualTo, []any{"18"}, &queryir.Compare{Field: "Age", Op: queryir.Gte, Value: 18}},
		{"lt time", "joined", condition.LessThan, []any{"2022-01-01T00:00:00Z"}, &queryir.Compare{Field: "Joined", Op: queryir.Lt, Value: when}},
		{"lte duration", "session", condition.LessThanOrEqualTo, []any{"1h"}, &queryir.Compare{Field: "Session", Op: queryir.Lte, Value: time.Hour}},
		{"text", "name", condition.GreaterThan, []any{"B"}, &queryir.Compare{Field: "Name", Op: queryir.Gt, Value: "B"}},
		{"null literal", "age", condition.GreaterThan, []any{nil}, queryir.False},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mustBuild(t, tc.path, tc.op, tc.values...)
			if want, ok := tc.want.(*queryir.Compare); ok {
				if wt, isTime := want.Value.(time.Time); isTime {
					cmp := got.(*queryir.Compare)
					assert.True(t, wt.Equal(cmp.Value.(time.Time)))
					return
				}
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRelational_Decimal(t *testing.T) {
	got := mustBuild(t, "balance", condition.GreaterThan, "100.5")

	cmp := got.(*queryir.Compare)
	assert.True(t, decimal.RequireFromString("100.5").Equal(cmp.Value.(decimal.Decimal)))
}

func TestRelational_NotOrderable(t *testing.T) {
	for _, path := range []string{"active", "id", "tags", "address", "labels"} {
		_, err := build(t, path, condition.GreaterThan, "1")
		require.Error(t, err, path)
		assert.ErrorIs(t, err, coerce.ErrInvalidOperation, path)
	}
}

func TestStringMatch(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		op     condition.Operator
		values []any
		want   queryir.Predicate
	}{
		{"contains", "name", condition.Contains, []any{"da"}, &queryir.Match{Field: "Name", Kind: queryir.Contains, Value: "da"}},
		{"not contains", "name", condition.NotContains, []any{"da"}, &queryir.Match{Field: "Name", Kind: queryir.Contains, Value: "da", Negate: true}},
		{"starts with", "address.city", condition.StartsWith, []any{"Ber"}, &queryir.Match{Field: "Address.City", Kind: queryir.Prefix, Value: "Ber"}},
		{"ends with", "name", condition.EndsWith, []any{"a"}, &queryir.Match{Field: "Name", Kind: queryir.Suffix, Value: "a"}},
		{"non-text subject uses text", "age", condition.Contains, []any{"6"}, &queryir.Match{Field: "Age", Kind: queryir.Contains, Value: "6"}},
		{"null literal is empty text", "name", condition.Contains, []any{nil}, &queryir.Match{Field: "Name", Kind: queryir.Contains, Value: ""}},
		{"collection membership", "tags", condition.Contains, []any{"go"}, &queryir.Match{Field: "Tags", Kind: queryir.Contains, Value: "go", Collection: true}},
		{"collection element coerced", "scores", condition.StartsWith, []any{"90"}, &queryir.Match{Field: "Scores", Kind: queryir.Prefix, Value: 90, Collection: true}},
		{"collection last", "scores", condition.EndsWith, []any{"95"}, &queryir.Match{Field: "Scores", Kind: queryir.Suffix, Value: 95, Collection: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustBuild(t, tc.path, tc.op, tc.values...))
		})
	}
}

func TestStringMatch_CollectionElementFormatError(t *testing.T) {
	_, err := build(t, "scores", condition.Contains, "many")
	assert.ErrorIs(t, err, coerce.ErrFormat)
}

func TestSetMembership(t *testing.T) {
	got := mustBuild(t, "age", condition.In, "17", nil, "65")
	assert.Equal(t, &queryir.In{Field: "Age", Values: []any{17, nil, 65}}, got)

	got = mustBuild(t, "status", condition.NotIn, "closed", "suspended")
	assert.Equal(t, &queryir.In{Field: "Status", Values: []any{sample.StatusClosed, sample.StatusSuspended}, Negate: true}, got)

	got = mustBuild(t, "rank", condition.NotIn, "1", nil)
	assert.Equal(t, &queryir.In{Field: "Rank", Values: []any{1, nil}, Negate: true}, got)

	assert.Equal(t, queryir.False, mustBuild(t, "age", condition.In))
	assert.Equal(t, queryir.True, mustBuild(t, "age", condition.NotIn))

	_, err := build(t, "age", condition.In, "1", "x")
	assert.ErrorIs(t, err, coerce.ErrFormat)
}

func TestRange(t *testing.T) {
	got := mustBuild(t, "age", condition.Between, "10", "20")
	assert.Equal(t, &queryir.Between{Field: "Age", Low: 10, High: 20}, got)

	got = mustBuild(t, "age", condition.NotBetween, "10", "20", "30")
	assert.Equal(t, &queryir.Between{Field: "Age", Low: 10, High: 20, Negate: true}, got)
}

func TestRange_SingleValueIsFalse(t *testing.T) {
	assert.Equal(t, queryir.False, mustBuild(t, "age", condition.Between, "10"))
	assert.Equal(t, queryir.False, mustBuild(t, "age", condition.NotBetween, "10"))
	assert.Equal(t, queryir.False, mustBuild(t, "age", condition.Between))
}

func TestRange_NullBound(t *testing.T) {
	for _, values := range [][]any{{nil, "20"}, {"10", nil}, {nil, nil}} {
		_, err := build(t, "age", condition.Between, values...)
		require.Error(t, err)
		assert.ErrorIs(t, err, coerce.ErrInvalidOperation)
		assert.Contains(t, err.Error(), "both values required")
	}
}

func TestRange_Errors(t *testing.T) {
	_, err := build(t, "age", condition.Between, "ten", "20")
	assert.ErrorIs(t, err, coerce.ErrFormat)

	_, err = build(t, "active", condition.Between, "true", "false")
	assert.ErrorIs(t, err, coerce.ErrInvalidOperation)
}

func TestNullCheck(t *testing.T) {
	assert.Equal(t, &queryir.IsNull{Field: "Rank"}, mustBuild(t, "rank", condition.IsNull))
	assert.Equal(t, &queryir.IsNull{Field: "Nickname", Negate: true}, mustBuild(t, "nickname", condition.IsNotNull, "ignored"))
}

func TestPattern(t *testing.T) {
	assert.Equal(t, &queryir.Regex{Field: "Name", Pattern: "^(A|B)"}, mustBuild(t, "name", condition.Regex, "^(A|B)"))
	assert.Equal(t, &queryir.Regex{Field: "Name", Pattern: "a{1,3}"}, mustBuild(t, "name", condition.Regex, "a{1", "3}"))
	assert.Equal(t, &queryir.Regex{Field: "Name", Pattern: ""}, mustBuild(t, "name", condition.Regex, nil))
	assert.Equal(t, &queryir.Regex{Field: "Name", Pattern: "x|,"}, mustBuild(t, "name", condition.Regex, "x|", nil))
	assert.Equal(t, &queryir.Regex{Field: "Name", Pattern: "NULL|Null"}, mustBuild(t, "name", condition.Regex, "NULL|Null"))
	assert.Equal(t, &queryir.Regex{Field: "Name", Pattern: ""}, mustBuild(t, "name", condition.Regex))
}

func TestPattern_InvalidSyntaxDeferred(t *testing.T) {
	_, err := build(t, "name", condition.Regex, "(unclosed")
	assert.NoError(t, err)
}
