package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates_ImplementPredicate(t *testing.T) {
	preds := []Predicate{
		Const{}, &Const{},
		And{}, &And{},
		Or{}, &Or{},
		Compare{}, &Compare{},
		Between{}, &Between{},
		In{}, &In{},
		Match{}, &Match{},
		IsNull{}, &IsNull{},
		Regex{}, &Regex{},
	}
	for _, p := range preds {
		assert.NotNil(t, p)
	}
}

func TestSelect_ImplementsQuery(t *testing.T) {
	var q Query = Select{From: "people"}

	switch q.(type) {
	case Select:
	default:
		t.Fatal("unexpected type")
	}
}

func TestConstants(t *testing.T) {
	assert.True(t, True.Value)
	assert.False(t, False.Value)
}

func TestCompareOp(t *testing.T) {
	tests := []struct {
		op      CompareOp
		symbol  string
		ordered bool
	}{
		{Eq, "=", false},
		{Ne, "!=", false},
		{Gt, ">", true},
		{Gte, ">=", true},
		{Lt, "<", true},
		{Lte, "<=", true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.symbol, tc.op.String())
		assert.Equal(t, tc.ordered, tc.op.Ordered(), tc.symbol)
	}
	assert.Equal(t, "CompareOp(9)", CompareOp(9).String())
}

func TestMatchKind_String(t *testing.T) {
	assert.Equal(t, "contains", Contains.String())
	assert.Equal(t, "prefix", Prefix.String())
	assert.Equal(t, "suffix", Suffix.String())
	assert.Equal(t, "MatchKind(7)", MatchKind(7).String())
}

func TestDeref(t *testing.T) {
	assert.Equal(t, Compare{Field: "Age", Op: Gt, Value: 3}, Deref(&Compare{Field: "Age", Op: Gt, Value: 3}))
	assert.Equal(t, IsNull{Field: "Rank"}, Deref(IsNull{Field: "Rank"}))
	assert.Nil(t, Deref((*And)(nil)))
	assert.Nil(t, Deref(nil))
}
