package predicate

import (
	"io"
	"log/slog"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/errors"
	"github.com/roach88/sieve/internal/eval"
	"github.com/roach88/sieve/internal/operators"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/sample"
	"github.com/roach88/sieve/internal/testutil"
)

var personType = reflect.TypeOf(sample.Person{})

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parse(raw string) *condition.Group {
	return condition.NewParser(condition.WithLogger(quiet())).Parse(raw)
}

// selected compiles raw for Person and returns the names of the shared
// people it matches.
func selected(t *testing.T, c *Compiler, raw string) []string {
	t.Helper()
	p, err := c.Compile(parse(raw), personType)
	require.NoError(t, err)

	var names []string
	for _, person := range sample.People() {
		ok, err := p.Eval(person)
		require.NoError(t, err)
		if ok {
			names = append(names, person.Name)
		}
	}
	return names
}

func TestCompile_Queries(t *testing.T) {
	all := []string{"Ada", "Bob", "Carol", "Dave"}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty", "", all},
		{"gt", "filter[score][$gt]=80", []string{"Ada", "Carol"}},
		{"gte", "filter[score][$gte]=80", []string{"Ada", "Bob", "Carol"}},
		{"implicit equality", "filter[name]=Bob", []string{"Bob"}},
		{"case-insensitive path", "filter[NAME]=Bob", []string{"Bob"}},
		{"json tag", "filter[session]=90m", []string{"Ada"}},
		{"nested member", "filter[address.city][$startswith]=B", []string{"Ada", "Dave"}},
		{"multi-bracket member", "filter[address][city][$startswith]=B", []string{"Ada", "Dave"}},
		{"score scenario", "filter[$and][0][score][$gt]=80&filter[$or][0][score][$eq]=100&filter[$and][1][score][$lt]=95", nil},
		{"explicit or group", "filter[g][$or][0][score][$eq]=100&filter[g][$or][1][name][$startswith]=A", []string{"Ada", "Carol"}},
		{"nested groups", "filter[$or][group]=g&filter[g][group]=h&filter[g][$or][0][age][$lt]=18&filter[h][$and][0][age][$gt]=40&filter[h][$and][1][status]=active", []string{"Bob", "Carol"}},
		{"between single value", "filter[age][$between]=10", nil},
		{"not between single value", "filter[age][$notbetween]=10", nil},
		{"between exclusive", "filter[age][$between]=17,65", []string{"Ada", "Dave"}},
		{"not between", "filter[age][$notbetween]=17,65", []string{"Bob", "Carol"}},
		{"equal null on non-nullable", "filter[age][$eq]=null", nil},
		{"not equal null on non-nullable", "filter[age][$ne]=null", all},
		{"equal null on pointer", "filter[rank][$eq]=null", []string{"Ada", "Bob", "Dave"}},
		{"in with null", "filter[rank][$in]=1,null", all},
		{"in", "filter[status][$in]=suspended,closed", []string{"Bob", "Dave"}},
		{"not in", "filter[tier][$notin]=free", []string{"Ada", "Carol"}},
		{"not in with null", "filter[rank][$notin]=1,null", nil},
		{"not in only null", "filter[rank][$notin]=null", []string{"Carol"}},
		{"not in keeps absent", "filter[rank][$notin]=1", []string{"Ada", "Bob", "Dave"}},
		{"null check", "filter[nickname][$null]", []string{"Ada", "Carol", "Dave"}},
		{"not null check", "filter[address][$notnull]", []string{"Ada", "Carol", "Dave"}},
		{"contains", "filter[name][$contains]=a", []string{"Ada", "Carol", "Dave"}},
		{"not contains", "filter[name][$notcontains]=a", []string{"Bob"}},
		{"ends with", "filter[name][$endswith]=e", []string{"Dave"}},
		{"collection contains", "filter[tags][$contains]=go", []string{"Ada", "Carol"}},
		{"regex", "filter[name][$regex]=^(A|B)", []string{"Ada", "Bob"}},
		{"regex with comma", "filter[name][$regex]=^[A-Z][a-z]{2,3}$", []string{"Ada", "Bob", "Dave"}},
		{"regex matching null text", "filter[nickname][$regex]=^NULL|bob", []string{"Bob"}},
		{"regex absent pattern", "filter[nickname][$regex]=null", []string{"Bob"}},
		{"decimal", "filter[balance][$lt]=0", []string{"Dave"}},
		{"time", "filter[joined][$lt]=2021-01-01", []string{"Carol"}},
		{"dynamic member", "filter[extra.level][$gte]=3", []string{"Ada"}},
		{"map member", "filter[labels.team]=core", []string{"Ada"}},
		{"unresolved path", "filter[nope][$gt]=5", all},
		{"unresolved path beside a test", "filter[nope][$gt]=5&filter[name]=Ada", []string{"Ada"}},
		{"blank path", "filter[][$eq]=x", all},
		{"unknown operator dropped", "filter[name][$like]=A", all},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(WithLogger(quiet()))
			assert.Equal(t, tc.want, selected(t, c, tc.query))
		})
	}
}

func TestCompile_ScoreScenarioExpression(t *testing.T) {
	raw := "filter[$and][0][score][$gt]=80&filter[$or][0][score][$eq]=100&filter[$and][1][score][$lt]=95"
	p, err := New(WithLogger(quiet())).Compile(parse(raw), personType)
	require.NoError(t, err)

	assert.Equal(t, "(Score > 80 AND Score < 95) AND Score = 100", p.String())
	assert.Equal(t, personType, p.Shape())
	assert.Equal(t, eval.DefaultRegexTimeout, p.RegexTimeout())
	assert.NotEmpty(t, p.TreeID())
}

func TestCompile_NilTree(t *testing.T) {
	c := New(WithLogger(quiet()))
	p, err := c.Compile(nil, personType)
	require.NoError(t, err)

	assert.Equal(t, queryir.True, p.Expr())
	assert.Empty(t, p.TreeID())
	for _, person := range sample.People() {
		assert.True(t, p.Match(person))
	}
}

func TestCompile_NilShape(t *testing.T) {
	_, err := New(WithLogger(quiet())).Compile(condition.NewRoot(), nil)
	require.Error(t, err)
}

func TestDescribe_GroupRules(t *testing.T) {
	c := New(WithLogger(quiet()))

	empty := &condition.Group{Name: "root", Conjunction: condition.Or}
	expr, err := c.Describe(empty, personType)
	require.NoError(t, err)
	assert.Equal(t, queryir.True, expr)

	tree := &condition.Group{
		Name:        "root",
		Conjunction: condition.Or,
		Children: []condition.Node{
			(*condition.Group)(nil),
			&condition.Group{Name: "empty", MemberOf: "root"},
			&condition.Condition{Name: "age-0", Path: "age", Operator: condition.GreaterThan, Values: []any{"40"}, MemberOf: "root"},
		},
	}
	expr, err = c.Describe(tree, personType)
	require.NoError(t, err)
	assert.Equal(t, &queryir.Or{Predicates: []queryir.Predicate{
		queryir.True,
		&queryir.Compare{Field: "Age", Op: queryir.Gt, Value: 40},
	}}, expr)
}

func TestCompile_UnsupportedOperator(t *testing.T) {
	tests := []struct {
		name string
		op   condition.Operator
	}{
		{"none", condition.None},
		{"out of range", condition.Operator(99)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := condition.NewRoot()
			tree.Children = []condition.Node{
				&condition.Condition{Name: "age-0", Path: "age", Operator: tc.op, Values: []any{"1"}, MemberOf: "root"},
			}

			_, err := New(WithLogger(quiet())).Compile(tree, personType)
			require.Error(t, err)

			var unsupported *UnsupportedOperatorError
			require.True(t, errors.As(err, &unsupported))
			assert.Equal(t, tc.op, unsupported.Operator)
			assert.Equal(t, operators.RegistryName, unsupported.Compiler)
			assert.Equal(t, "age-0", unsupported.Condition)
			assert.True(t, errors.ContainsStackTrace(err))
		})
	}
}

func TestCompile_UnsupportedByRegistry(t *testing.T) {
	c := New(WithLogger(quiet()), WithRegistry(operators.NewRegistry(operators.Equality{})))

	_, err := c.Compile(parse("filter[age][$gt]=1"), personType)
	var unsupported *UnsupportedOperatorError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, condition.GreaterThan, unsupported.Operator)
}

func TestCompile_CoercionErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"bad number", "filter[age][$gt]=old", coerce.ErrFormat},
		{"bad bool", "filter[active]=maybe", coerce.ErrFormat},
		{"unordered member", "filter[tags][$gt]=a", coerce.ErrInvalidOperation},
		{"null bound", "filter[age][$between]=null,5", coerce.ErrInvalidOperation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(WithLogger(quiet())).Compile(parse(tc.query), personType)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "condition ")

			var cerr *coerce.Error
			assert.True(t, errors.As(err, &cerr))
		})
	}
}

func TestCompile_RegexErrorAtEvaluation(t *testing.T) {
	p, err := New(WithLogger(quiet())).Compile(parse("filter[name][$regex]=(unclosed"), personType)
	require.NoError(t, err)

	_, err = p.Eval(sample.People()[0])
	require.Error(t, err)
	assert.False(t, p.Match(sample.People()[0]))
}

func TestCompile_Cache(t *testing.T) {
	c := New(WithLogger(quiet()))
	raw := "filter[score][$gt]=80&filter[name][$startswith]=A"

	first, err := c.Compile(parse(raw), personType)
	require.NoError(t, err)
	second, err := c.Compile(parse(raw), reflect.PointerTo(personType))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())

	other, err := c.Compile(parse(raw), reflect.TypeOf(sample.Address{}))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, c.Len())

	_, err = c.Compile(parse("filter[score][$gt]=81"), personType)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}

func TestCompile_CacheKeepsExactLiterals(t *testing.T) {
	c := New(WithLogger(quiet()))

	composed, err := c.Compile(parse("filter[name][$eq]=%C3%A9"), personType)
	require.NoError(t, err)
	decomposed, err := c.Compile(parse("filter[name][$eq]=e%CC%81"), personType)
	require.NoError(t, err)

	assert.NotSame(t, composed, decomposed)
	assert.Equal(t, composed.TreeID(), decomposed.TreeID())
	assert.True(t, composed.Match(sample.Person{Name: "\u00e9"}))
	assert.False(t, composed.Match(sample.Person{Name: "e\u0301"}))
	assert.True(t, decomposed.Match(sample.Person{Name: "e\u0301"}))

	ff, err := c.Compile(parse("filter[name][$eq]=%FF"), personType)
	require.NoError(t, err)
	fe, err := c.Compile(parse("filter[name][$eq]=%FE"), personType)
	require.NoError(t, err)
	assert.NotSame(t, ff, fe)
	assert.True(t, fe.Match(sample.Person{Name: "\xfe"}))
	assert.Equal(t, 4, c.Len())
}

func TestCompile_ValuesWithoutCanonicalForm(t *testing.T) {
	c := New(WithLogger(quiet()))
	tree := func(v any) *condition.Group {
		return &condition.Group{Name: condition.RootName, Children: []condition.Node{
			&condition.Condition{Name: "score-0", Path: "score", Operator: condition.LessThan, Values: []any{v}},
		}}
	}

	inf, err := c.Compile(tree(math.Inf(1)), personType)
	require.NoError(t, err)
	assert.NotEmpty(t, inf.TreeID())
	assert.Equal(t, []string{"Ada", "Bob", "Carol", "Dave"}, testutil.Names(filter(inf, sample.People())))

	negInf, err := c.Compile(tree(math.Inf(-1)), personType)
	require.NoError(t, err)
	assert.NotSame(t, inf, negInf)
	assert.Empty(t, filter(negInf, sample.People()))
}

func TestCompile_Concurrent(t *testing.T) {
	c := New(WithLogger(quiet()))
	raw := "filter[g][$or][0][score][$eq]=100&filter[g][$or][1][name][$startswith]=A"
	people := sample.People()

	var wg sync.WaitGroup
	results := make([][]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Compile(parse(raw), personType)
			if err != nil {
				return
			}
			for _, person := range people {
				if p.Match(&person) {
					results[i] = append(results[i], person.Name)
				}
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, []string{"Ada", "Carol"}, got)
	}
	assert.Equal(t, 1, c.Len())
}

func TestEval_RecordForms(t *testing.T) {
	p, err := New(WithLogger(quiet())).Compile(parse("filter[name]=Ada"), personType)
	require.NoError(t, err)
	ada := sample.People()[0]

	for name, record := range map[string]any{
		"value":         ada,
		"pointer":       &ada,
		"reflect value": reflect.ValueOf(ada),
	} {
		t.Run(name, func(t *testing.T) {
			ok, err := p.Eval(record)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestFor(t *testing.T) {
	p, err := For[sample.Person](parse("filter[age][$lte]=17"))
	require.NoError(t, err)
	assert.Equal(t, personType, p.Shape())
	assert.Equal(t, []string{"Bob"}, testutil.Names(filter(p, sample.People())))

	expr, err := Describe(parse("filter[age][$lte]=17"), personType)
	require.NoError(t, err)
	assert.Equal(t, p.Expr(), expr)

	again, err := Compile(parse("filter[age][$lte]=17"), personType)
	require.NoError(t, err)
	assert.Same(t, p, again)
}

func filter(p *Predicate, people []sample.Person) []sample.Person {
	var out []sample.Person
	for _, person := range people {
		if p.Match(person) {
			out = append(out, person)
		}
	}
	return out
}
