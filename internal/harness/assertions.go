package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/predicate"
	"github.com/roach88/sieve/internal/queryir"
)

// AssertionError is returned when an assertion fails.
// It includes the tree for debugging context.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Tree     string // Tree rendering for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Tree != "" {
		fmt.Fprintf(&buf, "\nTree:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Tree, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// evaluateAssertions runs every assertion and records failures in result.
// p is nil when compilation failed; data form assertions then fail.
func evaluateAssertions(tree *condition.Group, p *predicate.Predicate, assertions []Assertion, result *Result) {
	for _, a := range assertions {
		if err := evaluateAssertion(tree, p, a); err != nil {
			result.AddError(err.Error())
		}
	}
}

func evaluateAssertion(tree *condition.Group, p *predicate.Predicate, a Assertion) error {
	switch a.Type {
	case AssertTreeContains:
		return assertTreeContains(tree, a)
	case AssertTreeGroup:
		return assertTreeGroup(tree, a)
	case AssertTreeCount:
		return assertTreeCount(tree, a)
	case AssertExpr:
		if p == nil {
			return &AssertionError{Type: a.Type, Expected: a.Expr, Actual: "query did not compile", Tree: tree.String()}
		}
		if got := p.String(); got != a.Expr {
			return &AssertionError{Type: a.Type, Expected: a.Expr, Actual: got}
		}
		return nil
	case AssertPortable:
		if p == nil {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Portable), Actual: "query did not compile", Tree: tree.String()}
		}
		res := queryir.Validate(p.Expr())
		if res.IsPortable != a.Portable {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("portable=%v", a.Portable),
				Actual:   fmt.Sprintf("portable=%v %v", res.IsPortable, res.Warnings),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTreeContains checks that the named condition exists and that the
// fields the assertion sets match.
func assertTreeContains(tree *condition.Group, a Assertion) error {
	var found *condition.Condition
	condition.Walk(tree, func(n condition.Node, _ int) bool {
		if c, ok := n.(*condition.Condition); ok && c.Name == a.Condition {
			found = c
			return false
		}
		return true
	})

	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertTreeContains,
			Expected: describeCondition(a),
			Actual:   actual,
			Tree:     tree.String(),
		}
	}

	if found == nil {
		return fail("not found in tree")
	}
	if a.Path != nil && found.Path != *a.Path {
		return fail(fmt.Sprintf("path %q", found.Path))
	}
	if a.Operator != "" && found.Operator.String() != a.Operator {
		return fail(fmt.Sprintf("operator %s", found.Operator))
	}
	if a.MemberOf != "" && parentName(found) != a.MemberOf {
		return fail(fmt.Sprintf("member of %q", parentName(found)))
	}
	if a.Values != nil && !reflect.DeepEqual(normalizeValues(a.Values), found.Values) {
		return fail(fmt.Sprintf("values %v", found.Values))
	}
	return nil
}

// assertTreeGroup checks that the named group exists with the given
// conjunction and parent.
func assertTreeGroup(tree *condition.Group, a Assertion) error {
	var found *condition.Group
	condition.Walk(tree, func(n condition.Node, _ int) bool {
		if g, ok := n.(*condition.Group); ok && g.Name == a.Group {
			found = g
			return false
		}
		return true
	})

	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertTreeGroup,
			Expected: fmt.Sprintf("group %s (%s) in %q", a.Group, a.Conjunction, a.MemberOf),
			Actual:   actual,
			Tree:     tree.String(),
		}
	}

	if found == nil {
		return fail("not found in tree")
	}
	if a.Conjunction != "" && !strings.EqualFold(found.Conjunction.String(), a.Conjunction) {
		return fail(fmt.Sprintf("conjunction %s", found.Conjunction))
	}
	if a.MemberOf != "" && parentName(found) != a.MemberOf {
		return fail(fmt.Sprintf("member of %q", parentName(found)))
	}
	return nil
}

// assertTreeCount checks the number of conditions in the tree.
func assertTreeCount(tree *condition.Group, a Assertion) error {
	count := 0
	condition.Walk(tree, func(n condition.Node, _ int) bool {
		if _, ok := n.(*condition.Condition); ok {
			count++
		}
		return true
	})
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTreeCount,
			Expected: fmt.Sprintf("%d conditions", a.Count),
			Actual:   fmt.Sprintf("%d conditions", count),
			Tree:     tree.String(),
		}
	}
	return nil
}

// parentName is the name of the group holding n; top-level nodes sit in root.
func parentName(n condition.Node) string {
	if n.NodeMemberOf() == "" {
		return condition.RootName
	}
	return n.NodeMemberOf()
}

func describeCondition(a Assertion) string {
	parts := []string{"condition " + a.Condition}
	if a.Path != nil {
		parts = append(parts, fmt.Sprintf("path %q", *a.Path))
	}
	if a.Operator != "" {
		parts = append(parts, "operator "+a.Operator)
	}
	if a.Values != nil {
		parts = append(parts, fmt.Sprintf("values %v", a.Values))
	}
	if a.MemberOf != "" {
		parts = append(parts, fmt.Sprintf("member of %q", a.MemberOf))
	}
	return strings.Join(parts, ", ")
}

// normalizeValues renders YAML scalars the way the parser stores raw values:
// text, with null kept as nil.
func normalizeValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
