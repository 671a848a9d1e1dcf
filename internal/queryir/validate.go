package queryir

import "fmt"

// ValidationResult contains the portability analysis of a query.
type ValidationResult struct {
	// IsPortable is true when the query compiles to plain SQL with no
	// functions beyond the SQL core.
	IsPortable bool

	// Warnings lists the features that need backend support.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks whether a query, or a bare predicate, stays inside plain
// SQL.
//
// Non-portable features:
//  1. Regex - needs a REGEXP function registered with the database
//  2. Collection matches - need JSON functions over stored arrays
//  3. SELECT * - Select with empty bindings
//
// Non-portable queries still run against the bundled store. Warnings tell
// callers which backend features they rely on.
//
// Validate is a pure function with no side effects.
func Validate(node any) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	switch n := node.(type) {
	case Query:
		v.validateQuery(n)
	case Predicate:
		v.validatePredicate(n)
	default:
		v.addWarning("Unknown node type: %T - portability cannot be verified", node)
	}

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addWarning("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addWarning("Unknown query type: %T - portability cannot be verified", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if len(sel.Bindings) == 0 {
		v.addWarning("Empty bindings (SELECT *) on '%s' - column set depends on the table", sel.From)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	switch pred := Deref(p).(type) {
	case nil, Const, Compare, Between, In, IsNull:
	case And:
		v.validateAll(pred.Predicates)
	case Or:
		v.validateAll(pred.Predicates)
	case Match:
		if pred.Collection {
			v.addWarning("Field '%s' matched as a collection (%s) - requires JSON functions", pred.Field, pred.Kind)
		}
	case Regex:
		v.addWarning("Field '%s' matched against a regular expression - requires a REGEXP function", pred.Field)
	default:
		v.addWarning("Unknown predicate type: %T - portability cannot be verified", p)
	}
}

func (v *validator) validateAll(preds []Predicate) {
	for _, sub := range preds {
		v.validatePredicate(sub)
	}
}
