package operators

import (
	"fmt"

	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// Compiler is one operator family.
type Compiler interface {
	// Name identifies the unit in errors and logs.
	Name() string
	// CanHandle reports whether the unit builds tests for op.
	CanHandle(op condition.Operator) bool
	// Build returns the test for cond against the member acc resolves.
	Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error)
}

// RegistryName identifies the registry itself when no unit accepts an
// operator.
const RegistryName = "operators.Registry"

// UnsupportedOperatorError reports an operator no compiler accepts.
type UnsupportedOperatorError struct {
	Operator  condition.Operator
	Compiler  string
	Condition string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("operator %s is not supported by %s (condition %q)", e.Operator, e.Compiler, e.Condition)
}

// Registry dispatches conditions to operator compilers in order.
// A Registry is immutable and safe for concurrent use.
type Registry struct {
	units []Compiler
}

// NewRegistry returns a registry that tries units in the given order.
func NewRegistry(units ...Compiler) *Registry {
	return &Registry{units: append([]Compiler(nil), units...)}
}

// DefaultRegistry returns a registry with every built-in family.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Equality{},
		Relational{},
		StringMatch{},
		SetMembership{},
		Range{},
		NullCheck{},
		Pattern{},
	)
}

// Lookup returns the first unit that handles op.
func (r *Registry) Lookup(op condition.Operator) (Compiler, bool) {
	for _, unit := range r.units {
		if unit.CanHandle(op) {
			return unit, true
		}
	}
	return nil, false
}

// Build dispatches cond to the first unit that handles its operator.
// Operators outside the closed set, and None, are rejected before any unit
// is consulted.
func (r *Registry) Build(acc *resolve.Accessor, cond *condition.Condition) (queryir.Predicate, error) {
	if !cond.Operator.Valid() {
		return nil, &UnsupportedOperatorError{Operator: cond.Operator, Compiler: RegistryName, Condition: cond.Name}
	}
	unit, ok := r.Lookup(cond.Operator)
	if !ok {
		return nil, &UnsupportedOperatorError{Operator: cond.Operator, Compiler: RegistryName, Condition: cond.Name}
	}
	return unit.Build(acc, cond)
}

// Names returns the unit names in dispatch order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.units))
	for i, unit := range r.units {
		names[i] = unit.Name()
	}
	return names
}
