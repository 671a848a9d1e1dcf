package queryir

import "fmt"

// Query is a source access that a backend can execute.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate is a filter condition over one record.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads the rows of a table that satisfy Filter.
//
// Semantics:
//
//	SELECT <bindings> FROM <from> WHERE <filter>
//
// Bindings map source columns to output names. An empty Bindings map selects
// every column.
type Select struct {
	From     string            // Table name
	Filter   Predicate         // WHERE conditions (nil = no filter)
	Bindings map[string]string // source column → output name
}

func (Select) queryNode() {}

// Const is a predicate with a fixed result.
//
// The compiler emits Const{true} for inapplicable filters (blank or
// unresolved paths, empty groups) and Const{false} for degenerate ones
// (a Between with one bound, EqualTo null on a non-nullable member).
type Const struct {
	Value bool
}

func (Const) predicateNode() {}

// True and False are the two constant predicates.
var (
	True  = &Const{Value: true}
	False = &Const{Value: false}
)

// And is true when every predicate is true. Empty And is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is true when any predicate is true. Empty Or is false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// CompareOp is the operator of a Compare predicate.
type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Gt
	Gte
	Lt
	Lte
)

var compareOpSymbols = [...]string{
	Eq:  "=",
	Ne:  "!=",
	Gt:  ">",
	Gte: ">=",
	Lt:  "<",
	Lte: "<=",
}

// String returns the SQL symbol of the operator.
func (op CompareOp) String() string {
	if op < 0 || int(op) >= len(compareOpSymbols) {
		return fmt.Sprintf("CompareOp(%d)", int(op))
	}
	return compareOpSymbols[op]
}

// Ordered reports whether op needs an ordering rather than equality.
func (op CompareOp) Ordered() bool {
	return op >= Gt && op <= Lte
}

// Compare tests a field against a literal.
//
// Semantics:
//
//	<field> <op> <value>
//
// A nil Value with Eq is true only for absent fields; with Ne only for
// present ones. An absent field is never equal to a non-nil Value, so Ne is
// true and every ordered comparison false.
type Compare struct {
	Field string
	Op    CompareOp
	Value any
}

func (Compare) predicateNode() {}

// Between tests low < field < high. Negate gives the exact complement,
// which includes absent fields.
type Between struct {
	Field  string
	Low    any
	High   any
	Negate bool
}

func (Between) predicateNode() {}

// In tests whether the field equals any of Values. A nil member matches
// absent fields. Negate gives the complement.
type In struct {
	Field  string
	Values []any
	Negate bool
}

func (In) predicateNode() {}

// MatchKind selects the test a Match predicate performs.
type MatchKind int

const (
	Contains MatchKind = iota
	Prefix
	Suffix
)

func (k MatchKind) String() string {
	switch k {
	case Contains:
		return "contains"
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	default:
		return fmt.Sprintf("MatchKind(%d)", int(k))
	}
}

// Match is a string or collection test.
//
// On text fields (Collection false) Value is text and the test is substring,
// prefix or suffix on the canonical text of the field. On collection fields
// Value has the element type: Contains is membership, Prefix and Suffix
// compare the first and last element. An absent field never matches; Negate
// inverts the result including that case.
type Match struct {
	Field      string
	Kind       MatchKind
	Value      any
	Collection bool
	Negate     bool
}

func (Match) predicateNode() {}

// IsNull is true for absent fields, or for present ones when Negate is set.
type IsNull struct {
	Field  string
	Negate bool
}

func (IsNull) predicateNode() {}

// Regex tests the canonical text of a field against Pattern. An empty
// pattern matches any present field. Pattern syntax is checked when the
// predicate is first evaluated, not when it is built.
type Regex struct {
	Field   string
	Pattern string
}

func (Regex) predicateNode() {}
