// Package queryir is the data form of a compiled filter: a closure-free
// predicate tree that can be evaluated in memory (package eval) or retargeted
// to a query engine (package querysql).
//
// ARCHITECTURE:
//
//	[condition tree] → [operators] → [Query IR] → [eval: record closures]
//	                                            → [querysql: SQLite SQL]
//
// Operator compilers resolve member paths and coerce literals, so every
// node here is already typed: Field is a canonical member path and literal
// values are Go values of the member's type (or its element type for
// collection matches). Nothing in the tree captures functions.
//
// PREDICATES:
//
//	Const       constant true / false (inapplicable or degenerate filters)
//	And, Or     conjunctions; empty And is true, empty Or is false
//	Compare     field <op> value; a nil value compares against absence
//	Between     low < field < high, exclusive; Negate gives the complement
//	In          field equal to any member; nil members match absent fields
//	Match       substring, prefix or suffix test, or collection membership
//	IsNull      absence test
//	Regex       pattern test, compiled lazily by each backend
//
// SEALED INTERFACES:
//
// Query and Predicate use the marker method pattern, so backends can switch
// exhaustively over the node types:
//
//	switch p := pred.(type) {
//	case *Compare:
//	    // field comparison
//	case *And:
//	    // recurse
//	}
//
// Both value and pointer forms of each node are accepted by Validate and by
// the backends.
//
// PORTABILITY:
//
// Validate reports nodes that need more than plain SQL: Regex relies on a
// REGEXP function registered by the store, and collection matches rely on the
// JSON functions of SQLite.
package queryir
