// Package operators builds the data form of single conditions.
//
// Each operator family is an independent capability unit implementing
// Compiler: it reports which operators it handles and turns a resolved
// accessor plus a condition into a queryir.Predicate, coercing the
// condition's literals to the member type on the way. A Registry holds the
// units in order and dispatches each condition to the first unit that
// accepts its operator.
//
//	equality        EqualTo, NotEqualTo
//	relational      GreaterThan(OrEqualTo), LessThan(OrEqualTo)
//	string-match    Contains, NotContains, StartsWith, EndsWith
//	set-membership  In, NotIn
//	range           Between, NotBetween
//	null-check      IsNull, IsNotNull
//	pattern         Regex
package operators
