package condition

import (
	"fmt"
	"strings"
)

// Operator identifies the comparison a Condition performs.
// The set is closed; None is the zero value and is never produced by the parser.
type Operator int

const (
	None Operator = iota
	EqualTo
	NotEqualTo
	GreaterThan
	GreaterThanOrEqualTo
	LessThan
	LessThanOrEqualTo
	Contains
	NotContains
	StartsWith
	EndsWith
	In
	NotIn
	Between
	NotBetween
	IsNull
	IsNotNull
	Regex
)

var operatorNames = [...]string{
	None:                 "None",
	EqualTo:              "EqualTo",
	NotEqualTo:           "NotEqualTo",
	GreaterThan:          "GreaterThan",
	GreaterThanOrEqualTo: "GreaterThanOrEqualTo",
	LessThan:             "LessThan",
	LessThanOrEqualTo:    "LessThanOrEqualTo",
	Contains:             "Contains",
	NotContains:          "NotContains",
	StartsWith:           "StartsWith",
	EndsWith:             "EndsWith",
	In:                   "In",
	NotIn:                "NotIn",
	Between:              "Between",
	NotBetween:           "NotBetween",
	IsNull:               "IsNull",
	IsNotNull:            "IsNotNull",
	Regex:                "Regex",
}

// canonical grammar token for each operator, without the "$" prefix.
var operatorTokens = [...]string{
	EqualTo:              "eq",
	NotEqualTo:           "ne",
	GreaterThan:          "gt",
	GreaterThanOrEqualTo: "gte",
	LessThan:             "lt",
	LessThanOrEqualTo:    "lte",
	Contains:             "contains",
	NotContains:          "notcontains",
	StartsWith:           "startswith",
	EndsWith:             "endswith",
	In:                   "in",
	NotIn:                "notin",
	Between:              "between",
	NotBetween:           "notbetween",
	IsNull:               "null",
	IsNotNull:            "notnull",
	Regex:                "regex",
}

// tokenOperators maps lower-case grammar tokens (including aliases) to operators.
var tokenOperators = map[string]Operator{
	"ge": GreaterThanOrEqualTo,
	"le": LessThanOrEqualTo,
}

func init() {
	for op, tok := range operatorTokens {
		if tok != "" {
			tokenOperators[tok] = Operator(op)
		}
	}
}

// String returns the Go-style operator name, e.g. "GreaterThanOrEqualTo".
func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorNames) {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// Token returns the canonical grammar token without the "$" prefix, e.g. "gte".
// None and out-of-range operators have no token.
func (o Operator) Token() string {
	if o <= None || int(o) >= len(operatorTokens) {
		return ""
	}
	return operatorTokens[o]
}

// Valid reports whether o is a member of the closed operator set other than None.
func (o Operator) Valid() bool {
	return o > None && int(o) < len(operatorNames)
}

// ParseOperator maps a grammar token to its operator, case-insensitively.
// The leading "$" is optional.
func ParseOperator(token string) (Operator, bool) {
	op, ok := tokenOperators[strings.ToLower(strings.TrimPrefix(token, "$"))]
	return op, ok
}

// Conjunction is the boolean combinator applied to a Group's children.
type Conjunction int

const (
	And Conjunction = iota
	Or
)

// String returns "and" or "or".
func (c Conjunction) String() string {
	if c == Or {
		return "or"
	}
	return "and"
}

// ParseConjunction recognizes "$and" and "$or" case-insensitively.
// The leading "$" is optional.
func ParseConjunction(token string) (Conjunction, bool) {
	switch strings.ToLower(strings.TrimPrefix(token, "$")) {
	case "and":
		return And, true
	case "or":
		return Or, true
	default:
		return And, false
	}
}
