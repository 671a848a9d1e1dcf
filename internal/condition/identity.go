package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// Key returns an exact identity for the tree: names, paths and string values
// are kept byte for byte and every value carries its Go type. Trees with
// equal keys compile to identical predicates. Unlike ID, no Unicode
// normalization is applied, so keys are suitable for cache lookups.
func (g *Group) Key() string {
	var sb strings.Builder
	writeKey(&sb, g)
	return sb.String()
}

func writeKey(sb *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Group:
		if n == nil {
			return
		}
		sb.WriteString("g(")
		sb.WriteString(strconv.Quote(n.Name))
		sb.WriteByte(' ')
		sb.WriteString(n.Conjunction.String())
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.MemberOf))
		for _, child := range n.Children {
			if isNil(child) {
				continue
			}
			sb.WriteByte(' ')
			writeKey(sb, child)
		}
		sb.WriteByte(')')
	case *Condition:
		if n == nil {
			return
		}
		sb.WriteString("c(")
		sb.WriteString(strconv.Quote(n.Name))
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Path))
		sb.WriteByte(' ')
		sb.WriteString(n.Operator.String())
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.MemberOf))
		for _, v := range n.Values {
			sb.WriteByte(' ')
			writeValueKey(sb, v)
		}
		sb.WriteByte(')')
	}
}

func writeValueKey(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("nil")
	case string:
		sb.WriteString(strconv.Quote(val))
	default:
		// %#v quotes strings with strconv.Quote and prints floats exactly.
		fmt.Fprintf(sb, "%T:%#v", v, v)
	}
}
