package condition

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// RootName is the name of the Group every parse returns.
const RootName = "root"

// Node is a member of a condition tree: either a *Condition or a *Group.
// Sealed: only types in this package implement it.
type Node interface {
	// NodeName returns the node's name, unique within one parse.
	NodeName() string
	// NodeMemberOf returns the name of the enclosing group, or "" when the
	// node sits directly under root.
	NodeMemberOf() string

	canonical() ir.IRObject
}

// Condition is a leaf test: a member path, an operator and its values.
//
// Values produced by the parser are strings or nil. Programmatic callers may
// use any Go value; the predicate compiler coerces each one to the member type.
type Condition struct {
	Name     string
	Path     string
	Operator Operator
	Values   []any
	MemberOf string
}

// Group combines its children under a conjunction.
type Group struct {
	Name        string
	Conjunction Conjunction
	Children    []Node
	MemberOf    string
}

// NewRoot returns an empty root group.
func NewRoot() *Group {
	return &Group{Name: RootName, Conjunction: And}
}

func (c *Condition) NodeName() string     { return c.Name }
func (c *Condition) NodeMemberOf() string { return c.MemberOf }
func (g *Group) NodeName() string         { return g.Name }
func (g *Group) NodeMemberOf() string     { return g.MemberOf }

// Blank reports whether the condition's path has no member segments,
// e.g. "", "  " or "..".
func (c *Condition) Blank() bool {
	return strings.Trim(c.Path, ". \t") == ""
}

// Len returns the number of nodes in the tree rooted at g, including g.
func (g *Group) Len() int {
	n := 0
	Walk(g, func(Node, int) bool { n++; return true })
	return n
}

// Walk visits node and its descendants depth-first in child order.
// fn receives each node with its depth (the starting node has depth 0);
// returning false skips that node's children. nil children are skipped.
func Walk(node Node, fn func(n Node, depth int) bool) {
	walk(node, 0, fn)
}

func walk(node Node, depth int, fn func(Node, int) bool) {
	if isNil(node) {
		return
	}
	if !fn(node, depth) {
		return
	}
	if g, ok := node.(*Group); ok {
		for _, child := range g.Children {
			walk(child, depth+1, fn)
		}
	}
}

// isNil catches typed nil pointers stored in the Node interface.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *Condition:
		return n == nil
	case *Group:
		return n == nil
	default:
		return false
	}
}

// Canonical returns the tree as an IR object suitable for canonical JSON.
func (g *Group) Canonical() ir.IRObject {
	return g.canonical()
}

// ID returns the content hash of the tree's canonical form. Two trees with
// equal names, structure, operators and values have equal IDs. Strings are
// NFC normalized before hashing, so ID is for display and comparison across
// processes; use Key for exact identity.
func (g *Group) ID() (string, error) {
	return ir.TreeID(g.canonical())
}

func (g *Group) canonical() ir.IRObject {
	children := make(ir.IRArray, 0, len(g.Children))
	for _, child := range g.Children {
		if isNil(child) {
			continue
		}
		children = append(children, child.canonical())
	}
	return ir.IRObject{
		"type":        ir.IRString("group"),
		"name":        ir.IRString(g.Name),
		"conjunction": ir.IRString(g.Conjunction.String()),
		"member_of":   ir.IRString(g.MemberOf),
		"children":    children,
	}
}

// Canonical returns the condition as an IR object.
func (c *Condition) Canonical() ir.IRObject {
	return c.canonical()
}

func (c *Condition) canonical() ir.IRObject {
	values := make(ir.IRArray, len(c.Values))
	for i, v := range c.Values {
		values[i] = canonicalValue(v)
	}
	return ir.IRObject{
		"type":      ir.IRString("condition"),
		"name":      ir.IRString(c.Name),
		"path":      ir.IRString(c.Path),
		"operator":  ir.IRString(c.Operator.String()),
		"values":    values,
		"member_of": ir.IRString(c.MemberOf),
	}
}

// canonicalValue converts a condition value to IR. Values with no canonical
// form (channels, funcs, non-string-keyed maps, NaN, infinities and unsigned
// integers past the int64 range) are described by type and text so that
// distinct values still hash differently.
func canonicalValue(v any) ir.IRValue {
	if iv, err := ir.FromNative(v); err == nil && !overflowsInt(v) {
		if _, err := ir.MarshalCanonical(iv); err == nil {
			return iv
		}
	}
	return ir.IRObject{
		"go_type": ir.IRString(fmt.Sprintf("%T", v)),
		"text":    ir.IRString(fmt.Sprintf("%v", v)),
	}
}

func overflowsInt(v any) bool {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() > math.MaxInt64
	}
	return false
}

// String renders the tree as indented text, one node per line.
func (g *Group) String() string {
	var sb strings.Builder
	_ = g.Format(&sb)
	return sb.String()
}

// Format writes the indented text rendering of the tree to w.
//
//	root (and)
//	  score-and-group (and)
//	    score-0: score GreaterThan [80]
func (g *Group) Format(w io.Writer) error {
	var err error
	Walk(g, func(n Node, depth int) bool {
		if err != nil {
			return false
		}
		indent := strings.Repeat("  ", depth)
		switch n := n.(type) {
		case *Group:
			_, err = fmt.Fprintf(w, "%s%s (%s)\n", indent, n.Name, n.Conjunction)
		case *Condition:
			_, err = fmt.Fprintf(w, "%s%s: %s %s %s\n", indent, n.Name, n.Path, n.Operator, formatValues(n.Values))
		}
		return true
	})
	return err
}

func formatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
