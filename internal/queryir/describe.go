package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// Canonical returns the predicate as an IR value. Literals are converted
// with ir.FromNative, so typed values (times, decimals, UUIDs) appear as
// their canonical text.
func Canonical(p Predicate) (ir.IRValue, error) {
	node := func(kind string, fields ir.IRObject) ir.IRObject {
		fields["type"] = ir.IRString(kind)
		return fields
	}
	lit := func(v any) (ir.IRValue, error) {
		iv, err := ir.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("literal %v: %w", v, err)
		}
		return iv, nil
	}
	list := func(preds []Predicate) (ir.IRArray, error) {
		arr := make(ir.IRArray, 0, len(preds))
		for _, sub := range preds {
			c, err := Canonical(sub)
			if err != nil {
				return nil, err
			}
			arr = append(arr, c)
		}
		return arr, nil
	}

	switch pred := Deref(p).(type) {
	case nil:
		return ir.IRNull{}, nil
	case Const:
		return node("const", ir.IRObject{"value": ir.IRBool(pred.Value)}), nil
	case And:
		arr, err := list(pred.Predicates)
		if err != nil {
			return nil, err
		}
		return node("and", ir.IRObject{"predicates": arr}), nil
	case Or:
		arr, err := list(pred.Predicates)
		if err != nil {
			return nil, err
		}
		return node("or", ir.IRObject{"predicates": arr}), nil
	case Compare:
		v, err := lit(pred.Value)
		if err != nil {
			return nil, err
		}
		return node("compare", ir.IRObject{
			"field": ir.IRString(pred.Field),
			"op":    ir.IRString(pred.Op.String()),
			"value": v,
		}), nil
	case Between:
		low, err := lit(pred.Low)
		if err != nil {
			return nil, err
		}
		high, err := lit(pred.High)
		if err != nil {
			return nil, err
		}
		return node("between", ir.IRObject{
			"field":  ir.IRString(pred.Field),
			"low":    low,
			"high":   high,
			"negate": ir.IRBool(pred.Negate),
		}), nil
	case In:
		values := make(ir.IRArray, len(pred.Values))
		for i, member := range pred.Values {
			v, err := lit(member)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return node("in", ir.IRObject{
			"field":  ir.IRString(pred.Field),
			"values": values,
			"negate": ir.IRBool(pred.Negate),
		}), nil
	case Match:
		v, err := lit(pred.Value)
		if err != nil {
			return nil, err
		}
		return node("match", ir.IRObject{
			"field":      ir.IRString(pred.Field),
			"kind":       ir.IRString(pred.Kind.String()),
			"value":      v,
			"collection": ir.IRBool(pred.Collection),
			"negate":     ir.IRBool(pred.Negate),
		}), nil
	case IsNull:
		return node("is_null", ir.IRObject{
			"field":  ir.IRString(pred.Field),
			"negate": ir.IRBool(pred.Negate),
		}), nil
	case Regex:
		return node("regex", ir.IRObject{
			"field":   ir.IRString(pred.Field),
			"pattern": ir.IRString(pred.Pattern),
		}), nil
	default:
		return nil, fmt.Errorf("unknown predicate type: %T", p)
	}
}

// ID returns the content hash of the predicate's canonical form.
func ID(p Predicate) (string, error) {
	c, err := Canonical(p)
	if err != nil {
		return "", err
	}
	return ir.ContentID(ir.DomainPredicate, c)
}

// Format renders the predicate as a one-line expression for diagnostics:
//
//	(Score > 80 AND Score < 95) OR Name STARTS WITH "Al"
func Format(p Predicate) string {
	var sb strings.Builder
	format(&sb, p, false)
	return sb.String()
}

func format(sb *strings.Builder, p Predicate, nested bool) {
	group := func(keyword string, preds []Predicate, empty string) {
		if len(preds) == 0 {
			sb.WriteString(empty)
			return
		}
		if len(preds) == 1 {
			format(sb, preds[0], nested)
			return
		}
		if nested {
			sb.WriteByte('(')
		}
		for i, sub := range preds {
			if i > 0 {
				sb.WriteString(" " + keyword + " ")
			}
			format(sb, sub, true)
		}
		if nested {
			sb.WriteByte(')')
		}
	}
	not := func(negate bool) string {
		if negate {
			return "NOT "
		}
		return ""
	}

	switch pred := Deref(p).(type) {
	case nil:
		sb.WriteString("TRUE")
	case Const:
		if pred.Value {
			sb.WriteString("TRUE")
		} else {
			sb.WriteString("FALSE")
		}
	case And:
		group("AND", pred.Predicates, "TRUE")
	case Or:
		group("OR", pred.Predicates, "FALSE")
	case Compare:
		if pred.Value == nil {
			if pred.Op == Ne {
				fmt.Fprintf(sb, "%s IS NOT NULL", pred.Field)
			} else {
				fmt.Fprintf(sb, "%s IS NULL", pred.Field)
			}
			return
		}
		fmt.Fprintf(sb, "%s %s %s", pred.Field, pred.Op, literal(pred.Value))
	case Between:
		fmt.Fprintf(sb, "%s %sBETWEEN %s AND %s", pred.Field, not(pred.Negate), literal(pred.Low), literal(pred.High))
	case In:
		members := make([]string, len(pred.Values))
		for i, v := range pred.Values {
			members[i] = literal(v)
		}
		fmt.Fprintf(sb, "%s %sIN (%s)", pred.Field, not(pred.Negate), strings.Join(members, ", "))
	case Match:
		verb := map[MatchKind]string{Contains: "CONTAINS", Prefix: "STARTS WITH", Suffix: "ENDS WITH"}[pred.Kind]
		if pred.Collection {
			verb = map[MatchKind]string{Contains: "HAS", Prefix: "FIRST IS", Suffix: "LAST IS"}[pred.Kind]
		}
		fmt.Fprintf(sb, "%s %s%s %s", pred.Field, not(pred.Negate), verb, literal(pred.Value))
	case IsNull:
		fmt.Fprintf(sb, "%s IS %sNULL", pred.Field, not(pred.Negate))
	case Regex:
		fmt.Fprintf(sb, "%s REGEXP %q", pred.Field, pred.Pattern)
	default:
		fmt.Fprintf(sb, "<%T>", p)
	}
}

func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", val)
	case fmt.Stringer:
		return fmt.Sprintf("%q", val.String())
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Deref returns the value form of a pointer predicate node, or nil for a
// nil pointer. Backends switch over the value forms only.
func Deref(p Predicate) Predicate {
	switch pred := p.(type) {
	case *Const:
		if pred == nil {
			return nil
		}
		return *pred
	case *And:
		if pred == nil {
			return nil
		}
		return *pred
	case *Or:
		if pred == nil {
			return nil
		}
		return *pred
	case *Compare:
		if pred == nil {
			return nil
		}
		return *pred
	case *Between:
		if pred == nil {
			return nil
		}
		return *pred
	case *In:
		if pred == nil {
			return nil
		}
		return *pred
	case *Match:
		if pred == nil {
			return nil
		}
		return *pred
	case *IsNull:
		if pred == nil {
			return nil
		}
		return *pred
	case *Regex:
		if pred == nil {
			return nil
		}
		return *pred
	default:
		return p
	}
}
