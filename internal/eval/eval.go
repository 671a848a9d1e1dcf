// Package eval turns queryir predicates into functions over records.
//
// Compile resolves every field of the predicate against the record shape
// once; the returned Func only reads members and compares values. Literals
// whose type differs from the member's runtime type (members reached through
// interfaces) are coerced at evaluation time; a literal that cannot be
// coerced never matches.
package eval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/roach88/sieve/internal/coerce"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// DefaultRegexTimeout bounds a single pattern match.
const DefaultRegexTimeout = 100 * time.Millisecond

// Func evaluates a compiled predicate against one record. The record must
// be a value of the compiled shape or a pointer to one.
type Func func(record reflect.Value) (bool, error)

// Option configures Compile.
type Option func(*compiler)

// WithRegexTimeout bounds each Regex match.
func WithRegexTimeout(d time.Duration) Option {
	return func(c *compiler) {
		if d > 0 {
			c.regexTimeout = d
		}
	}
}

type compiler struct {
	shape        reflect.Type
	regexTimeout time.Duration
}

// Compile builds the evaluator for p over records of shape. A nil predicate
// is true for every record.
func Compile(p queryir.Predicate, shape reflect.Type, opts ...Option) (Func, error) {
	c := &compiler{shape: shape, regexTimeout: DefaultRegexTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c.compile(p)
}

func constant(v bool) Func {
	return func(reflect.Value) (bool, error) { return v, nil }
}

func (c *compiler) accessor(field string) (*resolve.Accessor, error) {
	acc, ok := resolve.Resolve(field, c.shape)
	if !ok {
		return nil, fmt.Errorf("field %q does not resolve on %s", field, c.shape)
	}
	return acc, nil
}

func (c *compiler) compile(p queryir.Predicate) (Func, error) {
	switch pred := queryir.Deref(p).(type) {
	case nil:
		return constant(true), nil
	case queryir.Const:
		return constant(pred.Value), nil
	case queryir.And:
		return c.conjunction(pred.Predicates, true)
	case queryir.Or:
		return c.conjunction(pred.Predicates, false)
	case queryir.Compare:
		return c.compare(pred)
	case queryir.Between:
		return c.between(pred)
	case queryir.In:
		return c.in(pred)
	case queryir.Match:
		return c.match(pred)
	case queryir.IsNull:
		acc, err := c.accessor(pred.Field)
		if err != nil {
			return nil, err
		}
		return func(r reflect.Value) (bool, error) {
			_, present := acc.GetValue(r)
			return present == pred.Negate, nil
		}, nil
	case queryir.Regex:
		return c.regex(pred)
	default:
		return nil, fmt.Errorf("unknown predicate type: %T", p)
	}
}

// conjunction evaluates children in order and stops at the first child that
// decides the result. all selects And semantics; otherwise Or.
func (c *compiler) conjunction(preds []queryir.Predicate, all bool) (Func, error) {
	fns := make([]Func, 0, len(preds))
	for _, sub := range preds {
		if sub == nil {
			continue
		}
		fn, err := c.compile(sub)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	if len(fns) == 0 {
		return constant(all), nil
	}
	return func(r reflect.Value) (bool, error) {
		for _, fn := range fns {
			ok, err := fn(r)
			if err != nil {
				return false, err
			}
			if ok != all {
				return ok, nil
			}
		}
		return all, nil
	}, nil
}

func (c *compiler) compare(pred queryir.Compare) (Func, error) {
	acc, err := c.accessor(pred.Field)
	if err != nil {
		return nil, err
	}
	return func(r reflect.Value) (bool, error) {
		v, present := acc.GetValue(r)
		if pred.Value == nil {
			return present == (pred.Op == queryir.Ne), nil
		}
		if !present {
			return pred.Op == queryir.Ne, nil
		}
		switch pred.Op {
		case queryir.Eq:
			return Equal(v, pred.Value), nil
		case queryir.Ne:
			return !Equal(v, pred.Value), nil
		}
		cmp, ok := Compare(v, pred.Value)
		if !ok {
			return false, nil
		}
		switch pred.Op {
		case queryir.Gt:
			return cmp > 0, nil
		case queryir.Gte:
			return cmp >= 0, nil
		case queryir.Lt:
			return cmp < 0, nil
		case queryir.Lte:
			return cmp <= 0, nil
		default:
			return false, fmt.Errorf("unknown compare operator %s", pred.Op)
		}
	}, nil
}

func (c *compiler) between(pred queryir.Between) (Func, error) {
	acc, err := c.accessor(pred.Field)
	if err != nil {
		return nil, err
	}
	return func(r reflect.Value) (bool, error) {
		v, present := acc.GetValue(r)
		if !present {
			return pred.Negate, nil
		}
		lo, okLo := Compare(v, pred.Low)
		hi, okHi := Compare(v, pred.High)
		inside := okLo && okHi && lo > 0 && hi < 0
		return inside != pred.Negate, nil
	}, nil
}

func (c *compiler) in(pred queryir.In) (Func, error) {
	acc, err := c.accessor(pred.Field)
	if err != nil {
		return nil, err
	}
	hasNull := false
	members := make([]any, 0, len(pred.Values))
	for _, m := range pred.Values {
		if m == nil {
			hasNull = true
			continue
		}
		members = append(members, m)
	}
	return func(r reflect.Value) (bool, error) {
		v, present := acc.GetValue(r)
		found := !present && hasNull
		if present {
			for _, m := range members {
				if Equal(v, m) {
					found = true
					break
				}
			}
		}
		return found != pred.Negate, nil
	}, nil
}

func (c *compiler) match(pred queryir.Match) (Func, error) {
	acc, err := c.accessor(pred.Field)
	if err != nil {
		return nil, err
	}
	var test func(reflect.Value) bool
	if pred.Collection {
		test = func(v reflect.Value) bool { return matchCollection(v, pred.Kind, pred.Value) }
	} else {
		text := coerce.Text(pred.Value)
		test = func(v reflect.Value) bool { return matchText(coerce.Text(v.Interface()), pred.Kind, text) }
	}
	return func(r reflect.Value) (bool, error) {
		v, present := acc.GetValue(r)
		if !present {
			return pred.Negate, nil
		}
		return test(v) != pred.Negate, nil
	}, nil
}

func matchText(s string, kind queryir.MatchKind, text string) bool {
	switch kind {
	case queryir.Prefix:
		return strings.HasPrefix(s, text)
	case queryir.Suffix:
		return strings.HasSuffix(s, text)
	default:
		return strings.Contains(s, text)
	}
}

func matchCollection(v reflect.Value, kind queryir.MatchKind, lit any) bool {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return false
	}
	n := v.Len()
	if n == 0 {
		return false
	}
	elem := func(i int) (reflect.Value, bool) {
		return resolve.Indirect(v.Index(i))
	}
	equalAt := func(i int) bool {
		e, ok := elem(i)
		if !ok {
			return lit == nil
		}
		return lit != nil && Equal(e, lit)
	}
	switch kind {
	case queryir.Prefix:
		return equalAt(0)
	case queryir.Suffix:
		return equalAt(n - 1)
	default:
		for i := 0; i < n; i++ {
			if equalAt(i) {
				return true
			}
		}
		return false
	}
}

func (c *compiler) regex(pred queryir.Regex) (Func, error) {
	acc, err := c.accessor(pred.Field)
	if err != nil {
		return nil, err
	}
	limit := c.regexTimeout
	var (
		once  sync.Once
		re    *regexp2.Regexp
		reErr error
	)
	compile := func() {
		re, reErr = regexp2.Compile(pred.Pattern, regexp2.None)
		if reErr != nil {
			reErr = fmt.Errorf("field %s: invalid pattern %q: %w", pred.Field, pred.Pattern, reErr)
			return
		}
		re.MatchTimeout = limit
	}
	return func(r reflect.Value) (bool, error) {
		v, present := acc.GetValue(r)
		if !present {
			return false, nil
		}
		once.Do(compile)
		if reErr != nil {
			return false, reErr
		}
		ok, err := re.MatchString(coerce.Text(v.Interface()))
		if err != nil {
			return false, fmt.Errorf("field %s: %w", pred.Field, err)
		}
		return ok, nil
	}, nil
}
