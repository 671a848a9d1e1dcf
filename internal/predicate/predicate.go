package predicate

import (
	"reflect"
	"time"

	"github.com/roach88/sieve/internal/eval"
	"github.com/roach88/sieve/internal/queryir"
)

// Predicate is a compiled filter over records of one shape. It is immutable,
// deterministic and safe for concurrent use.
type Predicate struct {
	fn           eval.Func
	expr         queryir.Predicate
	shape        reflect.Type
	treeID       string
	regexTimeout time.Duration
}

// Eval reports whether record satisfies the filter. record must be a value
// of the predicate's shape, a pointer to one, or a reflect.Value holding
// either. Errors come only from Regex patterns.
func (p *Predicate) Eval(record any) (bool, error) {
	if v, ok := record.(reflect.Value); ok {
		return p.fn(v)
	}
	return p.fn(reflect.ValueOf(record))
}

// Match is Eval with evaluation errors counted as no match.
func (p *Predicate) Match(record any) bool {
	ok, err := p.Eval(record)
	return err == nil && ok
}

// Expr returns the data form the predicate was compiled from.
func (p *Predicate) Expr() queryir.Predicate { return p.expr }

// Shape returns the record type, pointers stripped.
func (p *Predicate) Shape() reflect.Type { return p.shape }

// TreeID returns the content hash of the condition tree, or "" for a nil tree.
func (p *Predicate) TreeID() string { return p.treeID }

// RegexTimeout returns the bound on each Regex match. Stores running the data
// form apply the same bound.
func (p *Predicate) RegexTimeout() time.Duration { return p.regexTimeout }

// String renders the data form.
func (p *Predicate) String() string { return queryir.Format(p.expr) }
