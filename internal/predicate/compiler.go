package predicate

import (
	"log/slog"
	"reflect"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/errors"
	"github.com/roach88/sieve/internal/eval"
	"github.com/roach88/sieve/internal/operators"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/resolve"
)

// UnsupportedOperatorError reports a condition whose operator no operator
// compiler accepts.
type UnsupportedOperatorError = operators.UnsupportedOperatorError

type cacheKey struct {
	shape reflect.Type
	tree  string
}

// Compiler compiles and caches predicates. A Compiler is safe for concurrent
// use; cached entries are never evicted.
type Compiler struct {
	registry     *operators.Registry
	logger       *slog.Logger
	regexTimeout time.Duration
	cache        *xsync.MapOf[cacheKey, *Predicate]
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry replaces the operator registry.
func WithRegistry(r *operators.Registry) Option {
	return func(c *Compiler) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets the logger for cache and degradation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegexTimeout bounds each Regex match of compiled predicates.
func WithRegexTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		if d > 0 {
			c.regexTimeout = d
		}
	}
}

// New returns a Compiler with an empty cache.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		registry:     operators.DefaultRegistry(),
		logger:       slog.Default(),
		regexTimeout: eval.DefaultRegexTimeout,
		cache:        xsync.NewMapOf[cacheKey, *Predicate](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile returns the predicate for tree over records of shape, compiling it
// on the first request for that (shape, tree) pair.
//
// Concurrent first requests may both compile; either result is kept, and
// both behave identically.
func (c *Compiler) Compile(tree *condition.Group, shape reflect.Type) (*Predicate, error) {
	if shape == nil {
		return nil, errors.New("predicate: record shape is nil")
	}
	shape = resolve.Deref(shape)

	id, treeKey := "", ""
	if tree != nil {
		var err error
		if id, err = tree.ID(); err != nil {
			return nil, errors.WithStackTraceAndPrefix(err, "predicate: tree identity")
		}
		treeKey = tree.Key()
	}
	key := cacheKey{shape: shape, tree: treeKey}

	if p, ok := c.cache.Load(key); ok {
		c.logger.Debug("predicate cache hit", "shape", shape.String(), "tree", shortID(id))
		return p, nil
	}

	expr, err := c.Describe(tree, shape)
	if err != nil {
		return nil, err
	}
	fn, err := eval.Compile(expr, shape, eval.WithRegexTimeout(c.regexTimeout))
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "predicate: evaluator")
	}

	p := &Predicate{fn: fn, expr: expr, shape: shape, treeID: id, regexTimeout: c.regexTimeout}
	c.cache.Store(key, p)
	c.logger.Debug("predicate compiled",
		"shape", shape.String(),
		"tree", shortID(id),
		"expr", queryir.Format(expr),
	)
	return p, nil
}

// Describe returns the data form of tree over records of shape without
// compiling or caching an evaluator.
func (c *Compiler) Describe(tree *condition.Group, shape reflect.Type) (queryir.Predicate, error) {
	if shape == nil {
		return nil, errors.New("predicate: record shape is nil")
	}
	if tree == nil {
		return queryir.True, nil
	}
	return c.describe(tree, resolve.Deref(shape))
}

// Len returns the number of cached predicates.
func (c *Compiler) Len() int {
	return c.cache.Size()
}

func (c *Compiler) describe(node condition.Node, shape reflect.Type) (queryir.Predicate, error) {
	switch n := node.(type) {
	case *condition.Group:
		return c.describeGroup(n, shape)
	case *condition.Condition:
		return c.describeCondition(n, shape)
	default:
		return nil, errors.Errorf("predicate: unknown node type %T", node)
	}
}

func (c *Compiler) describeGroup(g *condition.Group, shape reflect.Type) (queryir.Predicate, error) {
	preds := make([]queryir.Predicate, 0, len(g.Children))
	for _, child := range g.Children {
		if isNilNode(child) {
			continue
		}
		p, err := c.describe(child, shape)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if len(preds) == 0 {
		return queryir.True, nil
	}
	if g.Conjunction == condition.Or {
		return &queryir.Or{Predicates: preds}, nil
	}
	return &queryir.And{Predicates: preds}, nil
}

func (c *Compiler) describeCondition(cond *condition.Condition, shape reflect.Type) (queryir.Predicate, error) {
	if cond.Blank() {
		c.logger.Debug("condition has no member path, treating as true", "condition", cond.Name)
		return queryir.True, nil
	}
	acc, ok := resolve.Resolve(cond.Path, shape)
	if !ok {
		c.logger.Debug("condition path does not resolve, treating as true",
			"condition", cond.Name,
			"path", cond.Path,
			"shape", shape.String(),
		)
		return queryir.True, nil
	}

	p, err := c.registry.Build(acc, cond)
	if err != nil {
		var unsupported *UnsupportedOperatorError
		if errors.As(err, &unsupported) {
			return nil, errors.WithStackTrace(err)
		}
		return nil, errors.WithStackTraceAndPrefix(err, "condition %s", cond.Name)
	}
	return p, nil
}

func isNilNode(n condition.Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *condition.Group:
		return v == nil
	case *condition.Condition:
		return v == nil
	default:
		return false
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

var defaultCompiler = New()

// Compile compiles tree with the process-wide compiler.
func Compile(tree *condition.Group, shape reflect.Type) (*Predicate, error) {
	return defaultCompiler.Compile(tree, shape)
}

// Describe returns the data form of tree using the process-wide compiler.
func Describe(tree *condition.Group, shape reflect.Type) (queryir.Predicate, error) {
	return defaultCompiler.Describe(tree, shape)
}

// For compiles tree for records of type T with the process-wide compiler.
func For[T any](tree *condition.Group) (*Predicate, error) {
	return defaultCompiler.Compile(tree, reflect.TypeOf((*T)(nil)).Elem())
}
