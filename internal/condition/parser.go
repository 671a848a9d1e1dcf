package condition

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const (
	// DefaultParam is the query parameter that carries filters.
	DefaultParam = "filter"
	// DefaultMatchTimeout bounds a single key decomposition attempt.
	DefaultMatchTimeout = 50 * time.Millisecond
)

// keyPattern splits "param[a][b][c]" into the parameter name (group 1) and
// one capture per bracket segment (group 2).
const keyPattern = `^([^\[\]]+)(?:\[([^\[\]]*)\])+$`

// Parser turns bracket-notation query strings into condition trees.
// A Parser is safe for concurrent use.
type Parser struct {
	param   string
	timeout time.Duration
	logger  *slog.Logger
	keyRe   *regexp2.Regexp
}

// Option configures a Parser.
type Option func(*Parser)

// WithParam sets the filter parameter name. Matching is case-insensitive.
func WithParam(name string) Option {
	return func(p *Parser) {
		if name = strings.TrimSpace(name); name != "" {
			p.param = name
		}
	}
}

// WithMatchTimeout bounds each key decomposition. A pair whose key takes
// longer is dropped.
func WithMatchTimeout(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger used for dropped-pair diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser returns a Parser with the given options applied.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		param:   DefaultParam,
		timeout: DefaultMatchTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.keyRe = regexp2.MustCompile(keyPattern, regexp2.None)
	p.keyRe.MatchTimeout = p.timeout
	return p
}

var defaultParser = NewParser()

// Parse parses raw with the default parser.
func Parse(raw string) *Group {
	return defaultParser.Parse(raw)
}

// TryParse parses raw with the default parser.
func TryParse(raw string) (*Group, bool) {
	return defaultParser.TryParse(raw)
}

// Parse returns the condition tree described by raw. It never fails: blank
// input or input without filter keys yields an empty root group.
func (p *Parser) Parse(raw string) *Group {
	root, _ := p.parse(raw)
	return root
}

// TryParse is Parse that also reports whether anything filter-related was
// recognized. It returns (nil, false) for blank input and for input in which
// no key has the PARAM[...] shape. A recognized pair that is later dropped
// still counts as filter-related.
func (p *Parser) TryParse(raw string) (*Group, bool) {
	root, recognized := p.parse(raw)
	if !recognized {
		return nil, false
	}
	return root, true
}

// pendingGroup is a group as declared, before nesting is resolved.
// conjSet records whether any mention has stated a conjunction yet.
type pendingGroup struct {
	group   *Group
	parent  string
	seq     int
	conjSet bool
}

type pendingCondition struct {
	cond *Condition
	seq  int
}

// parseState accumulates one parse. seq orders nodes by first appearance.
type parseState struct {
	groups     map[string]*pendingGroup
	order      []*pendingGroup
	conditions []pendingCondition
	counters   map[string]int
	seq        int
	recognized bool
}

func (p *Parser) parse(raw string) (*Group, bool) {
	root := NewRoot()
	st := &parseState{
		groups:   map[string]*pendingGroup{RootName: {group: root}},
		counters: map[string]int{},
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return root, false
	}

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		p.pair(st, pair)
	}

	st.resolve()
	return root, st.recognized
}

// pair interprets one key=value pair, recording what it declares in st.
func (p *Parser) pair(st *parseState, pair string) {
	rawKey, rawValue, _ := strings.Cut(pair, "=")

	key, err := url.QueryUnescape(rawKey)
	if err != nil {
		p.drop(rawKey, "undecodable key")
		return
	}
	value, err := url.QueryUnescape(rawValue)
	if err != nil {
		p.drop(key, "undecodable value")
		return
	}

	param, segments, ok := p.decompose(key)
	if !ok || !strings.EqualFold(param, p.param) {
		return
	}
	st.recognized = true

	if strings.EqualFold(segments[len(segments)-1], "group") {
		if reason := st.declare(segments[:len(segments)-1], value); reason != "" {
			p.drop(key, reason)
		}
		return
	}
	if reason := st.condition(segments, value); reason != "" {
		p.drop(key, reason)
	}
}

// decompose matches key against the bracket shape within the match timeout.
func (p *Parser) decompose(key string) (string, []string, bool) {
	m, err := p.keyRe.FindStringMatch(key)
	if err != nil {
		p.logger.Debug("filter key decomposition failed", "key", key, "error", err)
		return "", nil, false
	}
	if m == nil {
		return "", nil, false
	}
	caps := m.GroupByNumber(2).Captures
	segments := make([]string, len(caps))
	for i, c := range caps {
		segments[i] = strings.TrimSpace(c.String())
	}
	return strings.TrimSpace(m.GroupByNumber(1).String()), segments, true
}

func (p *Parser) drop(key, reason string) {
	p.logger.Debug("dropping filter pair", "key", key, "reason", reason)
}

// declare handles "PARAM[...][group]=name". prefix holds the segments before
// "group": at most one conjunction keyword, with the rest naming the parent.
func (st *parseState) declare(prefix []string, value string) string {
	name := strings.TrimSpace(value)
	if name == "" {
		return "group declaration without a name"
	}

	var conj Conjunction
	hasConj := false
	var parent []string
	for _, seg := range prefix {
		if isConjunction(seg) {
			if hasConj {
				return "repeated conjunction keyword"
			}
			conj, _ = ParseConjunction(seg)
			hasConj = true
			continue
		}
		if isKeyword(seg) {
			return fmt.Sprintf("unexpected %q in group declaration", seg)
		}
		if isIndex(seg) || seg == "" {
			continue
		}
		parent = append(parent, seg)
	}

	st.group(name, conj, hasConj, strings.Join(parent, "."))
	return ""
}

// condition handles every pair that is not a group declaration.
func (st *parseState) condition(segments []string, value string) string {
	i := 0
	var (
		groupName string
		conj      Conjunction
		implicit  bool
		grouped   bool
	)
	switch {
	case isConjunction(segments[0]):
		conj, _ = ParseConjunction(segments[0])
		implicit, grouped = true, true
		i = 1
	case len(segments) > 1 && !isKeyword(segments[0]) && isConjunction(segments[1]):
		groupName = segments[0]
		conj, _ = ParseConjunction(segments[1])
		grouped = true
		i = 2
	}
	// An ordinal directly after the conjunction keyword (or leading an
	// ungrouped key) only keeps otherwise identical keys distinct.
	if i < len(segments) && isIndex(segments[i]) {
		i++
	}

	op := EqualTo
	end := len(segments)
	if end > i && isKeyword(segments[end-1]) {
		parsed, ok := ParseOperator(segments[end-1])
		if !ok {
			return fmt.Sprintf("unknown operator %q", segments[end-1])
		}
		op = parsed
		end--
	}

	parts := make([]string, 0, end-i)
	for _, seg := range segments[i:end] {
		if isKeyword(seg) {
			return fmt.Sprintf("unexpected %q in member path", seg)
		}
		parts = append(parts, seg)
	}
	path := strings.Join(parts, ".")

	if implicit {
		groupName = path + "-" + conj.String() + "-group"
	}
	if grouped {
		st.group(groupName, conj, true, "")
	}

	n := st.counters[path]
	st.counters[path] = n + 1
	st.conditions = append(st.conditions, pendingCondition{
		cond: &Condition{
			Name:     fmt.Sprintf("%s-%d", path, n),
			Path:     path,
			Operator: op,
			Values:   conditionValues(op, value),
			MemberOf: groupName,
		},
		seq: st.next(),
	})
	return ""
}

// group records a mention of a group. The first mention fixes its position;
// the first mention that states a conjunction fixes the conjunction, and the
// first that names a parent fixes the parent. Groups with no stated
// conjunction are And groups. Root is never changed.
func (st *parseState) group(name string, conj Conjunction, hasConj bool, parent string) {
	if name == RootName {
		return
	}
	pg, ok := st.groups[name]
	if !ok {
		pg = &pendingGroup{
			group: &Group{Name: name, Conjunction: And},
			seq:   st.next(),
		}
		st.groups[name] = pg
		st.order = append(st.order, pg)
	}
	if hasConj && !pg.conjSet {
		pg.group.Conjunction = conj
		pg.conjSet = true
	}
	if parent != "" && pg.parent == "" {
		pg.parent = parent
	}
}

func (st *parseState) next() int {
	st.seq++
	return st.seq
}

type orderedChild struct {
	node Node
	seq  int
}

// resolve attaches conditions to their groups, then nests groups under their
// declared parents. Parents that are missing or would close a cycle leave the
// group under root.
func (st *parseState) resolve() {
	children := map[*Group][]orderedChild{}
	rootGroup := st.groups[RootName]

	for _, pc := range st.conditions {
		target := rootGroup
		if pc.cond.MemberOf != "" {
			if pg, ok := st.groups[pc.cond.MemberOf]; ok {
				target = pg
			}
		}
		if target == rootGroup {
			pc.cond.MemberOf = ""
		}
		children[target.group] = append(children[target.group], orderedChild{pc.cond, pc.seq})
	}

	parents := map[*pendingGroup]*pendingGroup{}
	for _, pg := range st.order {
		parent := rootGroup
		if candidate, ok := st.groups[pg.parent]; ok && pg.parent != "" && !closesCycle(parents, pg, candidate) {
			parent = candidate
		}
		parents[pg] = parent
		if parent == rootGroup {
			pg.group.MemberOf = ""
		} else {
			pg.group.MemberOf = parent.group.Name
		}
		children[parent.group] = append(children[parent.group], orderedChild{pg.group, pg.seq})
	}

	for g, nodes := range children {
		sort.SliceStable(nodes, func(a, b int) bool { return nodes[a].seq < nodes[b].seq })
		g.Children = make([]Node, len(nodes))
		for i, oc := range nodes {
			g.Children[i] = oc.node
		}
	}
}

// closesCycle reports whether placing child under parent would make child its
// own ancestor.
func closesCycle(parents map[*pendingGroup]*pendingGroup, child, parent *pendingGroup) bool {
	for cur := parent; cur != nil; cur = parents[cur] {
		if cur == child {
			return true
		}
	}
	return false
}

// conditionValues returns the values for a condition with operator op. Regex
// patterns are kept whole since "," and "null" are ordinary pattern text; a
// pattern that is just "null" is absent.
func conditionValues(op Operator, value string) []any {
	if op != Regex {
		return splitValues(value)
	}
	if strings.EqualFold(strings.TrimSpace(value), "null") {
		return []any{nil}
	}
	return []any{value}
}

// splitValues splits a decoded value on ",". A "null" element (any case) is nil.
func splitValues(value string) []any {
	parts := strings.Split(value, ",")
	values := make([]any, len(parts))
	for i, part := range parts {
		if strings.EqualFold(strings.TrimSpace(part), "null") {
			values[i] = nil
			continue
		}
		values[i] = part
	}
	return values
}

func isKeyword(seg string) bool {
	return strings.HasPrefix(seg, "$")
}

func isConjunction(seg string) bool {
	_, ok := ParseConjunction(seg)
	return ok && isKeyword(seg)
}

func isIndex(seg string) bool {
	if seg == "" {
		return false
	}
	_, err := strconv.ParseUint(seg, 10, 64)
	return err == nil
}
