package querysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/store"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	// Column maps a member path to its column name.
	Column func(path string) string
	// OrderBy is the column every SELECT is ordered by.
	OrderBy string
}

// NewSQLCompiler creates a new SQLCompiler using the store's column layout.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		Column:  store.ColumnName,
		OrderBy: store.SeqColumn,
	}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// CompileWhere compiles a bare predicate to a WHERE clause fragment.
func (c *SQLCompiler) CompileWhere(p queryir.Predicate) (string, []any, error) {
	return c.compilePredicate(p)
}

// compileSelect compiles a queryir.Select to SQL.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if !identifier(q.From) {
		return "", nil, fmt.Errorf("invalid table name %q", q.From)
	}
	selectClause, err := c.compileBindings(q.Bindings)
	if err != nil {
		return "", nil, err
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		selectClause,
		q.From,
		whereClause,
		c.stableOrderKey())

	return sql, params, nil
}

// compileBindings converts bindings map to SELECT column list.
// Example: {"Address.City": "city"} → "address_city AS city"
// Keys are sorted for deterministic output.
func (c *SQLCompiler) compileBindings(bindings map[string]string) (string, error) {
	if len(bindings) == 0 {
		return "*", nil
	}

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, path := range keys {
		col, err := c.column(path)
		if err != nil {
			return "", err
		}
		alias := bindings[path]
		if alias == "" || alias == col {
			parts = append(parts, col)
			continue
		}
		if !identifier(alias) {
			return "", fmt.Errorf("invalid column alias %q", alias)
		}
		parts = append(parts, fmt.Sprintf("%s AS %s", col, alias))
	}

	return strings.Join(parts, ", "), nil
}

// stableOrderKey returns the ORDER BY clause for a query.
// Uses COLLATE BINARY for deterministic text ordering.
func (c *SQLCompiler) stableOrderKey() string {
	return c.OrderBy + " ASC COLLATE BINARY"
}

func (c *SQLCompiler) column(path string) (string, error) {
	name := c.Column(path)
	if !identifier(name) {
		return "", fmt.Errorf("member %q maps to invalid column %q", path, name)
	}
	return name, nil
}

// compilePredicate compiles a queryir.Predicate to SQL WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := queryir.Deref(p).(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Const:
		if pred.Value {
			return "1 = 1", nil, nil
		}
		return "1 = 0", nil, nil
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case queryir.Compare:
		return c.compileCompare(pred)
	case queryir.Between:
		return c.compileBetween(pred)
	case queryir.In:
		return c.compileIn(pred)
	case queryir.Match:
		return c.compileMatch(pred)
	case queryir.IsNull:
		return c.compileIsNull(pred)
	case queryir.Regex:
		return c.compileRegex(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileJunction joins the parts with AND or OR. An empty junction is its
// identity element.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range preds {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	if len(sqlParts) == 1 {
		return sqlParts[0], allParams, nil
	}
	return "(" + strings.Join(sqlParts, sep) + ")", allParams, nil
}

func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	col, err := c.column(cmp.Field)
	if err != nil {
		return "", nil, err
	}
	if cmp.Value == nil {
		if cmp.Op == queryir.Ne {
			return col + " IS NOT NULL", nil, nil
		}
		if cmp.Op == queryir.Eq {
			return col + " IS NULL", nil, nil
		}
		return "1 = 0", nil, nil
	}

	param := store.Param(cmp.Value)
	switch cmp.Op {
	case queryir.Eq:
		return col + " = ?", []any{param}, nil
	case queryir.Ne:
		return fmt.Sprintf("(%s <> ? OR %s IS NULL)", col, col), []any{param}, nil
	case queryir.Gt, queryir.Gte, queryir.Lt, queryir.Lte:
		return fmt.Sprintf("%s %s ?", col, cmp.Op), []any{param}, nil
	default:
		return "", nil, fmt.Errorf("unsupported comparison %s", cmp.Op)
	}
}

func (c *SQLCompiler) compileBetween(b queryir.Between) (string, []any, error) {
	col, err := c.column(b.Field)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("(%s > ? AND %s < ?)", col, col)
	params := []any{store.Param(b.Low), store.Param(b.High)}
	if b.Negate {
		return negate(sql), params, nil
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	col, err := c.column(in.Field)
	if err != nil {
		return "", nil, err
	}

	var (
		marks   []string
		params  []any
		hasNull bool
	)
	for _, v := range in.Values {
		if v == nil {
			hasNull = true
			continue
		}
		marks = append(marks, "?")
		params = append(params, store.Param(v))
	}

	var parts []string
	if len(marks) > 0 {
		parts = append(parts, fmt.Sprintf("%s IN (%s)", col, strings.Join(marks, ", ")))
	}
	if hasNull {
		parts = append(parts, col+" IS NULL")
	}

	var sql string
	switch len(parts) {
	case 0:
		sql = "1 = 0"
	case 1:
		sql = parts[0]
	default:
		sql = "(" + strings.Join(parts, " OR ") + ")"
	}
	if in.Negate {
		return negate(sql), params, nil
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileMatch(m queryir.Match) (string, []any, error) {
	col, err := c.column(m.Field)
	if err != nil {
		return "", nil, err
	}
	param := store.Param(m.Value)

	var (
		sql    string
		params []any
	)
	switch {
	case m.Collection && m.Kind == queryir.Contains:
		sql = fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", col)
		params = []any{param}
	case m.Collection && m.Kind == queryir.Prefix:
		sql = fmt.Sprintf("json_extract(%s, '$[0]') = ?", col)
		params = []any{param}
	case m.Collection && m.Kind == queryir.Suffix:
		sql = fmt.Sprintf("json_extract(%s, '$[#-1]') = ?", col)
		params = []any{param}
	case m.Kind == queryir.Contains:
		sql = fmt.Sprintf("instr(%s, ?) > 0", col)
		params = []any{param}
	case m.Kind == queryir.Prefix:
		sql = fmt.Sprintf("substr(%s, 1, length(?)) = ?", col)
		params = []any{param, param}
	case m.Kind == queryir.Suffix:
		sql = fmt.Sprintf("substr(%s, length(%s) - length(?) + 1) = ?", col, col)
		params = []any{param, param}
	default:
		return "", nil, fmt.Errorf("unsupported match kind %s", m.Kind)
	}

	if m.Negate {
		return negate(sql), params, nil
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileIsNull(n queryir.IsNull) (string, []any, error) {
	col, err := c.column(n.Field)
	if err != nil {
		return "", nil, err
	}
	if n.Negate {
		return col + " IS NOT NULL", nil, nil
	}
	return col + " IS NULL", nil, nil
}

func (c *SQLCompiler) compileRegex(r queryir.Regex) (string, []any, error) {
	col, err := c.column(r.Field)
	if err != nil {
		return "", nil, err
	}
	return col + " REGEXP ?", []any{r.Pattern}, nil
}

// negate inverts a test so that a NULL result (absent member) counts as
// false before the inversion.
func negate(sql string) string {
	return "NOT COALESCE(" + sql + ", 0)"
}

func identifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
