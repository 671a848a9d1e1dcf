package store

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/roach88/sieve/internal/coerce"
)

// regexpMatcher backs one store's REGEXP function. Compiled patterns are
// shared by the store's connections.
type regexpMatcher struct {
	timeout  time.Duration
	patterns *xsync.MapOf[string, *regexp2.Regexp]
}

func newRegexpMatcher(timeout time.Duration) *regexpMatcher {
	return &regexpMatcher{
		timeout:  timeout,
		patterns: xsync.NewMapOf[string, *regexp2.Regexp](),
	}
}

// match implements "value REGEXP pattern". SQLite passes the pattern first.
// A NULL value never matches.
func (m *regexpMatcher) match(pattern, value any) (bool, error) {
	if value == nil || pattern == nil {
		return false, nil
	}
	text, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("regexp: pattern must be text, got %T", pattern)
	}

	re, ok := m.patterns.Load(text)
	if !ok {
		var err error
		re, err = regexp2.Compile(text, regexp2.None)
		if err != nil {
			return false, fmt.Errorf("regexp: %w", err)
		}
		re.MatchTimeout = m.timeout
		re, _ = m.patterns.LoadOrStore(text, re)
	}

	matched, err := re.MatchString(coerce.Text(value))
	if err != nil {
		return false, fmt.Errorf("regexp: %w", err)
	}
	return matched, nil
}
