package attribution

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvalidSource  = errors.New("invalid source label")
	ErrInvalidPattern = errors.New("invalid rule pattern")
)

// sourceLabel restricts labels to short lowercase identifiers without whitespace.
var sourceLabel = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,31}$`)

// Rule pairs a case-insensitive pattern with the source label reported when it matches.
type Rule struct {
	Pattern *regexp.Regexp
	Source  string
}

// NewRule compiles pattern case-insensitively and validates the source label.
func NewRule(pattern, source string) (Rule, error) {
	if !sourceLabel.MatchString(source) {
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}

	if pattern == "" {
		return Rule{}, fmt.Errorf("%w: empty pattern for source %q", ErrInvalidPattern, source)
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
	}

	return Rule{Pattern: re, Source: source}, nil
}

// MustRule is like NewRule but panics on error. Used for the built-in tables.
func MustRule(pattern, source string) Rule {
	rule, err := NewRule(pattern, source)
	if err != nil {
		panic(err)
	}

	return rule
}

// Matcher reports the source label of the first rule matching s.
type Matcher interface {
	Match(s string) (source string, ok bool)
}

// Table is an ordered, read-only list of rules. Earlier rules take priority.
type Table struct {
	rules []Rule
}

// NewTable copies rules into a new table, preserving order.
func NewTable(rules ...Rule) *Table {
	return &Table{rules: append([]Rule(nil), rules...)}
}

// Match scans the table in order and returns the first matching source.
func (t *Table) Match(s string) (string, bool) {
	for _, rule := range t.rules {
		if rule.Pattern.MatchString(s) {
			return rule.Source, true
		}
	}

	return "", false
}

// Rules returns a copy of the table's rules in priority order.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

var _ Matcher = (*Table)(nil)
