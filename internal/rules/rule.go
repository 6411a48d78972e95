package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchKind selects how a rule pattern is compared with a record name.
type MatchKind string

const (
	KindPrefix   MatchKind = "prefix"
	KindSuffix   MatchKind = "suffix"
	KindContains MatchKind = "contains"
	KindRegex    MatchKind = "regex"
)

// Kinds lists the match kinds in evaluation order.
var Kinds = []MatchKind{KindPrefix, KindSuffix, KindContains, KindRegex}

// Rule is a single compiled pattern rule.
type Rule struct {
	ID          string
	Pattern     string
	Kind        MatchKind
	Category    Category
	Weight      int // 0 means the rule set's category weight
	Description string

	re *regexp.Regexp
}

// NewRule builds and compiles a rule. Non-regex patterns are compared lower-cased and regex
// patterns are compiled case-insensitive, so names match regardless of how they were exported.
func NewRule(id string, kind MatchKind, category Category, pattern string, weight int) (Rule, error) {
	r := Rule{
		ID:       id,
		Pattern:  pattern,
		Kind:     kind,
		Category: category,
		Weight:   weight,
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("%s:%s:%s", kind, category, pattern)
	}
	if pattern == "" {
		return Rule{}, fmt.Errorf("rule %s: empty pattern", r.ID)
	}
	if weight < 0 {
		return Rule{}, fmt.Errorf("rule %s: negative weight %d", r.ID, weight)
	}

	switch kind {
	case KindRegex:
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		r.re = re
	case KindPrefix, KindSuffix, KindContains:
		r.Pattern = strings.ToLower(pattern)
	default:
		return Rule{}, fmt.Errorf("rule %s: unknown match kind %q", r.ID, kind)
	}
	return r, nil
}

// Match reports whether the rule fires for a lower-cased name. leftmost is the name's first
// label; suffix rules match either the full name or that label.
func (r *Rule) Match(name, leftmost string) bool {
	switch r.Kind {
	case KindPrefix:
		return strings.HasPrefix(name, r.Pattern)
	case KindSuffix:
		return strings.HasSuffix(name, r.Pattern) || strings.HasSuffix(leftmost, r.Pattern)
	case KindContains:
		return strings.Contains(name, r.Pattern)
	case KindRegex:
		return r.re != nil && r.re.MatchString(name)
	}
	return false
}
