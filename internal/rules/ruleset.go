package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dbsmedya/zoneaudit/internal/config"
	"github.com/dbsmedya/zoneaudit/internal/record"
)

// ErrInvalidRuleSet is returned for rule sets that violate their ordering invariants.
var ErrInvalidRuleSet = errors.New("invalid rule set")

// AgePolicy adds a bonus to records untouched for too long.
type AgePolicy struct {
	StaleDays    int
	StaleBonus   int
	AncientDays  int
	AncientBonus int
}

// Group is the rules of one match kind, ordered by category then declaration.
type Group struct {
	Kind  MatchKind
	Rules []Rule
}

// RuleSet is an immutable, validated rule set. It is safe to share between goroutines.
type RuleSet struct {
	Groups          []Group
	BaseScore       int
	Scoring         Levels
	Thresholds      Levels
	Age             AgePolicy
	TypeAdjustments map[record.Type]int
	// AsOf is the reference time for age checks, fixed when the set is compiled.
	AsOf time.Time
	// Source names where the rules came from, e.g. a file path or "built-in".
	Source string
}

// Source provides the rule set to use for the next chunk.
type Source interface {
	Current() *RuleSet
}

// Current lets a RuleSet act as a fixed Source.
func (rs *RuleSet) Current() *RuleSet {
	return rs
}

// Compile validates cfg and builds a RuleSet. asOf becomes the rule set's age reference;
// a zero asOf uses the current time.
func Compile(cfg config.RulesConfig, asOf time.Time) (*RuleSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	rs := &RuleSet{
		BaseScore:       cfg.BaseScore,
		Scoring:         levelsFrom(cfg.Scoring),
		Thresholds:      levelsFrom(cfg.Thresholds),
		TypeAdjustments: make(map[record.Type]int, len(cfg.TypeAdjustments)),
		Age: AgePolicy{
			StaleDays:    cfg.Age.StaleDays,
			StaleBonus:   cfg.Age.StaleBonus,
			AncientDays:  cfg.Age.AncientDays,
			AncientBonus: cfg.Age.AncientBonus,
		},
		AsOf:   asOf.UTC(),
		Source: cfg.File,
	}
	if rs.Source == "" {
		rs.Source = "inline"
	}

	// Config keys arrive lower-cased from viper.
	for name, bonus := range cfg.TypeAdjustments {
		t, ok := record.ParseType(name)
		if !ok {
			return nil, fmt.Errorf("%w: type_adjustments: unsupported record type %q", ErrInvalidRuleSet, name)
		}
		rs.TypeAdjustments[t] = bonus
	}

	for _, kind := range Kinds {
		byCategory := cfg.Patterns[string(kind)]
		group := Group{Kind: kind}
		for _, cat := range Categories {
			for _, p := range byCategory[string(cat)] {
				rule, err := NewRule(p.ID, kind, cat, p.Pattern, p.Weight)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
				}
				rule.Description = p.Description
				group.Rules = append(group.Rules, rule)
			}
		}
		if len(group.Rules) > 0 {
			rs.Groups = append(rs.Groups, group)
		}
	}

	return rs, nil
}

// MustCompile is like Compile but panics on error. It is meant for built-in rules.
func MustCompile(cfg config.RulesConfig, asOf time.Time) *RuleSet {
	rs, err := Compile(cfg, asOf)
	if err != nil {
		panic(err)
	}
	return rs
}

// Default compiles the built-in rules.
func Default(asOf time.Time) *RuleSet {
	rs := MustCompile(config.DefaultRules(), asOf)
	rs.Source = "built-in"
	return rs
}

// Validate re-checks the invariants of an already built rule set. Callers that accept
// rule sets from outside run it before scoring.
func (rs *RuleSet) Validate() error {
	if rs == nil {
		return fmt.Errorf("%w: nil rule set", ErrInvalidRuleSet)
	}

	var problems []string
	if rs.BaseScore < 0 {
		problems = append(problems, "base score cannot be negative")
	}
	if !rs.Thresholds.strictlyDecreasing(rs.BaseScore) {
		problems = append(problems, fmt.Sprintf("thresholds must be strictly decreasing down to base score (got %+v, base %d)",
			rs.Thresholds, rs.BaseScore))
	}
	if !rs.Scoring.strictlyDecreasing(0) {
		problems = append(problems, fmt.Sprintf("scoring weights must be strictly decreasing and positive (got %+v)", rs.Scoring))
	}

	seen := make(map[MatchKind]bool)
	for _, g := range rs.Groups {
		if seen[g.Kind] {
			problems = append(problems, fmt.Sprintf("duplicate %s group", g.Kind))
		}
		seen[g.Kind] = true

		lastRank := Categories[0].Rank() + 1
		for _, r := range g.Rules {
			if r.Kind != g.Kind {
				problems = append(problems, fmt.Sprintf("rule %s: kind %s in %s group", r.ID, r.Kind, g.Kind))
			}
			if r.Category.Rank() == 0 {
				problems = append(problems, fmt.Sprintf("rule %s: invalid category %q", r.ID, r.Category))
			}
			if r.Category.Rank() > lastRank {
				problems = append(problems, fmt.Sprintf("rule %s: %s group not ordered by category", r.ID, g.Kind))
			}
			lastRank = r.Category.Rank()
			if r.Weight < 0 {
				problems = append(problems, fmt.Sprintf("rule %s: negative weight", r.ID))
			}
			if r.Kind == KindRegex && r.re == nil {
				problems = append(problems, fmt.Sprintf("rule %s: regex not compiled", r.ID))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRuleSet, strings.Join(problems, "; "))
	}
	return nil
}

// RuleCount returns the total number of rules.
func (rs *RuleSet) RuleCount() int {
	n := 0
	for _, g := range rs.Groups {
		n += len(g.Rules)
	}
	return n
}

// TypeAdjustmentKeys returns the adjusted record types in lexical order.
func (rs *RuleSet) TypeAdjustmentKeys() []record.Type {
	keys := make([]record.Type, 0, len(rs.TypeAdjustments))
	for t := range rs.TypeAdjustments {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func levelsFrom(v config.CategoryValues) Levels {
	return Levels{Critical: v.Critical, High: v.High, Medium: v.Medium, Low: v.Low}
}

// Holder publishes the current rule set. Readers pick it up at their next chunk boundary.
type Holder struct {
	current atomic.Pointer[RuleSet]
}

// NewHolder creates a holder with an initial rule set.
func NewHolder(rs *RuleSet) (*Holder, error) {
	h := &Holder{}
	if err := h.Swap(rs); err != nil {
		return nil, err
	}
	return h, nil
}

// Current returns the rule set in effect.
func (h *Holder) Current() *RuleSet {
	return h.current.Load()
}

// Swap replaces the rule set after validating it. An invalid set leaves the current one in place.
func (h *Holder) Swap(rs *RuleSet) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	h.current.Store(rs)
	return nil
}
