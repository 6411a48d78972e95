package rules

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// NoIssuesReason is the single reason given when nothing contributed to a score.
const NoIssuesReason = "no issues found"

// Result is a scored record.
type Result struct {
	Record          record.Record
	Score           int
	Category        Category
	MatchedPatterns []string // rule IDs in firing order
	Reasons         []string
}

// Score evaluates rec against rs. It reads no clock and no shared mutable state, so equal
// inputs always give equal results.
func Score(rec record.Record, rs *RuleSet) Result {
	res := Result{Record: rec, Score: rs.BaseScore}

	name := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(rec.Name), "."))
	leftmost := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		leftmost = name[:i]
	}

	for _, g := range rs.Groups {
		for i := range g.Rules {
			rule := &g.Rules[i]
			if !rule.Match(name, leftmost) {
				continue
			}
			weight := rule.Weight
			if weight == 0 {
				weight = rs.Scoring.For(rule.Category)
			}
			res.Score += weight
			res.MatchedPatterns = append(res.MatchedPatterns, rule.ID)
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("%s %s pattern %q matched (+%d)", rule.Category, rule.Kind, rule.Pattern, weight))
			// Lower categories in this group are not scanned once one matched.
			break
		}
	}

	if touched, ok := rec.LastTouched(); ok {
		days := int(rs.AsOf.Sub(touched).Hours() / 24)
		switch {
		case rs.Age.AncientDays > 0 && days > rs.Age.AncientDays && rs.Age.AncientBonus > 0:
			res.Score += rs.Age.AncientBonus
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("not modified for %d days, over %d (+%d)", days, rs.Age.AncientDays, rs.Age.AncientBonus))
		case rs.Age.StaleDays > 0 && days > rs.Age.StaleDays && rs.Age.StaleBonus > 0:
			res.Score += rs.Age.StaleBonus
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("not modified for %d days, over %d (+%d)", days, rs.Age.StaleDays, rs.Age.StaleBonus))
		}
	}

	if bonus := rs.TypeAdjustments[rec.Type]; bonus > 0 {
		res.Score += bonus
		res.Reasons = append(res.Reasons, fmt.Sprintf("%s record (+%d)", rec.Type, bonus))
	}

	res.Category = Categorize(res.Score, rs.Thresholds)
	if len(res.Reasons) == 0 {
		res.Reasons = []string{NoIssuesReason}
	}
	return res
}

// ScoreAll scores records in order.
func ScoreAll(recs []record.Record, rs *RuleSet) []Result {
	out := make([]Result, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Score(rec, rs))
	}
	return out
}
