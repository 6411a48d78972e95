// Package rules compiles pattern rule sets and scores canonical records against them.
package rules

import "strings"

// Category is a risk category.
type Category string

const (
	CategoryCritical Category = "critical"
	CategoryHigh     Category = "high"
	CategoryMedium   Category = "medium"
	CategoryLow      Category = "low"
	CategorySafe     Category = "safe"
)

// Categories lists the scoring categories in descending severity. Safe is not a rule category.
var Categories = []Category{CategoryCritical, CategoryHigh, CategoryMedium, CategoryLow}

// AllCategories includes safe, for reporting.
var AllCategories = []Category{CategoryCritical, CategoryHigh, CategoryMedium, CategoryLow, CategorySafe}

// ParseCategory parses a category name case-insensitively, including "safe".
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryCritical, CategoryHigh, CategoryMedium, CategoryLow, CategorySafe:
		return c, true
	}
	return "", false
}

// Rank orders categories by severity: critical is 4, safe is 0.
func (c Category) Rank() int {
	switch c {
	case CategoryCritical:
		return 4
	case CategoryHigh:
		return 3
	case CategoryMedium:
		return 2
	case CategoryLow:
		return 1
	}
	return 0
}

// AtLeast reports whether c is as severe as min.
func (c Category) AtLeast(min Category) bool {
	return c.Rank() >= min.Rank()
}

// Levels holds one value per scoring category. It is used for both weights and thresholds.
type Levels struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// For returns the level for c, or 0 for safe.
func (l Levels) For(c Category) int {
	switch c {
	case CategoryCritical:
		return l.Critical
	case CategoryHigh:
		return l.High
	case CategoryMedium:
		return l.Medium
	case CategoryLow:
		return l.Low
	}
	return 0
}

// strictlyDecreasing reports critical > high > medium > low > floor.
func (l Levels) strictlyDecreasing(floor int) bool {
	return l.Critical > l.High && l.High > l.Medium && l.Medium > l.Low && l.Low > floor
}

// Categorize maps a score to a category using thresholds.
func Categorize(score int, thresholds Levels) Category {
	switch {
	case score >= thresholds.Critical:
		return CategoryCritical
	case score >= thresholds.High:
		return CategoryHigh
	case score >= thresholds.Medium:
		return CategoryMedium
	case score >= thresholds.Low:
		return CategoryLow
	}
	return CategorySafe
}
