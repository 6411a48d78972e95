// Package report renders analysis results as a terminal table, CSV or JSON.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat parses a format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected table, csv or json)", s)
}

// Options controls rendering.
type Options struct {
	Format      Format
	MinCategory rules.Category // results below it are left out; empty keeps everything
	Limit       int            // maximum results rendered, 0 for all
	Color       bool
	ShowReasons bool
	NameWidth   int // table only
}

// Select filters results to MinCategory and orders them by score, highest first, then by
// source line. The input slice is not modified.
func Select(results []rules.Result, opts Options) []rules.Result {
	out := make([]rules.Result, 0, len(results))
	for _, r := range results {
		if opts.MinCategory != "" && !r.Category.AtLeast(opts.MinCategory) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Record.Line < out[j].Record.Line
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// CategoryBreakdown returns per-category counts from critical down to safe, including
// categories with no records.
func CategoryBreakdown(counts types.CategoryCounts) *orderedmap.OrderedMap[string, int] {
	m := orderedmap.NewOrderedMap[string, int]()
	for _, c := range rules.AllCategories {
		m.Set(string(c), counts[string(c)])
	}
	return m
}

// Render writes results and summary in the requested format.
func Render(w io.Writer, results []rules.Result, summary *types.Summary, opts Options) error {
	selected := Select(results, opts)
	switch opts.Format {
	case FormatCSV:
		return renderCSV(w, selected)
	case FormatJSON:
		return renderJSON(w, selected, summary)
	case FormatTable, "":
		return renderTable(w, selected, summary, opts)
	}
	return fmt.Errorf("unknown output format %q", opts.Format)
}
