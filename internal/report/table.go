package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

const defaultNameWidth = 40

var categoryStyles = map[rules.Category]color.Style{
	rules.CategoryCritical: color.New(color.FgRed, color.OpBold),
	rules.CategoryHigh:     color.New(color.FgLightRed),
	rules.CategoryMedium:   color.New(color.FgYellow),
	rules.CategoryLow:      color.New(color.FgCyan),
	rules.CategorySafe:     color.New(color.FgGreen),
}

type column struct {
	title string
	width int
}

func renderTable(w io.Writer, results []rules.Result, summary *types.Summary, opts Options) error {
	nameWidth := opts.NameWidth
	if nameWidth <= 0 {
		nameWidth = defaultNameWidth
	}

	cols := []column{
		{"CATEGORY", 8},
		{"SCORE", 5},
		{"TYPE", 5},
		{"NAME", nameWidth},
		{"CONTENT", 32},
	}
	if opts.ShowReasons {
		cols = append(cols, column{"REASONS", 0})
	}

	var b strings.Builder
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = cell(c.title, c.width)
	}
	b.WriteString(strings.TrimRight(strings.Join(titles, "  "), " "))
	b.WriteString("\n")

	for _, r := range results {
		category := cell(string(r.Category), cols[0].width)
		if opts.Color {
			if style, ok := categoryStyles[r.Category]; ok {
				category = style.Sprint(category)
			}
		}
		fields := []string{
			category,
			cell(strconv.Itoa(r.Score), cols[1].width),
			cell(string(r.Record.Type), cols[2].width),
			cell(r.Record.Name, cols[3].width),
			cell(r.Record.Content, cols[4].width),
		}
		if opts.ShowReasons {
			fields = append(fields, strings.Join(r.Reasons, "; "))
		}
		b.WriteString(strings.TrimRight(strings.Join(fields, "  "), " "))
		b.WriteString("\n")
	}

	if len(results) == 0 {
		b.WriteString("No records matched.\n")
	}

	if summary != nil {
		b.WriteString("\n")
		writeSummary(&b, summary)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// cell pads or truncates s to width display columns. A zero width leaves s as is.
func cell(s string, width int) string {
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func writeSummary(b *strings.Builder, s *types.Summary) {
	fmt.Fprintf(b, "Run:         %s\n", s.RunID)
	fmt.Fprintf(b, "Provider:    %s (%s, confidence %.2f)\n", s.Provider, s.DetectionMethod, s.Confidence)
	fmt.Fprintf(b, "Mode:        %s\n", s.Mode)
	fmt.Fprintf(b, "Rows:        %s read, %s scored, %s skipped\n",
		humanize.Comma(int64(s.TotalRows)), humanize.Comma(int64(s.TotalRecords)), humanize.Comma(int64(s.Skipped)))
	fmt.Fprintf(b, "Chunks:      %d (final size %d)\n", s.Chunks, s.FinalChunkSize)
	if len(s.Workers) > 0 {
		parts := make([]string, 0, len(s.Workers))
		for _, ws := range s.Workers {
			parts = append(parts, fmt.Sprintf("#%d=%d", ws.WorkerID, ws.TotalProcessed))
		}
		fmt.Fprintf(b, "Workers:     %s\n", strings.Join(parts, " "))
	}
	if s.Errors > 0 {
		fmt.Fprintf(b, "Errors:      %d\n", s.Errors)
	}
	if s.PeakMemory > 0 {
		fmt.Fprintf(b, "Peak memory: %s", humanize.Bytes(s.PeakMemory))
		if s.MemoryWarnings > 0 {
			fmt.Fprintf(b, " (%d warnings)", s.MemoryWarnings)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "Duration:    %s\n", s.Duration.Round(time.Millisecond))

	breakdown := CategoryBreakdown(s.Categories)
	parts := make([]string, 0, breakdown.Len())
	for el := breakdown.Front(); el != nil; el = el.Next() {
		parts = append(parts, fmt.Sprintf("%s=%d", el.Key, el.Value))
	}
	fmt.Fprintf(b, "Categories:  %s\n", strings.Join(parts, " "))
}
