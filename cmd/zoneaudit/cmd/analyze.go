package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/zoneaudit/internal/analyzer"
	"github.com/dbsmedya/zoneaudit/internal/logger"
	"github.com/dbsmedya/zoneaudit/internal/report"
	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

var (
	analyzeMode        string
	analyzeProvider    string
	analyzeZone        string
	analyzeProfile     string
	analyzeRules       string
	analyzeFormat      string
	analyzeOutput      string
	analyzeMinCategory string
	analyzeFailOn      string
	analyzeLimit       int
	analyzeReasons     bool
	analyzeNoColor     bool
	analyzeProgress    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Analyze a DNS zone export and score every record",
	Long: `Analyze reads a provider zone export (CSV), detects the provider,
normalizes every row into a DNS record and scores it against the rule set.

Use "-" as FILE to read from standard input (always streamed).

Processing modes:
  - stream       one pass with adaptive chunk sizing
  - distributed  a producer and a pool of workers
  - auto         distributed for files above analysis.distributed_threshold_mb

Example:
  zoneaudit analyze export.csv --min-category medium
  zoneaudit analyze export.csv --format json --output report.json
  zoneaudit analyze godaddy.csv --provider godaddy --zone example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", "",
		"Processing mode (stream, distributed, auto)")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "",
		"Force a provider adapter instead of detecting it")
	analyzeCmd.Flags().StringVar(&analyzeZone, "zone", "",
		"Zone name used to resolve @ and relative record names")
	analyzeCmd.Flags().StringVarP(&analyzeProfile, "profile", "p", "",
		"Analysis profile from configuration file")
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "",
		"Rules file (overrides the configured rules)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "table",
		"Output format (table, csv, json)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "",
		"Write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeMinCategory, "min-category", "",
		"Only report records at or above this category (critical, high, medium, low, safe)")
	analyzeCmd.Flags().StringVar(&analyzeFailOn, "fail-on", "",
		"Exit with an error when any record reaches this category")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0,
		"Maximum number of records in the report (0 for all)")
	analyzeCmd.Flags().BoolVar(&analyzeReasons, "reasons", false,
		"Include scoring reasons in table output")
	analyzeCmd.Flags().BoolVar(&analyzeNoColor, "no-color", false,
		"Disable colored table output")
	analyzeCmd.Flags().BoolVar(&analyzeProgress, "progress", false,
		"Log progress while analyzing")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	// An empty mode leaves the choice to the profile or configuration.
	var mode analyzer.Mode
	if analyzeMode != "" {
		m, err := analyzer.ParseMode(analyzeMode)
		if err != nil {
			return err
		}
		mode = m
	}
	format, err := report.ParseFormat(analyzeFormat)
	if err != nil {
		return err
	}
	minCategory, err := parseCategoryFlag("min-category", analyzeMinCategory)
	if err != nil {
		return err
	}
	failOn, err := parseCategoryFlag("fail-on", analyzeFailOn)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	rs, err := compileRules(cfg, analyzeProfile, analyzeRules)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	a, err := analyzer.New(cfg, analyzeProfile, log)
	if err != nil {
		return err
	}

	opts := analyzer.Options{
		Mode:     mode,
		Provider: analyzeProvider,
		Zone:     analyzeZone,
	}
	if analyzeProgress {
		opts.OnProgress = func(p types.Progress) {
			log.Infow("Progress",
				"records", p.RecordsProcessed,
				"rows", p.RowsRead,
				"chunks", p.ChunksProcessed,
				"chunk_size", p.ChunkSize,
				"percent", p.Percent(),
			)
		}
	}

	log.Infow("Starting analysis",
		"file", path,
		"rules", rs.Source,
		"rule_count", rs.RuleCount(),
		"profile", analyzeProfile,
	)

	ctx, cancel := signalContext(context.Background(), log)
	defer cancel()

	var rep *analyzer.Report
	if path == "-" {
		rep, err = a.AnalyzeReader(ctx, cmd.InOrStdin(), 0, rs, opts)
	} else {
		rep, err = a.AnalyzeFile(ctx, path, rs, opts)
	}
	if err != nil {
		if rep == nil || !errors.Is(err, context.Canceled) {
			return fmt.Errorf("analysis failed: %w", err)
		}
		log.Warn("Analysis cancelled by user - reporting partial results")
	}

	out, closeOut, err := openOutput(cmd, analyzeOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	ropts := report.Options{
		Format:      format,
		MinCategory: minCategory,
		Limit:       analyzeLimit,
		Color:       !analyzeNoColor && analyzeOutput == "",
		ShowReasons: analyzeReasons,
	}
	if err := report.Render(out, rep.Results, rep.Summary, ropts); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	log.Infow("Analysis complete",
		"run_id", rep.Summary.RunID,
		"records", rep.Summary.TotalRecords,
		"skipped", rep.Summary.Skipped,
		"duration", rep.Summary.Duration,
	)

	if failOn != "" {
		if n := countAtLeast(rep.Results, failOn); n > 0 {
			return fmt.Errorf("%d records at or above %s risk", n, failOn)
		}
	}
	return nil
}

func parseCategoryFlag(flag, value string) (rules.Category, error) {
	if value == "" {
		return "", nil
	}
	c, ok := rules.ParseCategory(value)
	if !ok {
		return "", fmt.Errorf("invalid --%s %q (expected critical, high, medium, low or safe)", flag, value)
	}
	return c, nil
}

func countAtLeast(results []rules.Result, min rules.Category) int {
	n := 0
	for _, r := range results {
		if r.Category.AtLeast(min) {
			n++
		}
	}
	return n
}

// openOutput returns the report destination: stdout, or a file created at path.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
