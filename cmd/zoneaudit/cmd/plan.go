package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/zoneaudit/internal/analyzer"
	"github.com/dbsmedya/zoneaudit/internal/logger"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var (
	planMode     string
	planProvider string
	planZone     string
	planProfile  string
)

var planCmd = &cobra.Command{
	Use:   "plan FILE",
	Short: "Show how a zone export would be analyzed",
	Long: `Plan samples the head of a zone export and shows what analysis would do
without scoring any record.

The plan shows:
  - Detected provider and confidence
  - Estimated row count and chunk count
  - Processing mode, chunk size and worker count
  - Memory limit

Example:
  zoneaudit plan export.csv --profile large`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planMode, "mode", "m", "",
		"Processing mode (stream, distributed, auto)")
	planCmd.Flags().StringVar(&planProvider, "provider", "",
		"Force a provider adapter instead of detecting it")
	planCmd.Flags().StringVar(&planZone, "zone", "",
		"Zone name used to resolve @ and relative record names")
	planCmd.Flags().StringVarP(&planProfile, "profile", "p", "",
		"Analysis profile from configuration file")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	var mode analyzer.Mode
	if planMode != "" {
		m, err := analyzer.ParseMode(planMode)
		if err != nil {
			return err
		}
		mode = m
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := analyzer.New(cfg, planProfile, log)
	if err != nil {
		return err
	}

	est, err := a.Estimate(args[0], analyzer.Options{
		Mode:     mode,
		Provider: planProvider,
		Zone:     planZone,
	})
	if err != nil {
		return fmt.Errorf("estimation failed: %w", err)
	}

	printPlan(outputWriter, est, planProfile)
	return nil
}

func printPlan(w io.Writer, est *analyzer.Estimate, profile string) {
	fmt.Fprintf(w, "\n=== Analysis Plan ===\n")
	fmt.Fprintf(w, "File:        %s (%s)\n", est.Path, humanize.Bytes(uint64(est.SizeBytes)))
	if profile != "" {
		fmt.Fprintf(w, "Profile:     %s\n", profile)
	}
	fmt.Fprintf(w, "Headers:     %s\n", strings.Join(est.Headers, ", "))
	fmt.Fprintf(w, "Provider:    %s (%s, confidence %.2f)\n", est.Provider, est.DetectionMethod, est.Confidence)

	rows := humanize.Comma(est.EstimatedRows)
	if est.Exact {
		fmt.Fprintf(w, "Rows:        %s\n", rows)
	} else {
		fmt.Fprintf(w, "Rows:        ~%s (from %d sampled rows, %.1f bytes/row)\n", rows, est.SampledRows, est.AvgRowBytes)
	}

	fmt.Fprintf(w, "Mode:        %s\n", est.Mode)
	fmt.Fprintf(w, "Chunk size:  %d\n", est.ChunkSize)
	fmt.Fprintf(w, "Chunks:      %s\n", humanize.Comma(est.EstimatedChunks))
	if est.Workers > 0 {
		fmt.Fprintf(w, "Workers:     %d\n", est.Workers)
	}
	if est.MemoryLimitMB > 0 {
		fmt.Fprintf(w, "Memory:      %d MB advisory limit\n", est.MemoryLimitMB)
	} else {
		fmt.Fprintf(w, "Memory:      no limit\n")
	}
}
