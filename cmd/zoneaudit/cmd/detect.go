package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/zoneaudit/internal/logger"
	"github.com/dbsmedya/zoneaudit/internal/provider"
	"github.com/dbsmedya/zoneaudit/internal/source"
)

var detectZone string

var detectCmd = &cobra.Command{
	Use:   "detect FILE",
	Short: "Detect which provider produced a zone export",
	Long: `Detect reads the header row and a sample of rows from a zone export and
reports the header confidence of every provider adapter along with the
adapter that analysis would use.

Example:
  zoneaudit detect export.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectZone, "zone", "",
		"Zone name used to resolve @ and relative record names")

	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	src, err := source.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	samples, err := src.Peek(cfg.Analysis.SampleRows)
	if err != nil {
		return fmt.Errorf("failed to sample %s: %w", path, err)
	}

	detector := provider.NewDetector(provider.DefaultRegistry(provider.Options{Zone: detectZone}), log)

	cmd.Printf("File:    %s\n", path)
	cmd.Printf("Headers: %s\n", strings.Join(src.Headers(), ", "))
	cmd.Printf("Sampled: %d rows\n\n", len(samples))

	cmd.Printf("%-14s %-10s %s\n", "PROVIDER", "SCORE", "HEADERS")
	for _, c := range detector.Score(src.Headers()) {
		status := "no match"
		if c.Cleared {
			status = "match"
		}
		cmd.Printf("%-14s %-10.2f %s\n", c.Adapter.Name(), c.Confidence, status)
	}

	detection, err := detector.Detect(src.Headers(), samples)
	if err != nil {
		return err
	}

	cmd.Printf("\nDetected: %s (confidence %.2f via %s)\n",
		detection.Adapter.Name(), detection.Confidence, detection.Method)
	return nil
}
