package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/zoneaudit/internal/rules"
)

var rulesProfile string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule sets",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Validate a rules file or the configured rules",
	Long: `Validate loads a rule set and checks it before any analysis runs.

Checks performed:
  - Thresholds strictly decreasing and above the base score
  - Category weights strictly decreasing and positive
  - Known pattern kinds and categories
  - Regular expressions compile
  - Age and record type adjustments are not negative

Without FILE the rules of the selected profile or configuration are checked.

Example:
  zoneaudit rules validate custom-rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesValidate,
}

var rulesListCmd = &cobra.Command{
	Use:   "list [FILE]",
	Short: "List rules in evaluation order",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesList,
}

func init() {
	rulesCmd.PersistentFlags().StringVarP(&rulesProfile, "profile", "p", "",
		"Analysis profile from configuration file")

	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rootCmd.AddCommand(rulesCmd)
}

func rulesFileArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rc, err := loadRules(cfg, rulesProfile, rulesFileArg(args))
	if err != nil {
		return err
	}

	cmd.Printf("\n=== Rules Validation ===\n")
	if err := rc.Validate(); err != nil {
		cmd.Printf("✗ Rules are invalid\n%v\n", err)
		return fmt.Errorf("rules validation failed")
	}

	rs, err := rules.Compile(*rc, time.Now())
	if err != nil {
		cmd.Printf("✗ Rules failed to compile: %v\n", err)
		return err
	}

	cmd.Printf("✓ Rules are valid\n")
	cmd.Printf("Source:      %s\n", rs.Source)
	cmd.Printf("Rules:       %d\n", rs.RuleCount())
	for _, g := range rs.Groups {
		cmd.Printf("  %-9s %d\n", g.Kind, len(g.Rules))
	}
	cmd.Printf("Base score:  %d\n", rs.BaseScore)
	cmd.Printf("Thresholds:  critical>=%d high>=%d medium>=%d low>=%d\n",
		rs.Thresholds.Critical, rs.Thresholds.High, rs.Thresholds.Medium, rs.Thresholds.Low)
	if rs.Age.StaleDays > 0 || rs.Age.AncientDays > 0 {
		cmd.Printf("Age:         +%d after %d days, +%d after %d days\n",
			rs.Age.StaleBonus, rs.Age.StaleDays, rs.Age.AncientBonus, rs.Age.AncientDays)
	}
	if keys := rs.TypeAdjustmentKeys(); len(keys) > 0 {
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=+%d", k, rs.TypeAdjustments[k]))
		}
		cmd.Printf("Types:       %s\n", strings.Join(parts, " "))
	}
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rs, err := compileRules(cfg, rulesProfile, rulesFileArg(args))
	if err != nil {
		return err
	}

	cmd.Printf("%-9s %-9s %-6s %s\n", "KIND", "CATEGORY", "WEIGHT", "PATTERN")
	for _, g := range rs.Groups {
		for _, r := range g.Rules {
			weight := r.Weight
			if weight == 0 {
				weight = rs.Scoring.For(r.Category)
			}
			cmd.Printf("%-9s %-9s %-6d %s\n", r.Kind, r.Category, weight, r.Pattern)
		}
	}

	for _, k := range rs.TypeAdjustmentKeys() {
		cmd.Printf("%-9s %-9s %-6d %s\n", "type", "-", rs.TypeAdjustments[k], k)
	}
	return nil
}
