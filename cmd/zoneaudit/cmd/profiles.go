package cmd

import (
	"sort"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List analysis profiles defined in configuration",
	Long: `Profiles displays all analysis profiles defined in the configuration file
along with the settings they override.

Example:
  zoneaudit profiles --config zoneaudit.yaml`,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names := cfg.ListProfiles()
	if len(names) == 0 {
		cmd.Printf("No profiles defined in %s\n", configFile)
		return nil
	}

	// Sort profile names for consistent output
	sort.Strings(names)

	cmd.Printf("Profiles defined in %s:\n\n", configFile)

	for i, name := range names {
		profile, err := cfg.GetProfile(name)
		if err != nil {
			return err
		}
		analysis := cfg.GetProfileAnalysis(name)
		workers := cfg.GetProfileWorkers(name)

		cmd.Printf("%d. %s\n", i+1, name)
		if profile.Description != "" {
			cmd.Printf("   Description:  %s\n", profile.Description)
		}
		cmd.Printf("   Mode:         %s\n", analysis.Mode)
		cmd.Printf("   Chunk Size:   %d (min %d, max %d)\n",
			analysis.ChunkSize, analysis.MinChunkSize, analysis.MaxChunkSize)
		cmd.Printf("   Workers:      %d x %d rows\n", workers.Count, workers.ChunkSize)
		if analysis.Provider != "" {
			cmd.Printf("   Provider:     %s\n", analysis.Provider)
		}
		if analysis.Zone != "" {
			cmd.Printf("   Zone:         %s\n", analysis.Zone)
		}
		if profile.RulesFile != "" {
			cmd.Printf("   Rules File:   %s\n", profile.RulesFile)
		}
		cmd.Println()
	}

	return nil
}
