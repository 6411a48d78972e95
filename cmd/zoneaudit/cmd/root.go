package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/zoneaudit/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// defaultConfigFile is optional: when it does not exist the built-in defaults are used.
const defaultConfigFile = "zoneaudit.yaml"

// CLI flags that override config file values
var (
	cfgFile       string
	logLevel      string
	logFormat     string
	chunkSize     int
	workerCount   int
	memoryLimitMB int
)

var rootCmd = &cobra.Command{
	Use:   "zoneaudit",
	Short: "DNS zone export risk analyzer",
	Long: `A CLI tool that reads DNS zone exports from hosting providers, normalizes
them into canonical records and scores every record for takeover and
hygiene risk.

Features:
  - Provider auto-detection (Cloudflare, Route 53, GoDaddy, DigitalOcean, generic CSV)
  - Configurable pattern rules with age and record type adjustments
  - Streaming mode with adaptive chunk sizing for bounded memory
  - Worker-parallel mode for large exports
  - Table, CSV and JSON reports`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile,
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 0,
		"Override chunk size (rows per chunk)")
	rootCmd.PersistentFlags().IntVar(&workerCount, "workers", 0,
		"Override worker count for distributed mode")
	rootCmd.PersistentFlags().IntVar(&memoryLimitMB, "memory-limit", 0,
		"Override advisory memory limit in MB")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel      string
	LogFormat     string
	ChunkSize     int
	Workers       int
	MemoryLimitMB int
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:      logLevel,
		LogFormat:     logFormat,
		ChunkSize:     chunkSize,
		Workers:       workerCount,
		MemoryLimitMB: memoryLimitMB,
	}
}

// loadConfig reads the config file, applies CLI overrides and validates the result.
func loadConfig() (*config.Config, error) {
	configFile := GetConfigFile()

	var cfg *config.Config
	if _, err := os.Stat(configFile); configFile == defaultConfigFile && errors.Is(err, os.ErrNotExist) {
		cfg = config.DefaultConfig()
	} else {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.ChunkSize, overrides.Workers, overrides.MemoryLimitMB)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
