// Package config provides configuration structures and loading for zoneaudit.
package config

// Config represents the complete application configuration.
type Config struct {
	Analysis AnalysisConfig           `yaml:"analysis" mapstructure:"analysis"`
	Workers  WorkerConfig             `yaml:"workers" mapstructure:"workers"`
	Memory   MemoryConfig             `yaml:"memory" mapstructure:"memory"`
	Rules    RulesConfig              `yaml:"rules" mapstructure:"rules"`
	Profiles map[string]ProfileConfig `yaml:"profiles" mapstructure:"profiles"`
	Logging  LoggingConfig            `yaml:"logging" mapstructure:"logging"`
}

// AnalysisConfig controls mode selection and adaptive chunk sizing for streaming mode.
type AnalysisConfig struct {
	Mode                   string `yaml:"mode" mapstructure:"mode"` // stream, distributed, auto
	Provider               string `yaml:"provider" mapstructure:"provider"`
	Zone                   string `yaml:"zone" mapstructure:"zone"`
	ChunkSize              int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	MinChunkSize           int    `yaml:"min_chunk_size" mapstructure:"min_chunk_size"`
	MaxChunkSize           int    `yaml:"max_chunk_size" mapstructure:"max_chunk_size"`
	TargetChunkMillis      int    `yaml:"target_chunk_millis" mapstructure:"target_chunk_millis"`
	ProgressInterval       int    `yaml:"progress_interval" mapstructure:"progress_interval"`
	SampleRows             int    `yaml:"sample_rows" mapstructure:"sample_rows"`
	DistributedThresholdMB int    `yaml:"distributed_threshold_mb" mapstructure:"distributed_threshold_mb"`
}

// WorkerConfig represents worker-parallel mode settings.
type WorkerConfig struct {
	Count         int `yaml:"count" mapstructure:"count"`
	ChunkSize     int `yaml:"chunk_size" mapstructure:"chunk_size"`
	QueueCapacity int `yaml:"queue_capacity" mapstructure:"queue_capacity"`
}

// MemoryConfig represents the advisory memory limit.
type MemoryConfig struct {
	LimitMB       int `yaml:"limit_mb" mapstructure:"limit_mb"`
	CheckInterval int `yaml:"check_interval" mapstructure:"check_interval"` // records between samples
}

// RulesConfig describes a rule set. It is either inline in the main config or loaded from
// a separate file referenced by File.
type RulesConfig struct {
	File            string                                `yaml:"file" mapstructure:"file"`
	BaseScore       int                                   `yaml:"base_score" mapstructure:"base_score"`
	Scoring         CategoryValues                        `yaml:"scoring" mapstructure:"scoring"`
	Thresholds      CategoryValues                        `yaml:"thresholds" mapstructure:"thresholds"`
	Age             AgeConfig                             `yaml:"age" mapstructure:"age"`
	TypeAdjustments map[string]int                        `yaml:"type_adjustments" mapstructure:"type_adjustments"`
	Patterns        map[string]map[string][]PatternConfig `yaml:"patterns" mapstructure:"patterns"` // kind -> category -> patterns
}

// CategoryValues holds one integer per risk category.
type CategoryValues struct {
	Critical int `yaml:"critical" mapstructure:"critical"`
	High     int `yaml:"high" mapstructure:"high"`
	Medium   int `yaml:"medium" mapstructure:"medium"`
	Low      int `yaml:"low" mapstructure:"low"`
}

// AgeConfig configures the staleness penalty.
type AgeConfig struct {
	StaleDays    int `yaml:"stale_days" mapstructure:"stale_days"`
	StaleBonus   int `yaml:"stale_bonus" mapstructure:"stale_bonus"`
	AncientDays  int `yaml:"ancient_days" mapstructure:"ancient_days"`
	AncientBonus int `yaml:"ancient_bonus" mapstructure:"ancient_bonus"`
}

// PatternConfig is a single pattern entry. In YAML it may be written as a bare string.
type PatternConfig struct {
	ID          string `yaml:"id" mapstructure:"id"`
	Pattern     string `yaml:"pattern" mapstructure:"pattern"`
	Weight      int    `yaml:"weight" mapstructure:"weight"`
	Description string `yaml:"description" mapstructure:"description"`
}

// ProfileConfig is a named analysis profile. Zero values fall back to the global settings.
type ProfileConfig struct {
	Description string          `yaml:"description" mapstructure:"description"`
	RulesFile   string          `yaml:"rules_file" mapstructure:"rules_file"`
	Analysis    *AnalysisConfig `yaml:"analysis,omitempty" mapstructure:"analysis"`
	Workers     *WorkerConfig   `yaml:"workers,omitempty" mapstructure:"workers"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// Category names in descending severity. Kept here so config validation and the rules
// package agree on spelling.
var CategoryNames = []string{"critical", "high", "medium", "low"}

// MatchKinds lists the supported pattern kinds in evaluation order.
var MatchKinds = []string{"prefix", "suffix", "contains", "regex"}

// Get returns the value for a category name.
func (v CategoryValues) Get(category string) int {
	switch category {
	case "critical":
		return v.Critical
	case "high":
		return v.High
	case "medium":
		return v.Medium
	case "low":
		return v.Low
	}
	return 0
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Mode:                   "auto",
			ChunkSize:              1000,
			MinChunkSize:           100,
			MaxChunkSize:           10000,
			TargetChunkMillis:      250,
			ProgressInterval:       5000,
			SampleRows:             20,
			DistributedThresholdMB: 50,
		},
		Workers: WorkerConfig{
			Count:         4,
			ChunkSize:     1000,
			QueueCapacity: 100,
		},
		Memory: MemoryConfig{
			LimitMB:       512,
			CheckInterval: 10000,
		},
		Rules: DefaultRules(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultRules returns the built-in rule set used when no rules file is configured.
func DefaultRules() RulesConfig {
	return RulesConfig{
		BaseScore: 10,
		Scoring: CategoryValues{
			Critical: 100,
			High:     80,
			Medium:   50,
			Low:      20,
		},
		Thresholds: CategoryValues{
			Critical: 90,
			High:     70,
			Medium:   40,
			Low:      20,
		},
		Age: AgeConfig{
			StaleDays:    180,
			StaleBonus:   10,
			AncientDays:  365,
			AncientBonus: 20,
		},
		TypeAdjustments: map[string]int{
			"CNAME": 10,
		},
		Patterns: map[string]map[string][]PatternConfig{
			"prefix": {
				"critical": patterns("deprecated-", "legacy-", "unused-"),
				"high":     patterns("old-", "test-", "temp-", "tmp-"),
				"medium":   patterns("dev-", "staging-", "stage-", "demo-", "beta-"),
				"low":      patterns("backup-", "bak-", "v1-"),
			},
			"suffix": {
				"critical": patterns("-deprecated", "-unused"),
				"high":     patterns("-old", "-test", "-temp", "-tmp"),
				"medium":   patterns("-dev", "-staging", "-demo"),
				"low":      patterns("-backup", "-bak"),
			},
			"contains": {
				"critical": patterns("decommission", "do-not-use"),
				"high":     patterns("deprecated", "legacy"),
				"medium":   patterns("sandbox", "experiment"),
				"low":      patterns("internal", "archive"),
			},
		},
	}
}

func patterns(values ...string) []PatternConfig {
	out := make([]PatternConfig, 0, len(values))
	for _, v := range values {
		out = append(out, PatternConfig{Pattern: v})
	}
	return out
}

// GetProfileAnalysis returns the analysis config for a profile by name, falling back to global if not set.
func (c *Config) GetProfileAnalysis(name string) AnalysisConfig {
	profile, err := c.GetProfile(name)
	if err != nil {
		return c.Analysis
	}
	return profile.GetProfileAnalysis(c.Analysis)
}

// GetProfileWorkers returns the worker config for a profile by name, falling back to global if not set.
func (c *Config) GetProfileWorkers(name string) WorkerConfig {
	profile, err := c.GetProfile(name)
	if err != nil {
		return c.Workers
	}
	return profile.GetProfileWorkers(c.Workers)
}

// GetProfileAnalysis merges the profile's analysis settings over the global ones.
func (p *ProfileConfig) GetProfileAnalysis(global AnalysisConfig) AnalysisConfig {
	if p.Analysis == nil {
		return global
	}

	result := global
	if p.Analysis.Mode != "" {
		result.Mode = p.Analysis.Mode
	}
	if p.Analysis.Provider != "" {
		result.Provider = p.Analysis.Provider
	}
	if p.Analysis.Zone != "" {
		result.Zone = p.Analysis.Zone
	}
	if p.Analysis.ChunkSize > 0 {
		result.ChunkSize = p.Analysis.ChunkSize
	}
	if p.Analysis.MinChunkSize > 0 {
		result.MinChunkSize = p.Analysis.MinChunkSize
	}
	if p.Analysis.MaxChunkSize > 0 {
		result.MaxChunkSize = p.Analysis.MaxChunkSize
	}
	if p.Analysis.TargetChunkMillis > 0 {
		result.TargetChunkMillis = p.Analysis.TargetChunkMillis
	}
	if p.Analysis.DistributedThresholdMB > 0 {
		result.DistributedThresholdMB = p.Analysis.DistributedThresholdMB
	}
	return result
}

// GetProfileWorkers merges the profile's worker settings over the global ones.
func (p *ProfileConfig) GetProfileWorkers(global WorkerConfig) WorkerConfig {
	if p.Workers == nil {
		return global
	}

	result := global
	if p.Workers.Count > 0 {
		result.Count = p.Workers.Count
	}
	if p.Workers.ChunkSize > 0 {
		result.ChunkSize = p.Workers.ChunkSize
	}
	if p.Workers.QueueCapacity > 0 {
		result.QueueCapacity = p.Workers.QueueCapacity
	}
	return result
}
