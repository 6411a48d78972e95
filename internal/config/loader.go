package config

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	resetDefaultMaps(v, "rules", &cfg.Rules)

	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	return cfg, nil
}

// LoadRules reads a standalone rules file. Unset sections keep the built-in defaults,
// but a file that declares patterns or type adjustments replaces them entirely.
func LoadRules(path string) (*RulesConfig, error) {
	v := viper.New()
	v.SetConfigFile(expandEnvVar(path))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := DefaultRules()
	resetDefaultMaps(v, "", &rules)

	if err := v.Unmarshal(&rules, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules file: %w", err)
	}
	rules.File = path

	return &rules, nil
}

// ResolveRules returns the effective rules for a profile: the profile's rules file if set,
// then the global rules file, then the inline rules section.
func (c *Config) ResolveRules(profileName string) (*RulesConfig, error) {
	if profileName != "" {
		profile, err := c.GetProfile(profileName)
		if err != nil {
			return nil, err
		}
		if profile.RulesFile != "" {
			return LoadRules(profile.RulesFile)
		}
	}
	if c.Rules.File != "" {
		return LoadRules(c.Rules.File)
	}
	rules := c.Rules
	return &rules, nil
}

// resetDefaultMaps clears default map values the file overrides. mapstructure merges into
// existing maps, which would otherwise mix built-in patterns with user patterns.
func resetDefaultMaps(v *viper.Viper, prefix string, rules *RulesConfig) {
	key := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	if v.IsSet(key("patterns")) {
		rules.Patterns = nil
	}
	if v.IsSet(key("type_adjustments")) {
		rules.TypeAdjustments = nil
	}
}

// decodeHook keeps viper's default hooks and lets a pattern be written as a bare string.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToPatternHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func stringToPatternHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String || t != reflect.TypeOf(PatternConfig{}) {
		return data, nil
	}
	return PatternConfig{Pattern: data.(string)}, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	cfg.Rules.File = expandEnvVar(cfg.Rules.File)
	cfg.Analysis.Zone = expandEnvVar(cfg.Analysis.Zone)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	for name, profile := range cfg.Profiles {
		profile.RulesFile = expandEnvVar(profile.RulesFile)
		if profile.Analysis != nil {
			profile.Analysis.Zone = expandEnvVar(profile.Analysis.Zone)
		}
		cfg.Profiles[name] = profile
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// GetProfile retrieves a specific profile by name.
func (c *Config) GetProfile(name string) (*ProfileConfig, error) {
	profile, exists := c.Profiles[name]
	if !exists {
		return nil, fmt.Errorf("profile %q not found in configuration", name)
	}
	return &profile, nil
}

// ListProfiles returns all profile names defined in the configuration.
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	return profiles
}

// ApplyOverrides applies CLI flag overrides to the global configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, chunkSize, workers, memoryLimitMB int) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if chunkSize > 0 {
		c.Analysis.ChunkSize = chunkSize
		c.Workers.ChunkSize = chunkSize
	}
	if workers > 0 {
		c.Workers.Count = workers
	}
	if memoryLimitMB > 0 {
		c.Memory.LimitMB = memoryLimitMB
	}
}
