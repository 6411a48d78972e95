package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateAnalysis("analysis", &c.Analysis)...)
	errors = append(errors, c.validateWorkers("workers", &c.Workers)...)
	errors = append(errors, c.validateMemory()...)

	// Rules loaded from a file are validated when the file is read.
	if c.Rules.File == "" {
		if err := c.Rules.Validate(); err != nil {
			if verrs, ok := err.(ValidationErrors); ok {
				errors = append(errors, verrs...)
			}
		}
	}

	for name, profile := range c.Profiles {
		prefix := fmt.Sprintf("profiles.%s", name)
		if profile.Analysis != nil {
			merged := profile.GetProfileAnalysis(c.Analysis)
			errors = append(errors, c.validateAnalysis(prefix+".analysis", &merged)...)
		}
		if profile.Workers != nil {
			merged := profile.GetProfileWorkers(c.Workers)
			errors = append(errors, c.validateWorkers(prefix+".workers", &merged)...)
		}
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateAnalysis(prefix string, a *AnalysisConfig) ValidationErrors {
	var errors ValidationErrors

	validModes := map[string]bool{"stream": true, "distributed": true, "auto": true, "": true}
	if !validModes[a.Mode] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".mode",
			Message: "mode must be 'stream', 'distributed', or 'auto'",
		})
	}

	if a.ChunkSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if a.MinChunkSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".min_chunk_size",
			Message: "min_chunk_size must be positive",
		})
	}

	if a.MaxChunkSize < a.MinChunkSize {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_chunk_size",
			Message: "max_chunk_size cannot be smaller than min_chunk_size",
		})
	}

	if a.TargetChunkMillis <= 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".target_chunk_millis",
			Message: "target_chunk_millis must be positive",
		})
	}

	if a.ProgressInterval < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".progress_interval",
			Message: "progress_interval cannot be negative",
		})
	}

	if a.DistributedThresholdMB < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".distributed_threshold_mb",
			Message: "distributed_threshold_mb cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateWorkers(prefix string, w *WorkerConfig) ValidationErrors {
	var errors ValidationErrors

	if w.Count <= 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".count",
			Message: "count must be positive",
		})
	}

	if w.ChunkSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if w.QueueCapacity <= 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".queue_capacity",
			Message: "queue_capacity must be positive",
		})
	}

	return errors
}

func (c *Config) validateMemory() ValidationErrors {
	var errors ValidationErrors

	if c.Memory.LimitMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "memory.limit_mb",
			Message: "limit_mb cannot be negative",
		})
	}

	if c.Memory.CheckInterval < 0 {
		errors = append(errors, ValidationError{
			Field:   "memory.check_interval",
			Message: "check_interval cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}

// Validate checks a rule set description: monotonic thresholds and weights, known
// pattern kinds and categories, and compilable regular expressions.
func (r *RulesConfig) Validate() error {
	var errors ValidationErrors

	if r.BaseScore < 0 {
		errors = append(errors, ValidationError{
			Field:   "rules.base_score",
			Message: "base_score cannot be negative",
		})
	}

	t := r.Thresholds
	if !(t.Critical > t.High && t.High > t.Medium && t.Medium > t.Low && t.Low > r.BaseScore) {
		errors = append(errors, ValidationError{
			Field: "rules.thresholds",
			Message: fmt.Sprintf("thresholds must be strictly decreasing critical > high > medium > low > base_score (got %d, %d, %d, %d, base %d)",
				t.Critical, t.High, t.Medium, t.Low, r.BaseScore),
		})
	}

	s := r.Scoring
	if !(s.Critical > s.High && s.High > s.Medium && s.Medium > s.Low && s.Low > 0) {
		errors = append(errors, ValidationError{
			Field: "rules.scoring",
			Message: fmt.Sprintf("scoring weights must be strictly decreasing critical > high > medium > low > 0 (got %d, %d, %d, %d)",
				s.Critical, s.High, s.Medium, s.Low),
		})
	}

	if r.Age.StaleDays < 0 || r.Age.AncientDays < 0 || r.Age.StaleBonus < 0 || r.Age.AncientBonus < 0 {
		errors = append(errors, ValidationError{
			Field:   "rules.age",
			Message: "age days and bonuses cannot be negative",
		})
	}
	if r.Age.AncientDays > 0 && r.Age.AncientDays <= r.Age.StaleDays {
		errors = append(errors, ValidationError{
			Field:   "rules.age.ancient_days",
			Message: "ancient_days must be greater than stale_days",
		})
	}

	for recordType, bonus := range r.TypeAdjustments {
		if bonus < 0 {
			errors = append(errors, ValidationError{
				Field:   "rules.type_adjustments." + recordType,
				Message: "type adjustment cannot be negative",
			})
		}
	}

	validKinds := make(map[string]bool, len(MatchKinds))
	for _, k := range MatchKinds {
		validKinds[k] = true
	}
	validCategories := make(map[string]bool, len(CategoryNames))
	for _, c := range CategoryNames {
		validCategories[c] = true
	}

	for kind, byCategory := range r.Patterns {
		if !validKinds[kind] {
			errors = append(errors, ValidationError{
				Field:   "rules.patterns." + kind,
				Message: "kind must be 'prefix', 'suffix', 'contains', or 'regex'",
			})
			continue
		}
		for category, entries := range byCategory {
			field := fmt.Sprintf("rules.patterns.%s.%s", kind, category)
			if !validCategories[category] {
				errors = append(errors, ValidationError{
					Field:   field,
					Message: "category must be 'critical', 'high', 'medium', or 'low'",
				})
				continue
			}
			for i, p := range entries {
				entryField := fmt.Sprintf("%s[%d]", field, i)
				if p.Pattern == "" {
					errors = append(errors, ValidationError{
						Field:   entryField,
						Message: "pattern is required",
					})
					continue
				}
				if p.Weight < 0 {
					errors = append(errors, ValidationError{
						Field:   entryField + ".weight",
						Message: "weight cannot be negative",
					})
				}
				if kind == "regex" {
					if _, err := regexp.Compile(p.Pattern); err != nil {
						errors = append(errors, ValidationError{
							Field:   entryField,
							Message: fmt.Sprintf("invalid regular expression: %v", err),
						})
					}
				}
			}
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
