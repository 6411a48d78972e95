package config

import (
	"strings"
	"testing"
)

func TestValidConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestInvalidMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.Mode = "parallel"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for invalid mode")
	}
	if !strings.Contains(err.Error(), "analysis.mode") {
		t.Errorf("expected error to mention 'analysis.mode', got: %v", err)
	}
}

func TestChunkBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.MinChunkSize = 500
	cfg.Analysis.MaxChunkSize = 100

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for max < min")
	}
	if !strings.Contains(err.Error(), "analysis.max_chunk_size") {
		t.Errorf("expected error to mention 'analysis.max_chunk_size', got: %v", err)
	}
}

func TestInvalidWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers.Count = 0
	cfg.Workers.QueueCapacity = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors for workers")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(verrs), err)
	}
}

func TestInvalidProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profiles = map[string]ProfileConfig{
		"broken": {Analysis: &AnalysisConfig{Mode: "bogus"}},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for broken profile")
	}
	if !strings.Contains(err.Error(), "profiles.broken.analysis.mode") {
		t.Errorf("expected error to mention profile field, got: %v", err)
	}
}

func TestInvalidLogging(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for logging")
	}
	if !strings.Contains(err.Error(), "logging.level") || !strings.Contains(err.Error(), "logging.format") {
		t.Errorf("expected both logging fields in error, got: %v", err)
	}
}

func TestRulesValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *RulesConfig)
		field   string
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(r *RulesConfig) {},
			wantErr: false,
		},
		{
			name:    "non-monotonic thresholds",
			mutate:  func(r *RulesConfig) { r.Thresholds.High = r.Thresholds.Critical },
			field:   "rules.thresholds",
			wantErr: true,
		},
		{
			name:    "low threshold not above base",
			mutate:  func(r *RulesConfig) { r.BaseScore = r.Thresholds.Low },
			field:   "rules.thresholds",
			wantErr: true,
		},
		{
			name:    "non-monotonic scoring",
			mutate:  func(r *RulesConfig) { r.Scoring.Medium = r.Scoring.High + 1 },
			field:   "rules.scoring",
			wantErr: true,
		},
		{
			name:    "zero low weight",
			mutate:  func(r *RulesConfig) { r.Scoring.Low = 0 },
			field:   "rules.scoring",
			wantErr: true,
		},
		{
			name:    "ancient not after stale",
			mutate:  func(r *RulesConfig) { r.Age.AncientDays = r.Age.StaleDays },
			field:   "rules.age.ancient_days",
			wantErr: true,
		},
		{
			name: "unknown kind",
			mutate: func(r *RulesConfig) {
				r.Patterns["glob"] = map[string][]PatternConfig{"high": {{Pattern: "*"}}}
			},
			field:   "rules.patterns.glob",
			wantErr: true,
		},
		{
			name: "unknown category",
			mutate: func(r *RulesConfig) {
				r.Patterns["prefix"]["urgent"] = []PatternConfig{{Pattern: "x-"}}
			},
			field:   "rules.patterns.prefix.urgent",
			wantErr: true,
		},
		{
			name: "bad regex",
			mutate: func(r *RulesConfig) {
				r.Patterns["regex"] = map[string][]PatternConfig{"low": {{Pattern: "(unclosed"}}}
			},
			field:   "rules.patterns.regex.low[0]",
			wantErr: true,
		},
		{
			name: "negative weight",
			mutate: func(r *RulesConfig) {
				r.Patterns["prefix"]["low"] = []PatternConfig{{Pattern: "x-", Weight: -1}}
			},
			field:   "rules.patterns.prefix.low[0].weight",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(&rules)

			err := rules.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !strings.Contains(err.Error(), tt.field) {
					t.Errorf("expected error to mention %q, got: %v", tt.field, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidationErrorsFormat(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}

	msg := errs.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("unexpected message prefix: %s", msg)
	}
	if !strings.Contains(msg, "a: first") || !strings.Contains(msg, "b: second") {
		t.Errorf("expected both errors in message, got: %s", msg)
	}

	if (ValidationErrors{}).Error() != "" {
		t.Error("expected empty message for empty errors")
	}
}
