package cmd

import (
	"time"

	"github.com/dbsmedya/zoneaudit/internal/config"
	"github.com/dbsmedya/zoneaudit/internal/rules"
)

// loadRules resolves the rule set for a run: an explicit rules file wins over the
// profile's and the global configuration.
func loadRules(cfg *config.Config, profile, rulesFile string) (*config.RulesConfig, error) {
	if rulesFile != "" {
		return config.LoadRules(rulesFile)
	}
	return cfg.ResolveRules(profile)
}

func compileRules(cfg *config.Config, profile, rulesFile string) (*rules.RuleSet, error) {
	rc, err := loadRules(cfg, profile, rulesFile)
	if err != nil {
		return nil, err
	}
	rs, err := rules.Compile(*rc, time.Now())
	if err != nil {
		return nil, err
	}
	return rs, nil
}
