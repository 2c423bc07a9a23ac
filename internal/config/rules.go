package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"change-intake-service/internal/formrules"
)

// LoadRuleTable returns the built-in rule table, or the table stored at path
// when path is set. Tiers missing from the file keep their built-in rules.
func LoadRuleTable(path string) (formrules.RuleTable, error) {
	table := formrules.DefaultRuleTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}

	var override map[formrules.Tier]formrules.FieldRuleSet
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse rule table %s: %w", path, err)
	}
	for tier, rs := range override {
		if _, ok := formrules.ParseTier(string(tier)); !ok {
			return nil, fmt.Errorf("parse rule table %s: unknown tier %q", path, tier)
		}
		if rs.MinLengths == nil {
			rs.MinLengths = map[string]int{}
		}
		table[tier] = rs
	}
	return table, nil
}
