package attribution

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSpec is the on-disk form of a Rule.
type RuleSpec struct {
	Pattern string `yaml:"pattern"`
	Source  string `yaml:"source"`
}

// RulesFile is the YAML document accepted by LoadRules.
//
//	referrers:
//	  - pattern: 'claude\.ai'
//	    source: claude
//	bots:
//	  - pattern: GPTBot
//	    source: gptbot
//
// A missing or empty list keeps the corresponding built-in table.
type RulesFile struct {
	Referrers []RuleSpec `yaml:"referrers"`
	Bots      []RuleSpec `yaml:"bots"`
}

// ParseRules decodes a YAML rules document.
func ParseRules(data []byte) (Rules, error) {
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}

	rules := DefaultRules()

	if len(file.Referrers) > 0 {
		table, err := buildTable(file.Referrers)
		if err != nil {
			return Rules{}, fmt.Errorf("referrers: %w", err)
		}

		rules.Referrers = table
	}

	if len(file.Bots) > 0 {
		table, err := buildTable(file.Bots)
		if err != nil {
			return Rules{}, fmt.Errorf("bots: %w", err)
		}

		rules.Bots = table
	}

	return rules, nil
}

// LoadRules reads rules from path. An empty path returns the built-in tables.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	return ParseRules(data)
}

func buildTable(specs []RuleSpec) (*Table, error) {
	rules := make([]Rule, 0, len(specs))

	for i, spec := range specs {
		rule, err := NewRule(spec.Pattern, spec.Source)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		rules = append(rules, rule)
	}

	return NewTable(rules...), nil
}
