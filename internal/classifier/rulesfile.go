package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// ruleFile is the on-disk shape of a keyword rules file.
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Keyword  string `yaml:"keyword"`
	Type     string `yaml:"type"`
	Priority int    `yaml:"priority"`
	Active   *bool  `yaml:"active"`
}

// LoadRulesFile reads classification rules from a YAML file, for bulk
// import. Active defaults to true when omitted; entries without a
// keyword or type are rejected rather than silently skipped.
func LoadRulesFile(path string) ([]models.ClassificationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	rules := make([]models.ClassificationRule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		if entry.Keyword == "" {
			return nil, fmt.Errorf("rule %d: keyword must not be empty", i+1)
		}
		if entry.Type == "" {
			return nil, fmt.Errorf("rule %d: type must not be empty", i+1)
		}
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}
		rules = append(rules, models.ClassificationRule{
			Keyword:    entry.Keyword,
			TargetType: entry.Type,
			Priority:   entry.Priority,
			Active:     active,
		})
	}
	return rules, nil
}
