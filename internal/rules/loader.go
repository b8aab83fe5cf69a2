package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// ruleFile is the on-disk YAML shape for seed screening rules.
type ruleFile struct {
	Rules []struct {
		ID          string  `yaml:"id"`
		Name        string  `yaml:"name"`
		Description string  `yaml:"description"`
		Expression  string  `yaml:"expression"`
		Severity    string  `yaml:"severity"`
		Deduction   float64 `yaml:"deduction"`
		Enabled     *bool   `yaml:"enabled"`
	} `yaml:"rules"`
}

// LoadDir reads every .yaml/.yml file in dir and returns the screening
// rules they declare, sorted by ID. Rules default to enabled.
func LoadDir(dir string) ([]*domain.ScreeningRule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule directory %s: %w", dir, err)
	}

	var rules []*domain.ScreeningRule
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", entry.Name(), err)
		}

		var file ruleFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse rule file %s: %w", entry.Name(), err)
		}

		for _, r := range file.Rules {
			if r.ID == "" || r.Expression == "" {
				return nil, fmt.Errorf("rule file %s: every rule needs an id and an expression", entry.Name())
			}
			enabled := true
			if r.Enabled != nil {
				enabled = *r.Enabled
			}
			rules = append(rules, &domain.ScreeningRule{
				ID:          r.ID,
				Name:        r.Name,
				Description: r.Description,
				Expression:  r.Expression,
				Severity:    r.Severity,
				Deduction:   r.Deduction,
				Enabled:     enabled,
			})
		}
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	return rules, nil
}
