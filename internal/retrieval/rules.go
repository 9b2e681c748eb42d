// Package retrieval scores the chunk corpus against a question and
// assembles the positionally aligned sources/context arrays a
// chat_response carries.
package retrieval

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Tier relaxes the acceptance threshold as the corpus grows: with few
// indexes only close matches pass, with more the cutoff loosens, and
// past the last tier the best match per index is always taken.
type Tier struct {
	MaxIndexes  int     `yaml:"maxIndexes"`
	MaxDistance float64 `yaml:"maxDistance"`
}

// Rules is the YAML-configurable scoring policy.
type Rules struct {
	Tiers []Tier `yaml:"tiers"`
	TopK  int    `yaml:"topKPerIndex"`
}

// DefaultRules reproduces the reference thresholds.
func DefaultRules() *Rules {
	return &Rules{
		Tiers: []Tier{
			{MaxIndexes: 10, MaxDistance: 1.0},
			{MaxIndexes: 20, MaxDistance: 1.5},
			{MaxIndexes: 30, MaxDistance: 2.0},
		},
		TopK: 1,
	}
}

// ParseRules parses a YAML tier rules file.
func ParseRules(filePath string) (*Rules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseRulesFromReader(file)
}

// ParseRulesFromReader parses rules from an io.Reader.
func ParseRulesFromReader(r io.Reader) (*Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	if rules.TopK <= 0 {
		rules.TopK = 1
	}
	return &rules, nil
}

// LoadRules loads the rules file, falling back to the defaults when the
// path is empty or the file does not exist.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultRules(), nil
	}

	rules, err := ParseRules(path)
	if err != nil {
		return nil, fmt.Errorf("parsing retrieval rules: %w", err)
	}
	return rules, nil
}

// cutoff returns the acceptance threshold for the given index count and
// whether a threshold applies at all (false past the last tier).
func (r *Rules) cutoff(indexCount int) (float64, bool) {
	for _, t := range r.Tiers {
		if indexCount < t.MaxIndexes {
			return t.MaxDistance, true
		}
	}
	return 0, false
}
