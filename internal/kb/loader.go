// Package kb loads and validates the rule repository. Rule files are
// YAML; a default smartphone knowledge base is baked into the binary.
// The repository is read-only: the engine never writes rules back.
package kb

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"pakar/internal/engine"
)

// Metadata describes a rule file.
type Metadata struct {
	Domain      string `yaml:"domain"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// DefaultRuleCF is assigned to rules that omit an explicit cf value.
const DefaultRuleCF = 0.8

// ruleYAML is the on-disk rule representation.
type ruleYAML struct {
	ID          string   `yaml:"id"`
	If          []string `yaml:"if"`
	Then        string   `yaml:"then"`
	CF          *float64 `yaml:"cf"`
	Final       *bool    `yaml:"final"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Source      string   `yaml:"source"`
}

type ruleFile struct {
	Metadata Metadata   `yaml:"metadata"`
	Rules    []ruleYAML `yaml:"rules"`
}

// atomPattern is the required fact identifier format: lowercase start,
// then lowercase letters, digits, underscores.
var atomPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// finalFallbackKeywords drives the legacy terminal-diagnosis heuristic,
// applied only to rules that omit the explicit final tag.
var finalFallbackKeywords = []string{
	"kerusakan", "masalah", "degradasi", "rusak",
	"aplikasi", "malware", "storage", "tindakan",
}

func looksFinal(fact string) bool {
	lower := strings.ToLower(fact)
	for _, kw := range finalFallbackKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Parse builds a validated rule set from YAML with DefaultRuleCF for
// rules that omit a cf.
func Parse(data []byte) (*engine.RuleSet, Metadata, error) {
	return ParseWithDefault(data, DefaultRuleCF)
}

// ParseWithDefault builds a validated rule set from YAML. Beyond the
// engine's structural invariants it enforces the atom format on every
// antecedent and consequent. Rules without an explicit final tag fall
// back to the keyword heuristic so untagged rule files keep ranking;
// rules without a cf get defaultCF.
func ParseWithDefault(data []byte, defaultCF float64) (*engine.RuleSet, Metadata, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, Metadata{}, fmt.Errorf("kb: parse rules: %w", err)
	}

	rules := make([]engine.Rule, 0, len(file.Rules))
	for _, r := range file.Rules {
		if !atomPattern.MatchString(r.ID) {
			return nil, Metadata{}, fmt.Errorf("kb: rule id %q: must be lowercase letters, digits, underscores", r.ID)
		}
		for _, cond := range r.If {
			if !atomPattern.MatchString(cond) {
				return nil, Metadata{}, fmt.Errorf("kb: rule %s: antecedent %q has invalid format", r.ID, cond)
			}
		}
		if !atomPattern.MatchString(r.Then) {
			return nil, Metadata{}, fmt.Errorf("kb: rule %s: consequent %q has invalid format", r.ID, r.Then)
		}

		final := looksFinal(r.Then)
		if r.Final != nil {
			final = *r.Final
		}
		ruleCF := defaultCF
		if r.CF != nil {
			ruleCF = *r.CF
		}

		conditions := make([]engine.Fact, len(r.If))
		for i, c := range r.If {
			conditions[i] = engine.Fact(c)
		}
		rules = append(rules, engine.Rule{
			ID:          r.ID,
			If:          conditions,
			Then:        engine.Fact(r.Then),
			CF:          ruleCF,
			Final:       final,
			Category:    r.Category,
			Description: r.Description,
			Source:      r.Source,
		})
	}

	rs, err := engine.NewRuleSet(rules)
	if err != nil {
		return nil, Metadata{}, err
	}
	return rs, file.Metadata, nil
}

// Load reads and parses a rule file from disk.
func Load(path string) (*engine.RuleSet, Metadata, error) {
	return LoadWithDefault(path, DefaultRuleCF)
}

// LoadWithDefault reads and parses a rule file, assigning defaultCF to
// rules that omit one.
func LoadWithDefault(path string, defaultCF float64) (*engine.RuleSet, Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("kb: read %s: %w", path, err)
	}
	return ParseWithDefault(data, defaultCF)
}

// LoadOrEmpty loads a rule file, degrading to an empty rule set on any
// failure. A broken repository must not take the engine down; both
// chainers produce empty results over an empty set.
func LoadOrEmpty(path string, logger *zap.Logger) *engine.RuleSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs, meta, err := Load(path)
	if err != nil {
		logger.Warn("rule repository unavailable, continuing with empty rule set",
			zap.String("path", path),
			zap.Error(err))
		return engine.EmptyRuleSet()
	}
	logger.Info("rules loaded",
		zap.String("path", path),
		zap.String("domain", meta.Domain),
		zap.String("version", meta.Version),
		zap.Int("rules", rs.Len()))
	return rs
}
