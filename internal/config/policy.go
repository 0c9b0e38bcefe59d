package config

import (
	"fmt"
	"os"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"gopkg.in/yaml.v3"
)

// PolicyFile is the YAML document behind SCORING_POLICY_FILE:
//
//	scoring:
//	  name: judged
//	  time_weight: 0.15
//	  distance_weight: 0.25
//	  text_weight: 0.60
//	  late_report_window: 12h
//	matching:
//	  auto_match_threshold: 75
//	  exploratory_threshold: 0
//	  duplicate_window: 24h
//
// Both sections are decoded over the built-in values, so an omitted key keeps
// its default and an explicit zero stays zero.
type PolicyFile struct {
	Scoring  yaml.Node `yaml:"scoring"`
	Matching yaml.Node `yaml:"matching"`
}

// Policy returns the scoring section applied over the built-in policy it
// names, or over fallback when it names none.
func (f *PolicyFile) Policy(fallback string) (scoring.Policy, error) {
	var head struct {
		Name string `yaml:"name"`
	}
	if !f.Scoring.IsZero() {
		if err := f.Scoring.Decode(&head); err != nil {
			return scoring.Policy{}, err
		}
	}
	if head.Name == "" {
		head.Name = fallback
	}
	policy, err := scoring.PolicyByName(head.Name)
	if err != nil {
		return scoring.Policy{}, err
	}
	if !f.Scoring.IsZero() {
		if err := f.Scoring.Decode(&policy); err != nil {
			return scoring.Policy{}, err
		}
	}
	return policy, nil
}

// ApplyMatching overlays the matching section onto cfg.
func (f *PolicyFile) ApplyMatching(cfg *matching.Config) error {
	if f.Matching.IsZero() {
		return nil
	}
	return f.Matching.Decode(cfg)
}

// MatchingPolicy resolves the scoring policy and matching thresholds. The
// file, when set, overrides the named policy and MATCH_WORKERS.
func (c *Config) MatchingPolicy() (scoring.Policy, matching.Config, error) {
	policy, err := scoring.PolicyByName(c.ScoringPolicy)
	if err != nil {
		return scoring.Policy{}, matching.Config{}, err
	}
	mcfg := matching.DefaultConfig()
	if c.MatchWorkers > 0 {
		mcfg.Workers = c.MatchWorkers
	}

	if c.ScoringPolicyFile != "" {
		file, err := LoadPolicyFile(c.ScoringPolicyFile)
		if err != nil {
			return scoring.Policy{}, matching.Config{}, err
		}
		if policy, err = file.Policy(c.ScoringPolicy); err != nil {
			return scoring.Policy{}, matching.Config{}, err
		}
		if err := file.ApplyMatching(&mcfg); err != nil {
			return scoring.Policy{}, matching.Config{}, fmt.Errorf("policy file %s: %w", c.ScoringPolicyFile, err)
		}
	}

	if err := policy.Validate(); err != nil {
		return scoring.Policy{}, matching.Config{}, err
	}
	if err := mcfg.Validate(); err != nil {
		return scoring.Policy{}, matching.Config{}, err
	}
	return policy, mcfg, nil
}

func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if !file.Scoring.IsZero() {
		policy, err := file.Policy("")
		if err != nil {
			return nil, fmt.Errorf("policy file %s: %w", path, err)
		}
		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("policy file %s: %w", path, err)
		}
	}
	return &file, nil
}
