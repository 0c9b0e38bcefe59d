package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("AI_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "secret", cfg.DBPassword)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, 8, cfg.MatchWorkers)
	assert.Equal(t, 30, cfg.LogRetentionDays)
	assert.Equal(t, "judged", cfg.ScoringPolicy)
	assert.Contains(t, cfg.DSN(), "password=secret")
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("MATCH_WORKERS", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestMatchingPolicyByName(t *testing.T) {
	cfg := &Config{ScoringPolicy: "attribute", MatchWorkers: 4}
	policy, mcfg, err := cfg.MatchingPolicy()
	require.NoError(t, err)
	assert.Equal(t, scoring.AttributePolicy(), policy)
	assert.Equal(t, 4, mcfg.Workers)
	assert.Equal(t, 75.0, mcfg.AutoMatchThreshold)

	cfg.ScoringPolicy = "vibes"
	_, _, err = cfg.MatchingPolicy()
	assert.ErrorIs(t, err, scoring.ErrInvalidPolicy)
}

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMatchingPolicyFromFile(t *testing.T) {
	path := writePolicy(t, `
scoring:
  name: judged
  time_weight: 0.2
  distance_weight: 0.2
  text_weight: 0.6
matching:
  auto_match_threshold: 80
  duplicate_window: 12h
`)
	cfg := &Config{ScoringPolicy: "attribute", ScoringPolicyFile: path, MatchWorkers: 3}
	policy, mcfg, err := cfg.MatchingPolicy()
	require.NoError(t, err)

	assert.Equal(t, scoring.PolicyJudged, policy.Name)
	assert.Equal(t, 0.2, policy.TimeWeight)
	assert.Equal(t, 80.0, mcfg.AutoMatchThreshold)
	assert.Equal(t, 12*time.Hour, mcfg.DuplicateWindow)
	assert.Equal(t, 0.95, mcfg.DuplicateSimilarity)
	assert.Equal(t, 3, mcfg.Workers)
}

func TestMatchingPolicyKeepsExplicitZeros(t *testing.T) {
	path := writePolicy(t, `
scoring:
  late_report_window: 6h
matching:
  exploratory_threshold: 0
`)
	cfg := &Config{ScoringPolicy: "attribute", ScoringPolicyFile: path, MatchWorkers: 2}
	policy, mcfg, err := cfg.MatchingPolicy()
	require.NoError(t, err)

	assert.Equal(t, scoring.PolicyAttribute, policy.Name)
	assert.Equal(t, 0.2, policy.CategoryWeight, "unset weights come from the named policy")
	assert.Equal(t, 6*time.Hour, policy.LateReportWindow)
	assert.Equal(t, 0.0, mcfg.ExploratoryThreshold)
	assert.Equal(t, 75.0, mcfg.AutoMatchThreshold)
	assert.Equal(t, 2, mcfg.Workers)
}

func TestMatchingPolicyRejectsOutOfRangeThresholds(t *testing.T) {
	path := writePolicy(t, `
matching:
  auto_match_threshold: 140
`)
	cfg := &Config{ScoringPolicyFile: path, MatchWorkers: 2}
	_, _, err := cfg.MatchingPolicy()
	assert.ErrorIs(t, err, matching.ErrValidation)
}

func TestLoadPolicyFileRejectsBadWeights(t *testing.T) {
	path := writePolicy(t, `
scoring:
  name: judged
  time_weight: 0.5
  distance_weight: 0.5
  text_weight: 0.5
`)
	_, err := LoadPolicyFile(path)
	assert.ErrorIs(t, err, scoring.ErrInvalidPolicy)

	_, err = LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
