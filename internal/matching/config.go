package matching

import (
	"fmt"
	"time"
)

// Config holds the thresholds of automatic matching and duplicate
// suppression. Scores are on the 0-100 scale. The late-report window lives
// on the scoring policy so candidate selection and the time signal agree.
type Config struct {
	// AutoMatchThreshold is the minimum composite for a persisted match.
	AutoMatchThreshold float64 `yaml:"auto_match_threshold"`
	// ExploratoryThreshold is the exclusive floor of the potential-matches view.
	ExploratoryThreshold float64 `yaml:"exploratory_threshold"`
	// DuplicateSimilarity is the cosine above which a resubmission is rejected.
	DuplicateSimilarity float64       `yaml:"duplicate_similarity"`
	DuplicateWindow     time.Duration `yaml:"duplicate_window"`
	// Workers bounds concurrent pair scoring per scan.
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		AutoMatchThreshold:   75,
		ExploratoryThreshold: 10,
		DuplicateSimilarity:  0.95,
		DuplicateWindow:      24 * time.Hour,
		Workers:              8,
	}
}

// Validate checks ranges only; zero is a legitimate value for every field
// except Workers.
func (c Config) Validate() error {
	switch {
	case c.AutoMatchThreshold < 0 || c.AutoMatchThreshold > 100:
		return fmt.Errorf("%w: auto_match_threshold must be within 0-100", ErrValidation)
	case c.ExploratoryThreshold < 0 || c.ExploratoryThreshold > 100:
		return fmt.Errorf("%w: exploratory_threshold must be within 0-100", ErrValidation)
	case c.ExploratoryThreshold > c.AutoMatchThreshold:
		return fmt.Errorf("%w: exploratory_threshold exceeds auto_match_threshold", ErrValidation)
	case c.DuplicateSimilarity < 0 || c.DuplicateSimilarity > 1:
		return fmt.Errorf("%w: duplicate_similarity must be within 0-1", ErrValidation)
	case c.DuplicateWindow < 0:
		return fmt.Errorf("%w: duplicate_window must not be negative", ErrValidation)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrValidation)
	}
	return nil
}
