package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type PolicyName string

const (
	// PolicyJudged weighs the semantic judge heavily. This is the default.
	PolicyJudged PolicyName = "judged"
	// PolicyAttribute blends embedding cosine with attribute/category overlap.
	PolicyAttribute PolicyName = "attribute"
)

var ErrInvalidPolicy = errors.New("invalid scoring policy")

// Policy holds the weights of the composite score. Weights are fractions that
// must add up to 1 so the composite stays within 0-100. LateReportWindow
// bounds both the time signal and which candidates are considered at all.
type Policy struct {
	Name             PolicyName    `yaml:"name" json:"name"`
	TimeWeight       float64       `yaml:"time_weight" json:"time_weight"`
	DistanceWeight   float64       `yaml:"distance_weight" json:"distance_weight"`
	TextWeight       float64       `yaml:"text_weight" json:"text_weight"`
	CategoryWeight   float64       `yaml:"category_weight" json:"category_weight"`
	LateReportWindow time.Duration `yaml:"late_report_window" json:"late_report_window"`
}

func JudgedPolicy() Policy {
	return Policy{
		Name:             PolicyJudged,
		TimeWeight:       0.15,
		DistanceWeight:   0.25,
		TextWeight:       0.60,
		LateReportWindow: LateLostReportWindow,
	}
}

func AttributePolicy() Policy {
	return Policy{
		Name:             PolicyAttribute,
		TimeWeight:       0.2,
		DistanceWeight:   0.3,
		TextWeight:       0.3,
		CategoryWeight:   0.2,
		LateReportWindow: LateLostReportWindow,
	}
}

// PolicyByName returns the built-in policy. An empty name selects the default.
func PolicyByName(name string) (Policy, error) {
	switch PolicyName(name) {
	case "", PolicyJudged:
		return JudgedPolicy(), nil
	case PolicyAttribute:
		return AttributePolicy(), nil
	}
	return Policy{}, fmt.Errorf("%w: unknown policy %q", ErrInvalidPolicy, name)
}

func (p Policy) Validate() error {
	if p.Name != PolicyJudged && p.Name != PolicyAttribute {
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidPolicy, p.Name)
	}
	weights := []float64{p.TimeWeight, p.DistanceWeight, p.TextWeight, p.CategoryWeight}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: negative weight", ErrInvalidPolicy)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: weights sum to %.4f, want 1", ErrInvalidPolicy, sum)
	}
	if p.LateReportWindow < 0 {
		return fmt.Errorf("%w: negative late report window", ErrInvalidPolicy)
	}
	return nil
}
