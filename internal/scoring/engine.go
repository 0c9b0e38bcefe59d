package scoring

import (
	"context"
	"math"
)

// Category signal for the attribute policy: 40 points for full attribute
// overlap plus 20 for the same category tag, normalised to 0-100.
const (
	attributeOverlapPoints = 40.0
	categoryMatchPoints    = 20.0
)

// Breakdown records every component signal behind a composite score.
// Cosines are nil when either side had no usable embedding.
type Breakdown struct {
	Policy           PolicyName `json:"policy"`
	TimeScore        float64    `json:"time_score"`
	DistanceScore    float64    `json:"distance_score"`
	TextScore        float64    `json:"text_score"`
	TextMethod       TextMethod `json:"text_method"`
	CategoryScore    float64    `json:"category_score"`
	CategoryMatch    bool       `json:"category_match"`
	AttributeJaccard float64    `json:"attribute_jaccard"`
	EmbeddingCosine  *float64   `json:"embedding_cosine,omitempty"`
	ImageCosine      *float64   `json:"image_cosine,omitempty"`
}

type Result struct {
	Composite float64   `json:"composite"`
	Breakdown Breakdown `json:"breakdown"`
}

// Engine combines the geo, time, text and category signals under one Policy.
type Engine struct {
	policy Policy
	text   *TextScorer
}

func NewEngine(policy Policy, text *TextScorer) *Engine {
	return &Engine{policy: policy, text: text}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Score rates how likely lost and found describe the same object. The
// composite is already a display-ready percentage.
func (e *Engine) Score(ctx context.Context, lost, found Item) Result {
	b := Breakdown{
		Policy:           e.policy.Name,
		TimeScore:        round2(TimeScore(lost.OccurredAt, found.OccurredAt, e.policy.LateReportWindow)),
		DistanceScore:    round2(DistanceScore(lost.Location, found.Location)),
		CategoryMatch:    SameCategory(lost.Category, found.Category),
		AttributeJaccard: round2(Jaccard(lost.Attributes, found.Attributes)),
	}

	if len(lost.TextEmbedding) > 0 && len(found.TextEmbedding) > 0 {
		if c, err := Cosine(lost.TextEmbedding, found.TextEmbedding); err == nil {
			c = round4(c)
			b.EmbeddingCosine = &c
		}
	}
	if c, ok := BestImageCosine(lost.ImageEmbeddings, found.ImageEmbeddings); ok {
		c = round4(c)
		b.ImageCosine = &c
	}

	b.CategoryScore = attributeOverlapPoints * Jaccard(lost.Attributes, found.Attributes)
	if b.CategoryMatch {
		b.CategoryScore += categoryMatchPoints
	}
	b.CategoryScore = round2(clamp(b.CategoryScore/(attributeOverlapPoints+categoryMatchPoints)*100, 0, 100))

	if e.policy.Name == PolicyAttribute && b.EmbeddingCosine != nil {
		b.TextScore = round2(clamp(*b.EmbeddingCosine*100, 0, 100))
		b.TextMethod = TextMethodEmbedding
	} else {
		score, method := e.text.Score(ctx, lost, found)
		b.TextScore = round2(score)
		b.TextMethod = method
	}

	composite := e.policy.TimeWeight*b.TimeScore +
		e.policy.DistanceWeight*b.DistanceScore +
		e.policy.TextWeight*b.TextScore +
		e.policy.CategoryWeight*b.CategoryScore

	return Result{Composite: round2(clamp(composite, 0, 100)), Breakdown: b}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
