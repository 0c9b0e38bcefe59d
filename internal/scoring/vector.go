package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Cosine returns the cosine similarity of two equal-length vectors. A vector
// with zero norm yields 0.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return clamp(dot/(math.Sqrt(normA)*math.Sqrt(normB)), -1, 1), nil
}

// Jaccard treats each attribute map as a set of "key:value" strings and
// returns |A∩B| / |A∪B|. Two empty maps give 0.
func Jaccard(a, b map[string]string) float64 {
	setA := attributeSet(a)
	setB := attributeSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// BestImageCosine returns the highest cosine over every pair of image
// embeddings. Pairs of different dimensions are skipped; ok is false when no
// pair could be compared.
func BestImageCosine(a, b [][]float64) (best float64, ok bool) {
	best = -1
	for _, va := range a {
		for _, vb := range b {
			c, err := Cosine(va, vb)
			if err != nil {
				continue
			}
			if c > best {
				best = c
			}
			ok = true
		}
	}
	if !ok {
		return 0, false
	}
	return best, true
}

func attributeSet(m map[string]string) map[string]struct{} {
	set := make(map[string]struct{}, len(m))
	for k, v := range m {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		set[key+":"+strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}
