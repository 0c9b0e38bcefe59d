// Package scoring turns the signals attached to a lost and a found report into
// a single 0-100 "same physical object" confidence.
//
// Everything in this package is deterministic given its inputs except the
// semantic judge, which is an injected capability and always has a lexical
// fallback.
package scoring

import (
	"math"
	"strings"
	"time"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Valid reports whether the point lies inside the latitude/longitude ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Item is the scoring view of a report. Location is nil when the reporter did
// not share one.
type Item struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	Location        *Point            `json:"location,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
	TextEmbedding   []float64         `json:"text_embedding,omitempty"`
	ImageEmbeddings [][]float64       `json:"image_embeddings,omitempty"`
}

// SameCategory compares category tags case-insensitively. Two empty tags do
// not count as a match.
func SameCategory(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return a != "" && a == b
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
