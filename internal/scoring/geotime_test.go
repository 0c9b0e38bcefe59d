package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var campus = Point{Latitude: 49.2606, Longitude: -123.246}

func north(p Point, meters float64) Point {
	// one degree of latitude on the spherical earth used by HaversineMeters
	const metersPerDegree = earthRadiusMeters * 3.141592653589793 / 180
	return Point{Latitude: p.Latitude + meters/metersPerDegree, Longitude: p.Longitude}
}

func TestHaversineMeters(t *testing.T) {
	assert.InDelta(t, 0, HaversineMeters(campus, campus), 1e-9)
	assert.InDelta(t, 1000, HaversineMeters(campus, north(campus, 1000)), 0.01)
	assert.InDelta(t, HaversineMeters(campus, north(campus, 750)), HaversineMeters(north(campus, 750), campus), 1e-9)
}

func TestDistanceScore(t *testing.T) {
	far := north(campus, 5000)

	tests := []struct {
		name  string
		lost  *Point
		found *Point
		want  float64
	}{
		{"missing lost point", nil, &campus, NeutralScore},
		{"missing found point", &campus, nil, NeutralScore},
		{"both missing", nil, nil, NeutralScore},
		{"same point", &campus, &campus, 100},
		{"beyond far limit", &campus, &far, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceScore(tt.lost, tt.found), 1e-9)
		})
	}
}

func TestDistanceScoreBoundaries(t *testing.T) {
	within := north(campus, 150)
	assert.Equal(t, 100.0, DistanceScore(&campus, &within))

	edge := north(campus, 4000)
	assert.InDelta(t, 0, DistanceScore(&campus, &edge), 1e-6)

	middle := north(campus, 2100)
	assert.InDelta(t, 50, DistanceScore(&campus, &middle), 0.01)
}

func TestDistanceScoreMonotonic(t *testing.T) {
	prev := 101.0
	for meters := 0.0; meters <= 6000; meters += 50 {
		p := north(campus, meters)
		score := DistanceScore(&campus, &p)
		assert.LessOrEqual(t, score, prev, "distance %v", meters)
		assert.GreaterOrEqual(t, score, 0.0)
		prev = score
	}
}

func TestTimeScore(t *testing.T) {
	lostAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		delta time.Duration
		want  float64
	}{
		{"same instant", 0, 100},
		{"one hour later", time.Hour, 100 * (1 - 1.0/168)},
		{"half a week later", 84 * time.Hour, 50},
		{"exactly a week later", 168 * time.Hour, 0},
		{"two weeks later", 336 * time.Hour, 0},
		{"found six hours before loss was filed", -6 * time.Hour, 50},
		{"found twelve hours before", -12 * time.Hour, 0},
		{"found a day before", -24 * time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TimeScore(lostAt, lostAt.Add(tt.delta), LateLostReportWindow), 1e-9)
		})
	}
}

func TestTimeScoreSameTimestampAlwaysFull(t *testing.T) {
	for _, ts := range []time.Time{
		time.Unix(0, 0),
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Now(),
	} {
		assert.Equal(t, 100.0, TimeScore(ts, ts, LateLostReportWindow))
	}
}

func TestTimeScoreFollowsLateWindow(t *testing.T) {
	lostAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	assert.InDelta(t, 50, TimeScore(lostAt, lostAt.Add(-3*time.Hour), 6*time.Hour), 1e-9)
	assert.Equal(t, 0.0, TimeScore(lostAt, lostAt.Add(-time.Minute), 0))
	assert.Equal(t, 100.0, TimeScore(lostAt, lostAt, 0))
}
