package scoring

import (
	"math"
	"time"
)

const (
	earthRadiusMeters = 6371000.0

	// Distances at or below nearDistanceMeters score 100, at or beyond
	// farDistanceMeters score 0, linear in between.
	nearDistanceMeters = 200.0
	farDistanceMeters  = 4000.0

	// NeutralScore is returned whenever a signal cannot be computed.
	NeutralScore = 50.0
)

const (
	// LateLostReportWindow is the default for how far a found report may
	// predate the lost report (the owner filed late) before the time signal
	// reaches zero.
	LateLostReportWindow = 12 * time.Hour

	// FoundDecayWindow is how long after the loss a find still earns a
	// non-zero time signal.
	FoundDecayWindow = 168 * time.Hour
)

// HaversineMeters returns the great-circle distance between two points on a
// spherical earth.
func HaversineMeters(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = clamp(h, 0, 1)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceScore converts the distance between where an item was lost and
// where it was found into 0-100. A missing point yields NeutralScore.
func DistanceScore(lost, found *Point) float64 {
	if lost == nil || found == nil {
		return NeutralScore
	}
	meters := HaversineMeters(*lost, *found)
	switch {
	case meters <= nearDistanceMeters:
		return 100
	case meters >= farDistanceMeters:
		return 0
	}
	return clamp(100*(farDistanceMeters-meters)/(farDistanceMeters-nearDistanceMeters), 0, 100)
}

// TimeScore converts the delay between the loss and the find into 0-100.
// Finds recorded before the loss decay over lateWindow, finds after it over
// FoundDecayWindow.
func TimeScore(lostAt, foundAt time.Time, lateWindow time.Duration) float64 {
	delta := foundAt.Sub(lostAt).Hours()
	if delta < 0 {
		if lateWindow <= 0 {
			return 0
		}
		return clamp(100*(1+delta/lateWindow.Hours()), 0, 100)
	}
	return clamp(100*(1-delta/FoundDecayWindow.Hours()), 0, 100)
}
