package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
)

var ErrInvalidLocation = errors.New("location must be {latitude, longitude} within range")

// Location accepts either a JSON object or a JSON string holding that
// object, which is how some mobile clients send it.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return ErrInvalidLocation
		}
		data = []byte(inner)
	}

	type plain Location
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrInvalidLocation
	}
	*l = Location(p)
	return nil
}

func (l Location) Validate() error {
	if !l.Point().Valid() {
		return ErrInvalidLocation
	}
	return nil
}

func (l *Location) Point() *scoring.Point {
	if l == nil {
		return nil
	}
	return &scoring.Point{Latitude: l.Latitude, Longitude: l.Longitude}
}

type CreateReportRequest struct {
	Kind        models.ReportKind `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Attributes  map[string]string `json:"attributes"`
	Location    *Location         `json:"location"`
	OccurredAt  time.Time         `json:"occurred_at"`
	// ImageData holds base64 images, with or without a data URL prefix.
	ImageData []string `json:"image_data"`
}

type CreateReportResponse struct {
	Report  models.Report  `json:"report"`
	Matches []models.Match `json:"matches"`
}

type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}
