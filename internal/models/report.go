package models

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/google/uuid"
)

type ReportKind string

const (
	KindLost  ReportKind = "lost"
	KindFound ReportKind = "found"
)

func (k ReportKind) Valid() bool {
	return k == KindLost || k == KindFound
}

// Opposite returns the kind a report of kind k can be matched against.
func (k ReportKind) Opposite() ReportKind {
	if k == KindLost {
		return KindFound
	}
	return KindLost
}

type ReportStatus string

const (
	StatusUnresolved ReportStatus = "unresolved"
	StatusFound      ReportStatus = "found"
	StatusMatched    ReportStatus = "matched"
	StatusReturned   ReportStatus = "returned"
)

// OpenStatuses are the statuses that can still be offered as candidates.
var OpenStatuses = []ReportStatus{StatusUnresolved, StatusFound}

// InitialStatus is the status a new report of kind k starts in.
func InitialStatus(k ReportKind) ReportStatus {
	if k == KindFound {
		return StatusFound
	}
	return StatusUnresolved
}

func (s ReportStatus) Open() bool {
	return s == StatusUnresolved || s == StatusFound
}

// Report is a lost or found submission. Location is stored as two nullable
// columns; use Location/SetLocation rather than the raw fields.
type Report struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID         uuid.UUID         `gorm:"type:uuid;not null;index:idx_reports_owner_kind_category,priority:1" json:"owner_id"`
	Kind            ReportKind        `gorm:"size:10;not null;index:idx_reports_kind_status,priority:1;index:idx_reports_owner_kind_category,priority:2" json:"kind"`
	Title           string            `gorm:"size:200;not null" json:"title"`
	Description     string            `gorm:"type:text" json:"description"`
	Category        string            `gorm:"size:50;index:idx_reports_owner_kind_category,priority:3" json:"category"`
	Attributes      map[string]string `gorm:"type:jsonb;serializer:json" json:"attributes"`
	Latitude        *float64          `gorm:"type:double precision" json:"latitude,omitempty"`
	Longitude       *float64          `gorm:"type:double precision" json:"longitude,omitempty"`
	OccurredAt      time.Time         `gorm:"not null;index" json:"occurred_at"`
	TextEmbedding   []float64         `gorm:"type:jsonb;serializer:json" json:"-"`
	ImageEmbeddings [][]float64       `gorm:"type:jsonb;serializer:json" json:"-"`
	Status          ReportStatus      `gorm:"size:20;not null;default:'unresolved';index:idx_reports_kind_status,priority:2" json:"status"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) Location() *scoring.Point {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &scoring.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

func (r *Report) SetLocation(p *scoring.Point) {
	if p == nil {
		r.Latitude, r.Longitude = nil, nil
		return
	}
	lat, lng := p.Latitude, p.Longitude
	r.Latitude, r.Longitude = &lat, &lng
}

func (r *Report) HasEmbedding() bool {
	return len(r.TextEmbedding) > 0
}

// EmbeddingText is the text sent to the embedding service.
func (r *Report) EmbeddingText() string {
	parts := []string{strings.TrimSpace(r.Title), strings.TrimSpace(r.Description)}
	if c := strings.TrimSpace(r.Category); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n")
}

func (r *Report) ScoringItem() scoring.Item {
	return scoring.Item{
		Name:            r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Attributes:      r.Attributes,
		Location:        r.Location(),
		OccurredAt:      r.OccurredAt,
		TextEmbedding:   r.TextEmbedding,
		ImageEmbeddings: r.ImageEmbeddings,
	}
}
