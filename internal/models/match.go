package models

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchConfirmed MatchStatus = "confirmed"
	MatchRejected  MatchStatus = "rejected"
)

// MatchSource records how a match came to exist.
type MatchSource string

const (
	SourceAuto  MatchSource = "auto"
	SourceClaim MatchSource = "claim"
)

// Match pairs exactly one lost report with one found report. Version is
// bumped on every update and checked by the store to detect lost updates.
type Match struct {
	ID                   uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LostReportID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair,priority:1" json:"lost_report_id"`
	FoundReportID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair,priority:2;index" json:"found_report_id"`
	Score                float64           `gorm:"not null;check:score >= 0 AND score <= 100" json:"score"`
	Breakdown            scoring.Breakdown `gorm:"type:jsonb;serializer:json" json:"breakdown"`
	Status               MatchStatus       `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Source               MatchSource       `gorm:"size:20;not null;default:'auto'" json:"source"`
	ConfirmedByLostUser  bool              `gorm:"not null;default:false" json:"confirmed_by_lost_user"`
	ConfirmedByFoundUser bool              `gorm:"not null;default:false" json:"confirmed_by_found_user"`
	ProofDetails         string            `gorm:"type:text" json:"proof_details,omitempty"`
	Version              int               `gorm:"not null;default:1" json:"-"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	LostReport           *Report           `gorm:"foreignKey:LostReportID;constraint:OnDelete:CASCADE" json:"-"`
	FoundReport          *Report           `gorm:"foreignKey:FoundReportID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Match) TableName() string {
	return "matches"
}
