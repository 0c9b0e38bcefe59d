package matching

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
)

// ReportQuery selects candidate reports. Zero values mean "no constraint".
type ReportQuery struct {
	Kind         models.ReportKind
	Statuses     []models.ReportStatus
	OccurredFrom *time.Time
	OccurredTo   *time.Time
	ExcludeOwner uuid.UUID
}

// ReportStore persists reports. Lookups of missing rows return ErrNotFound.
type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	// LockReport loads a report and holds a row lock until the surrounding
	// transaction ends.
	LockReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	FindReports(ctx context.Context, q ReportQuery) ([]models.Report, error)
	// RecentReportsByOwner returns the owner's reports of one kind and
	// category created at or after since.
	RecentReportsByOwner(ctx context.Context, ownerID uuid.UUID, kind models.ReportKind, category string, since time.Time) ([]models.Report, error)
	ListReportsByOwner(ctx context.Context, ownerID uuid.UUID, kind models.ReportKind, status models.ReportStatus, limit, offset int) ([]models.Report, int64, error)
	// TransitionReportStatus moves a report to status only while it is in
	// one of from; a report in any other status fails with
	// ErrReportUnavailable.
	TransitionReportStatus(ctx context.Context, id uuid.UUID, from []models.ReportStatus, status models.ReportStatus) error
	UpdateReportEmbedding(ctx context.Context, id uuid.UUID, embedding []float64) error
	// DeleteReport removes the report and, by cascade, its matches.
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// MatchStore persists matches. UpdateMatch must fail with
// ErrConcurrencyConflict when the stored version differs from
// expectedVersion, and bumps m.Version on success.
type MatchStore interface {
	CreateMatch(ctx context.Context, m *models.Match) error
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	// LockMatch loads a match and holds a row lock until the surrounding
	// transaction ends.
	LockMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	FindMatchByPair(ctx context.Context, lostID, foundID uuid.UUID) (*models.Match, error)
	UpdateMatch(ctx context.Context, m *models.Match, expectedVersion int) error
	ListMatchesForUser(ctx context.Context, userID uuid.UUID, status models.MatchStatus) ([]models.Match, error)
	CountMatches(ctx context.Context, reportID uuid.UUID, status models.MatchStatus) (int64, error)
}

type Store interface {
	ReportStore
	MatchStore

	// Transaction runs fn against a Store bound to a single transaction;
	// every write made through tx commits together or not at all.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// AcquireKeyLock serialises callers on key until the surrounding
	// transaction ends.
	AcquireKeyLock(ctx context.Context, key string) error
}

// Embedder is the external embedding capability.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
	EmbedImage(ctx context.Context, data []byte) ([]float64, error)
}

// Notifier is fire-and-forget: delivery guarantees belong to the
// implementation.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, payload map[string]string)
}
