package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the Postgres implementation of matching.Store.
type Store struct {
	db *gorm.DB
}

var _ matching.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return matching.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", matching.ErrConcurrencyConflict, err)
	}
	return err
}

func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return translate(s.conn(ctx).Create(r).Error)
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := s.conn(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) FindReports(ctx context.Context, q matching.ReportQuery) ([]models.Report, error) {
	db := s.conn(ctx).Model(&models.Report{})
	if q.Kind != "" {
		db = db.Where("kind = ?", q.Kind)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if q.OccurredFrom != nil {
		db = db.Where("occurred_at >= ?", *q.OccurredFrom)
	}
	if q.OccurredTo != nil {
		db = db.Where("occurred_at <= ?", *q.OccurredTo)
	}
	if q.ExcludeOwner != uuid.Nil {
		db = db.Where("owner_id <> ?", q.ExcludeOwner)
	}

	var reports []models.Report
	if err := db.Order("created_at ASC").Find(&reports).Error; err != nil {
		return nil, translate(err)
	}
	return reports, nil
}

func (s *Store) RecentReportsByOwner(ctx context.Context, ownerID uuid.UUID, kind models.ReportKind, category string, since time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := s.conn(ctx).
		Where("owner_id = ? AND kind = ? AND LOWER(category) = LOWER(?) AND created_at >= ?", ownerID, kind, category, since).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, translate(err)
	}
	return reports, nil
}

func (s *Store) ListReportsByOwner(ctx context.Context, ownerID uuid.UUID, kind models.ReportKind, status models.ReportStatus, limit, offset int) ([]models.Report, int64, error) {
	db := s.conn(ctx).Model(&models.Report{}).Where("owner_id = ?", ownerID)
	if kind != "" {
		db = db.Where("kind = ?", kind)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	if limit > 0 {
		db = db.Limit(limit)
	}
	var reports []models.Report
	if err := db.Order("created_at DESC").Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, translate(err)
	}
	return reports, total, nil
}

func (s *Store) LockReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&r, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// TransitionReportStatus guards the write with the expected statuses so a
// concurrent transition that committed first makes this one affect no rows.
func (s *Store) TransitionReportStatus(ctx context.Context, id uuid.UUID, from []models.ReportStatus, status models.ReportStatus) error {
	res := s.conn(ctx).Model(&models.Report{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := s.conn(ctx).Model(&models.Report{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return matching.ErrNotFound
	}
	return matching.ErrReportUnavailable
}

func (s *Store) UpdateReportEmbedding(ctx context.Context, id uuid.UUID, embedding []float64) error {
	raw, err := json.Marshal(embedding)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Model(&models.Report{}).Where("id = ?", id).Update("text_embedding", datatypes.JSON(raw))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return matching.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteReport(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&models.Report{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return matching.ErrNotFound
	}
	return nil
}

func (s *Store) CreateMatch(ctx context.Context, m *models.Match) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return translate(s.conn(ctx).Omit(clause.Associations).Create(m).Error)
}

func (s *Store) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var m models.Match
	if err := s.conn(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) LockMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var m models.Match
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) FindMatchByPair(ctx context.Context, lostID, foundID uuid.UUID) (*models.Match, error) {
	var m models.Match
	err := s.conn(ctx).
		Where("lost_report_id = ? AND found_report_id = ?", lostID, foundID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// UpdateMatch writes the mutable match columns only if nobody else bumped
// the version since it was read.
func (s *Store) UpdateMatch(ctx context.Context, m *models.Match, expectedVersion int) error {
	now := time.Now()
	res := s.conn(ctx).Model(&models.Match{}).
		Where("id = ? AND version = ?", m.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                  m.Status,
			"confirmed_by_lost_user":  m.ConfirmedByLostUser,
			"confirmed_by_found_user": m.ConfirmedByFoundUser,
			"proof_details":           m.ProofDetails,
			"version":                 expectedVersion + 1,
			"updated_at":              now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.conn(ctx).Model(&models.Match{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return translate(err)
		}
		if count == 0 {
			return matching.ErrNotFound
		}
		return matching.ErrConcurrencyConflict
	}
	m.Version = expectedVersion + 1
	m.UpdatedAt = now
	return nil
}

func (s *Store) ListMatchesForUser(ctx context.Context, userID uuid.UUID, status models.MatchStatus) ([]models.Match, error) {
	owned := s.conn(ctx).Model(&models.Report{}).Select("id").Where("owner_id = ?", userID)
	db := s.conn(ctx).Where("lost_report_id IN (?) OR found_report_id IN (?)", owned, owned)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var matches []models.Match
	if err := db.Order("score DESC, created_at DESC").Find(&matches).Error; err != nil {
		return nil, translate(err)
	}
	return matches, nil
}

func (s *Store) CountMatches(ctx context.Context, reportID uuid.UUID, status models.MatchStatus) (int64, error) {
	db := s.conn(ctx).Model(&models.Match{}).Where("lost_report_id = ? OR found_report_id = ?", reportID, reportID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (s *Store) Transaction(ctx context.Context, fn func(tx matching.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// AcquireKeyLock takes a transaction-scoped advisory lock; outside a
// transaction it is released as soon as the statement finishes.
func (s *Store) AcquireKeyLock(ctx context.Context, key string) error {
	return s.conn(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
