// Package matchingtest provides in-memory doubles for the matching ports.
package matchingtest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
)

// MemStore is a matching.Store held in maps. Transactions are serialised and
// roll back by restoring a snapshot, so it is only safe when every writer
// that can race a transaction goes through Transaction too.
type MemStore struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	reports map[uuid.UUID]models.Report
	matches map[uuid.UUID]models.Match
	now     func() time.Time

	conflicts     int
	updateCalls   int
	keyLocksTaken []string
}

var _ matching.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		reports: make(map[uuid.UUID]models.Report),
		matches: make(map[uuid.UUID]models.Match),
		now:     time.Now,
	}
}

// InjectConflicts makes the next n UpdateMatch calls fail with
// ErrConcurrencyConflict.
func (s *MemStore) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// UpdateMatchCalls counts UpdateMatch calls, failed ones included.
func (s *MemStore) UpdateMatchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCalls
}

func (s *MemStore) KeyLocksTaken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.keyLocksTaken)
}

// PutReport stores r as-is, bypassing CreateReport defaults.
func (s *MemStore) PutReport(r models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = cloneReport(r)
}

func (s *MemStore) Matches() []models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemStore) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = models.StatusUnresolved
	}
	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.reports[r.ID] = cloneReport(*r)
	return nil
}

func (s *MemStore) GetReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, matching.ErrNotFound
	}
	out := cloneReport(r)
	return &out, nil
}

func (s *MemStore) FindReports(_ context.Context, q matching.ReportQuery) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.reports {
		if q.Kind != "" && r.Kind != q.Kind {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, r.Status) {
			continue
		}
		if q.OccurredFrom != nil && r.OccurredAt.Before(*q.OccurredFrom) {
			continue
		}
		if q.OccurredTo != nil && r.OccurredAt.After(*q.OccurredTo) {
			continue
		}
		if q.ExcludeOwner != uuid.Nil && r.OwnerID == q.ExcludeOwner {
			continue
		}
		out = append(out, cloneReport(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) RecentReportsByOwner(_ context.Context, ownerID uuid.UUID, kind models.ReportKind, category string, since time.Time) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.reports {
		if r.OwnerID != ownerID || r.Kind != kind || !strings.EqualFold(r.Category, category) {
			continue
		}
		if r.CreatedAt.Before(since) {
			continue
		}
		out = append(out, cloneReport(r))
	}
	return out, nil
}

func (s *MemStore) ListReportsByOwner(_ context.Context, ownerID uuid.UUID, kind models.ReportKind, status models.ReportStatus, limit, offset int) ([]models.Report, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Report
	for _, r := range s.reports {
		if r.OwnerID != ownerID {
			continue
		}
		if kind != "" && r.Kind != kind {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		all = append(all, cloneReport(r))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Report{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

// LockReport is GetReport; transactions are already serialised.
func (s *MemStore) LockReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return s.GetReport(ctx, id)
}

func (s *MemStore) TransitionReportStatus(_ context.Context, id uuid.UUID, from []models.ReportStatus, status models.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return matching.ErrNotFound
	}
	if !slices.Contains(from, r.Status) {
		return matching.ErrReportUnavailable
	}
	r.Status = status
	r.UpdatedAt = s.now()
	s.reports[id] = r
	return nil
}

// SetReportStatus overwrites a report's status without any guard, for
// seeding test states.
func (s *MemStore) SetReportStatus(id uuid.UUID, status models.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return matching.ErrNotFound
	}
	r.Status = status
	s.reports[id] = r
	return nil
}

func (s *MemStore) UpdateReportEmbedding(_ context.Context, id uuid.UUID, embedding []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return matching.ErrNotFound
	}
	r.TextEmbedding = slices.Clone(embedding)
	s.reports[id] = r
	return nil
}

func (s *MemStore) DeleteReport(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return matching.ErrNotFound
	}
	delete(s.reports, id)
	for mid, m := range s.matches {
		if m.LostReportID == id || m.FoundReportID == id {
			delete(s.matches, mid)
		}
	}
	return nil
}

func (s *MemStore) CreateMatch(_ context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.matches {
		if existing.LostReportID == m.LostReportID && existing.FoundReportID == m.FoundReportID {
			return matching.ErrConcurrencyConflict
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	now := s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	s.matches[m.ID] = *m
	return nil
}

func (s *MemStore) GetMatch(_ context.Context, id uuid.UUID) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, matching.ErrNotFound
	}
	return &m, nil
}

// LockMatch is GetMatch; transactions are already serialised.
func (s *MemStore) LockMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return s.GetMatch(ctx, id)
}

func (s *MemStore) FindMatchByPair(_ context.Context, lostID, foundID uuid.UUID) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.LostReportID == lostID && m.FoundReportID == foundID {
			return &m, nil
		}
	}
	return nil, matching.ErrNotFound
}

func (s *MemStore) UpdateMatch(_ context.Context, m *models.Match, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.conflicts > 0 {
		s.conflicts--
		return matching.ErrConcurrencyConflict
	}
	stored, ok := s.matches[m.ID]
	if !ok {
		return matching.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return matching.ErrConcurrencyConflict
	}
	m.Version = expectedVersion + 1
	m.UpdatedAt = s.now()
	s.matches[m.ID] = *m
	return nil
}

func (s *MemStore) ListMatchesForUser(_ context.Context, userID uuid.UUID, status models.MatchStatus) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.matches {
		if status != "" && m.Status != status {
			continue
		}
		lost, lok := s.reports[m.LostReportID]
		found, fok := s.reports[m.FoundReportID]
		if (lok && lost.OwnerID == userID) || (fok && found.OwnerID == userID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *MemStore) CountMatches(_ context.Context, reportID uuid.UUID, status models.MatchStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.matches {
		if m.LostReportID != reportID && m.FoundReportID != reportID {
			continue
		}
		if status == "" || m.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) Transaction(_ context.Context, fn func(tx matching.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	reports := maps.Clone(s.reports)
	matches := maps.Clone(s.matches)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.reports, s.matches = reports, matches
		s.mu.Unlock()
		return err
	}
	return nil
}

// AcquireKeyLock records the key; Transaction already excludes other
// transactions.
func (s *MemStore) AcquireKeyLock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyLocksTaken = append(s.keyLocksTaken, key)
	return nil
}

func cloneReport(r models.Report) models.Report {
	r.Attributes = maps.Clone(r.Attributes)
	r.TextEmbedding = slices.Clone(r.TextEmbedding)
	if r.ImageEmbeddings != nil {
		imgs := make([][]float64, len(r.ImageEmbeddings))
		for i, v := range r.ImageEmbeddings {
			imgs[i] = slices.Clone(v)
		}
		r.ImageEmbeddings = imgs
	}
	return r
}
