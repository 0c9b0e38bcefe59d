package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxCategoryLen    = 50
	maxImages         = 5
	maxImageBytes     = 5 << 20
	maxFutureSkew     = time.Hour
)

type ReportService struct {
	store    matching.Store
	embedder matching.Embedder
	guard    *matching.DuplicateGuard
	matcher  *matching.CandidateMatcher
	filter   *ContentFilter
	now      func() time.Time
}

func NewReportService(store matching.Store, embedder matching.Embedder, guard *matching.DuplicateGuard, matcher *matching.CandidateMatcher, filter *ContentFilter) *ReportService {
	return &ReportService{
		store:    store,
		embedder: embedder,
		guard:    guard,
		matcher:  matcher,
		filter:   filter,
		now:      time.Now,
	}
}

// Create validates and stores a report, then runs automatic matching for it.
// Matching failures are logged and reported to Sentry but never fail the
// creation; the report is returned with whatever matches were made.
func (s *ReportService) Create(ctx context.Context, ownerID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, []models.Match, error) {
	report, images, err := s.build(ownerID, req)
	if err != nil {
		return nil, nil, err
	}
	if err := s.filter.Check(report.Title, report.Description); err != nil {
		return nil, nil, err
	}

	s.embed(ctx, report, images)

	if err := s.guard.CreateReport(ctx, report); err != nil {
		return nil, nil, err
	}
	slog.Info("report created", "report_id", report.ID, "user_id", ownerID, "kind", report.Kind)

	matches, err := s.matcher.MatchNewReport(ctx, report)
	switch {
	case errors.Is(err, matching.ErrNoEmbedding):
		slog.Warn("report created without matching", "report_id", report.ID, "error", err)
	case err != nil:
		slog.Error("automatic matching failed", "action", "match_new_report", "report_id", report.ID, "user_id", ownerID, "error", err)
		sentry.CaptureException(err)
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return report, matches, nil
}

func (s *ReportService) build(ownerID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, [][]byte, error) {
	invalid := func(msg string) error {
		return fmt.Errorf("%w: %s", matching.ErrValidation, msg)
	}

	if !req.Kind.Valid() {
		return nil, nil, invalid("kind must be lost or found")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, nil, invalid("title is required")
	}
	if len(title) > maxTitleLen {
		return nil, nil, invalid(fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	if len(req.Description) > maxDescriptionLen {
		return nil, nil, invalid(fmt.Sprintf("description must be at most %d characters", maxDescriptionLen))
	}
	category := strings.TrimSpace(req.Category)
	if len(category) > maxCategoryLen {
		return nil, nil, invalid(fmt.Sprintf("category must be at most %d characters", maxCategoryLen))
	}
	if req.OccurredAt.IsZero() {
		return nil, nil, invalid("occurred_at is required")
	}
	if req.OccurredAt.After(s.now().Add(maxFutureSkew)) {
		return nil, nil, invalid("occurred_at is in the future")
	}
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", matching.ErrValidation, err)
		}
	}
	if len(req.ImageData) > maxImages {
		return nil, nil, invalid(fmt.Sprintf("at most %d images are allowed", maxImages))
	}

	images := make([][]byte, 0, len(req.ImageData))
	for i, encoded := range req.ImageData {
		data, err := decodeImage(encoded)
		if err != nil {
			return nil, nil, invalid(fmt.Sprintf("image %d is not valid base64", i+1))
		}
		if len(data) > maxImageBytes {
			return nil, nil, invalid(fmt.Sprintf("image %d exceeds %d bytes", i+1, maxImageBytes))
		}
		images = append(images, data)
	}

	report := &models.Report{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Kind:        req.Kind,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Attributes:  req.Attributes,
		OccurredAt:  req.OccurredAt.UTC(),
		Status:      models.InitialStatus(req.Kind),
	}
	report.SetLocation(req.Location.Point())
	return report, images, nil
}

// embed fills in the text and image embeddings. Every failure is logged and
// skipped; a report without a text embedding is stored and left unmatched.
func (s *ReportService) embed(ctx context.Context, r *models.Report, images [][]byte) {
	if s.embedder == nil {
		return
	}

	imageVecs := make([][]float64, len(images))
	var g errgroup.Group
	g.SetLimit(maxImages + 1)
	g.Go(func() error {
		vec, err := s.embedder.EmbedText(ctx, r.EmbeddingText())
		if err != nil {
			slog.Warn("text embedding unavailable", "report_id", r.ID, "error", err)
			return nil
		}
		r.TextEmbedding = vec
		return nil
	})
	for i, img := range images {
		g.Go(func() error {
			vec, err := s.embedder.EmbedImage(ctx, img)
			if err != nil {
				slog.Warn("image embedding unavailable", "report_id", r.ID, "image", i, "error", err)
				return nil
			}
			imageVecs[i] = vec
			return nil
		})
	}
	_ = g.Wait()

	for _, v := range imageVecs {
		if len(v) > 0 {
			r.ImageEmbeddings = append(r.ImageEmbeddings, v)
		}
	}
}

// Get returns a report to its owner or to the owner of a report it is
// matched with.
func (s *ReportService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Report, error) {
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.OwnerID == userID {
		return report, nil
	}

	matches, err := s.store.ListMatchesForUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	for _, m := range matches {
		if m.LostReportID == id || m.FoundReportID == id {
			return report, nil
		}
	}
	return nil, matching.ErrUnauthorized
}

func (s *ReportService) ListMine(ctx context.Context, ownerID uuid.UUID, kind, status string, limit, offset int) ([]models.Report, int64, error) {
	k := models.ReportKind(kind)
	if kind != "" && !k.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown kind %q", matching.ErrValidation, kind)
	}
	st := models.ReportStatus(status)
	switch st {
	case "", models.StatusUnresolved, models.StatusFound, models.StatusMatched, models.StatusReturned:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", matching.ErrValidation, status)
	}
	return s.store.ListReportsByOwner(ctx, ownerID, k, st, limit, offset)
}

// Delete removes an owned report and, by cascade, its matches. It is refused
// while any pending match references the report.
func (s *ReportService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx matching.Store) error {
		report, err := tx.GetReport(ctx, id)
		if err != nil {
			return err
		}
		if report.OwnerID != ownerID {
			return matching.ErrUnauthorized
		}
		pending, err := tx.CountMatches(ctx, id, models.MatchPending)
		if err != nil {
			return fmt.Errorf("failed to count matches: %w", err)
		}
		if pending > 0 {
			return matching.ErrReportInUse
		}
		if err := tx.DeleteReport(ctx, id); err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}
		slog.Info("report deleted", "report_id", id, "user_id", ownerID)
		return nil
	})
}

// MarkReturned closes a matched report once the item is back with its
// owner.
func (s *ReportService) MarkReturned(ctx context.Context, ownerID, id uuid.UUID) (*models.Report, error) {
	var out *models.Report
	err := s.store.Transaction(ctx, func(tx matching.Store) error {
		report, err := tx.LockReport(ctx, id)
		if err != nil {
			return err
		}
		if report.OwnerID != ownerID {
			return matching.ErrUnauthorized
		}
		if report.Status != models.StatusMatched {
			return fmt.Errorf("%w: report is %s, not matched", matching.ErrInvalidTransition, report.Status)
		}
		err = tx.TransitionReportStatus(ctx, id, []models.ReportStatus{models.StatusMatched}, models.StatusReturned)
		if errors.Is(err, matching.ErrReportUnavailable) {
			return fmt.Errorf("%w: report changed status concurrently", matching.ErrInvalidTransition)
		}
		if err != nil {
			return fmt.Errorf("failed to update report: %w", err)
		}
		report.Status = models.StatusReturned
		out = report
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PotentialMatches ranks candidates for an owned report without persisting
// anything. An embedding outage degrades the ranking instead of failing it.
func (s *ReportService) PotentialMatches(ctx context.Context, ownerID, id uuid.UUID) ([]matching.Candidate, error) {
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.OwnerID != ownerID {
		return nil, matching.ErrUnauthorized
	}
	if err := s.ensureEmbedding(ctx, report); err != nil {
		slog.Warn("ranking potential matches without embedding", "report_id", id, "error", err)
	}
	candidates, err := s.matcher.PotentialMatches(ctx, report)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []matching.Candidate{}
	}
	return candidates, nil
}

// Rescan re-runs automatic matching for any report, for operators after a
// policy change or an embedding outage.
func (s *ReportService) Rescan(ctx context.Context, id uuid.UUID) ([]models.Match, error) {
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !report.Status.Open() {
		return nil, matching.ErrReportUnavailable
	}
	if err := s.ensureEmbedding(ctx, report); err != nil {
		return nil, err
	}
	matches, err := s.matcher.MatchNewReport(ctx, report)
	if err != nil {
		return matches, err
	}
	slog.Info("report rescanned", "report_id", id, "matches", len(matches))
	if matches == nil {
		matches = []models.Match{}
	}
	return matches, nil
}

func (s *ReportService) ensureEmbedding(ctx context.Context, r *models.Report) error {
	if r.HasEmbedding() {
		return nil
	}
	if s.embedder == nil {
		return matching.ErrNoEmbedding
	}
	vec, err := s.embedder.EmbedText(ctx, r.EmbeddingText())
	if err != nil || len(vec) == 0 {
		return fmt.Errorf("%w: %v", matching.ErrExternalServiceDegraded, err)
	}
	r.TextEmbedding = vec
	if err := s.store.UpdateReportEmbedding(ctx, r.ID, vec); err != nil {
		slog.Warn("failed to store report embedding", "report_id", r.ID, "error", err)
	}
	return nil
}

func decodeImage(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("empty image")
	}
	return base64.StdEncoding.DecodeString(encoded)
}
