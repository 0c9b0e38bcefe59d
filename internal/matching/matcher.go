// Package matching finds, persists and resolves matches between lost and
// found reports.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

const tracerName = "github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"

// ErrNoEmbedding means the report being matched has no text embedding, so
// no scan was attempted.
var ErrNoEmbedding = fmt.Errorf("%w: report has no text embedding", ErrExternalServiceDegraded)

// Candidate is a scored opposite-kind report.
type Candidate struct {
	Report models.Report  `json:"report"`
	Result scoring.Result `json:"result"`
}

type CandidateMatcher struct {
	store    Store
	engine   *scoring.Engine
	embedder Embedder
	notifier Notifier
	cfg      Config
}

func NewCandidateMatcher(store Store, engine *scoring.Engine, embedder Embedder, notifier Notifier, cfg Config) *CandidateMatcher {
	cfg.Workers = max(cfg.Workers, 1)
	return &CandidateMatcher{
		store:    store,
		engine:   engine,
		embedder: embedder,
		notifier: notifier,
		cfg:      cfg,
	}
}

// MatchNewReport scans the open opposite-kind reports, persists a pending
// match for every candidate at or above the auto-match threshold and
// notifies both owners. Pairs that already have a match are skipped. The
// returned matches are sorted by score, highest first.
func (m *CandidateMatcher) MatchNewReport(ctx context.Context, report *models.Report) ([]models.Match, error) {
	if !report.Status.Open() {
		return nil, nil
	}

	candidates, err := m.rank(ctx, report, true, func(score float64) bool {
		return score >= m.cfg.AutoMatchThreshold
	})
	if err != nil {
		return nil, err
	}

	created := make([]models.Match, 0, len(candidates))
	for i := range candidates {
		other := &candidates[i].Report
		lost, found := orient(report, other)

		if _, err := m.store.FindMatchByPair(ctx, lost.ID, found.ID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("failed to check existing match: %w", err)
		}

		match := models.Match{
			ID:            uuid.New(),
			LostReportID:  lost.ID,
			FoundReportID: found.ID,
			Score:         candidates[i].Result.Composite,
			Breakdown:     candidates[i].Result.Breakdown,
			Status:        models.MatchPending,
			Source:        models.SourceAuto,
			Version:       1,
		}
		if err := m.store.CreateMatch(ctx, &match); err != nil {
			if errors.Is(err, ErrConcurrencyConflict) {
				continue
			}
			return created, fmt.Errorf("failed to create match: %w", err)
		}

		slog.Info("match created", "match_id", match.ID, "lost_report_id", lost.ID, "found_report_id", found.ID, "score", match.Score)
		sendAll(ctx, m.notifier, []notice{
			matchFoundNotice(&match, lost, found),
			matchFoundNotice(&match, found, lost),
		})
		created = append(created, match)
	}
	return created, nil
}

// PotentialMatches ranks every candidate above the exploratory threshold.
// Nothing is persisted. Missing embeddings only make the scores less
// precise here; the view is never refused for them.
func (m *CandidateMatcher) PotentialMatches(ctx context.Context, report *models.Report) ([]Candidate, error) {
	return m.rank(ctx, report, false, func(score float64) bool {
		return score > m.cfg.ExploratoryThreshold
	})
}

// rank scores the eligible candidates concurrently. With needEmbeddings the
// report itself must carry an embedding and candidates that cannot be
// embedded are skipped.
func (m *CandidateMatcher) rank(ctx context.Context, report *models.Report, needEmbeddings bool, accept func(float64) bool) ([]Candidate, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "matching.rank")
	defer span.End()
	span.SetAttributes(
		attribute.String("report.id", report.ID.String()),
		attribute.String("report.kind", string(report.Kind)),
	)

	if needEmbeddings && !report.HasEmbedding() {
		span.SetStatus(codes.Error, "no embedding")
		return nil, ErrNoEmbedding
	}

	pool, err := m.store.FindReports(ctx, m.candidateQuery(report))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	span.SetAttributes(attribute.Int("candidates.fetched", len(pool)))

	results := make([]*Candidate, len(pool))
	sem := semaphore.NewWeighted(int64(m.cfg.Workers))
	var wg sync.WaitGroup

	for i := range pool {
		if !m.eligible(report, &pool[i]) {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			other := &pool[i]
			if !m.ensureEmbedding(ctx, other) && needEmbeddings {
				return
			}
			lost, found := orient(report, other)
			res := m.engine.Score(ctx, lost.ScoringItem(), found.ScoringItem())
			results[i] = &Candidate{Report: *other, Result: res}
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accepted := make([]Candidate, 0, len(results))
	for _, c := range results {
		if c != nil && accept(c.Result.Composite) {
			accepted = append(accepted, *c)
		}
	}
	sortCandidates(accepted)

	span.SetAttributes(attribute.Int("candidates.accepted", len(accepted)))
	return accepted, nil
}

func (m *CandidateMatcher) candidateQuery(report *models.Report) ReportQuery {
	q := ReportQuery{
		Kind:         report.Kind.Opposite(),
		Statuses:     models.OpenStatuses,
		ExcludeOwner: report.OwnerID,
	}
	if report.Kind == models.KindLost {
		from := report.OccurredAt.Add(-m.lateWindow())
		q.OccurredFrom = &from
	} else {
		to := report.OccurredAt.Add(m.lateWindow())
		q.OccurredTo = &to
	}
	return q
}

// eligible re-checks the candidate invariants in case the store returned a
// looser result set than asked for.
func (m *CandidateMatcher) eligible(report, other *models.Report) bool {
	if other.ID == report.ID || other.Kind == report.Kind || !other.Kind.Valid() {
		return false
	}
	if other.OwnerID == report.OwnerID || !other.Status.Open() {
		return false
	}
	lost, found := orient(report, other)
	return !found.OccurredAt.Before(lost.OccurredAt.Add(-m.lateWindow()))
}

func (m *CandidateMatcher) lateWindow() time.Duration {
	return m.engine.Policy().LateReportWindow
}

// ensureEmbedding embeds a candidate that was stored without one. Failures
// only skip that candidate.
func (m *CandidateMatcher) ensureEmbedding(ctx context.Context, r *models.Report) bool {
	if r.HasEmbedding() {
		return true
	}
	if m.embedder == nil {
		return false
	}
	vec, err := m.embedder.EmbedText(ctx, r.EmbeddingText())
	if err != nil || len(vec) == 0 {
		slog.Warn("skipping candidate without embedding", "report_id", r.ID, "error", err)
		return false
	}
	r.TextEmbedding = vec
	if err := m.store.UpdateReportEmbedding(ctx, r.ID, vec); err != nil {
		slog.Warn("failed to store candidate embedding", "report_id", r.ID, "error", err)
	}
	return true
}

// orient returns the pair as (lost, found) regardless of which side is new.
func orient(report, other *models.Report) (lost, found *models.Report) {
	if report.Kind == models.KindLost {
		return report, other
	}
	return other, report
}

func sortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Result.Composite != c[j].Result.Composite {
			return c[i].Result.Composite > c[j].Result.Composite
		}
		if !c[i].Report.OccurredAt.Equal(c[j].Report.OccurredAt) {
			return c[i].Report.OccurredAt.Before(c[j].Report.OccurredAt)
		}
		return c[i].Report.ID.String() < c[j].Report.ID.String()
	})
}
