package matching

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
)

// DuplicateGuard rejects a report when the same owner filed a near-identical
// one of the same kind and category within the recency window.
type DuplicateGuard struct {
	store Store
	cfg   Config
	locks *KeyedMutex
	now   func() time.Time
}

func NewDuplicateGuard(store Store, cfg Config) *DuplicateGuard {
	return &DuplicateGuard{
		store: store,
		cfg:   cfg,
		locks: NewKeyedMutex(),
		now:   time.Now,
	}
}

// CreateReport checks r against the owner's recent reports and persists it
// when it is not a duplicate. Check and insert are serialised per
// (owner, kind, category), both in-process and in the store, so two
// simultaneous submissions cannot both pass.
func (g *DuplicateGuard) CreateReport(ctx context.Context, r *models.Report) error {
	key := guardKey(r)
	unlock := g.locks.Lock(key)
	defer unlock()

	return g.store.Transaction(ctx, func(tx Store) error {
		if err := tx.AcquireKeyLock(ctx, key); err != nil {
			return fmt.Errorf("failed to lock submissions: %w", err)
		}
		if err := g.check(ctx, tx, r); err != nil {
			return err
		}
		if err := tx.CreateReport(ctx, r); err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		return nil
	})
}

// Check reports whether r would be rejected, without creating it.
func (g *DuplicateGuard) Check(ctx context.Context, r *models.Report) error {
	return g.check(ctx, g.store, r)
}

func (g *DuplicateGuard) check(ctx context.Context, store ReportStore, r *models.Report) error {
	if !r.HasEmbedding() {
		slog.Debug("duplicate check skipped, no embedding", "owner_id", r.OwnerID)
		return nil
	}

	since := g.now().Add(-g.cfg.DuplicateWindow)
	recent, err := store.RecentReportsByOwner(ctx, r.OwnerID, r.Kind, r.Category, since)
	if err != nil {
		return fmt.Errorf("failed to load recent reports: %w", err)
	}

	for i := range recent {
		prev := &recent[i]
		if prev.ID == r.ID || !prev.HasEmbedding() {
			continue
		}
		sim, err := scoring.Cosine(r.TextEmbedding, prev.TextEmbedding)
		if err != nil {
			continue
		}
		if sim > g.cfg.DuplicateSimilarity {
			slog.Info("duplicate submission rejected", "owner_id", r.OwnerID, "report_id", prev.ID, "similarity", sim)
			return fmt.Errorf("%w: matches your %s report %q from %s", ErrDuplicateSubmission,
				prev.Kind, prev.Title, prev.CreatedAt.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

func guardKey(r *models.Report) string {
	return "report-submit:" + r.OwnerID.String() + ":" + string(r.Kind) + ":" + strings.ToLower(strings.TrimSpace(r.Category))
}
