package matching_test

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching/matchingtest"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/google/uuid"
)

var (
	lossTime = time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	library  = scoring.Point{Latitude: 49.2606, Longitude: -123.246}
)

type harness struct {
	store    *matchingtest.MemStore
	notifier *matchingtest.RecordingNotifier
	engine   *scoring.Engine
	matcher  *matching.CandidateMatcher
	claims   *matching.ClaimStateMachine
}

func newHarness(embedder matching.Embedder) *harness {
	store := matchingtest.NewMemStore()
	notifier := &matchingtest.RecordingNotifier{}
	engine := scoring.NewEngine(scoring.JudgedPolicy(), scoring.NewTextScorer(nil, time.Second))
	return &harness{
		store:    store,
		notifier: notifier,
		engine:   engine,
		matcher:  matching.NewCandidateMatcher(store, engine, embedder, notifier, matching.DefaultConfig()),
		claims:   matching.NewClaimStateMachine(store, engine, notifier),
	}
}

// bottle returns a report for the same navy bottle; identical lost and found
// versions of it score well above the auto-match threshold.
func bottle(kind models.ReportKind, owner uuid.UUID, at time.Time) models.Report {
	r := models.Report{
		ID:          uuid.New(),
		OwnerID:     owner,
		Kind:        kind,
		Title:       "Navy Hydro Flask bottle",
		Description: "32oz navy bottle with a mountain sticker and a dent near the base",
		Category:    "bottles",
		Attributes:  map[string]string{"color": "navy", "brand": "hydro flask"},
		OccurredAt:  at,

		Status:        models.StatusUnresolved,
		TextEmbedding: []float64{1, 0, 0},
		CreatedAt:     at,
	}
	if kind == models.KindFound {
		r.Status = models.StatusFound
	}
	r.SetLocation(&library)
	return r
}

func laptop(owner uuid.UUID, at time.Time) models.Report {
	r := bottle(models.KindFound, owner, at)
	r.Title = "Silver laptop"
	r.Description = "Thirteen inch aluminium notebook computer"
	r.Category = "electronics"
	r.Attributes = map[string]string{"color": "silver"}
	r.TextEmbedding = []float64{0, 1, 0}
	return r
}

// seedPendingMatch stores a lost/found pair and a pending auto match between
// them.
func (h *harness) seedPendingMatch() (lost, found models.Report, match models.Match) {
	lost = bottle(models.KindLost, uuid.New(), lossTime)
	found = bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	h.store.PutReport(lost)
	h.store.PutReport(found)

	match = models.Match{
		ID:            uuid.New(),
		LostReportID:  lost.ID,
		FoundReportID: found.ID,
		Score:         92,
		Status:        models.MatchPending,
		Source:        models.SourceAuto,
		Version:       1,
	}
	if err := h.store.CreateMatch(context.Background(), &match); err != nil {
		panic(err)
	}
	return lost, found, match
}
