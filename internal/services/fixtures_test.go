package services_test

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching/matchingtest"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/services"
)

var lossTime = time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)

type fixture struct {
	store         *matchingtest.MemStore
	notifications *matchingtest.NotificationStore
	notifier      *services.NotificationService
	reports       *services.ReportService
	matches       *services.MatchService
}

func constantEmbedder() matchingtest.StubEmbedder {
	return matchingtest.StubEmbedder{
		TextFunc:  func(string) ([]float64, error) { return []float64{1, 0, 0}, nil },
		ImageFunc: func([]byte) ([]float64, error) { return []float64{0, 0, 1}, nil },
	}
}

func newFixture(embedder matching.Embedder) *fixture {
	store := matchingtest.NewMemStore()
	notifications := matchingtest.NewNotificationStore()
	notifier := services.NewNotificationService(notifications)
	engine := scoring.NewEngine(scoring.JudgedPolicy(), scoring.NewTextScorer(nil, time.Second))
	cfg := matching.DefaultConfig()

	guard := matching.NewDuplicateGuard(store, cfg)
	matcher := matching.NewCandidateMatcher(store, engine, embedder, notifier, cfg)
	claims := matching.NewClaimStateMachine(store, engine, notifier)

	return &fixture{
		store:         store,
		notifications: notifications,
		notifier:      notifier,
		reports:       services.NewReportService(store, embedder, guard, matcher, services.NewContentFilter()),
		matches:       services.NewMatchService(store, claims),
	}
}

func bottleRequest(kind models.ReportKind, at time.Time) *dto.CreateReportRequest {
	return &dto.CreateReportRequest{
		Kind:        kind,
		Title:       "Navy Hydro Flask bottle",
		Description: "32oz navy bottle with a mountain sticker and a dent near the base",
		Category:    "bottles",
		Attributes:  map[string]string{"color": "navy", "brand": "hydro flask"},
		Location:    &dto.Location{Latitude: 49.2606, Longitude: -123.246},
		OccurredAt:  at,
	}
}
