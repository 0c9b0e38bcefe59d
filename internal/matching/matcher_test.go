package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching/matchingtest"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNewReportCreatesPendingMatch(t *testing.T) {
	h := newHarness(nil)
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	h.store.PutReport(lost)

	found := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	h.store.PutReport(found)

	matches, err := h.matcher.MatchNewReport(context.Background(), &found)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, lost.ID, m.LostReportID)
	assert.Equal(t, found.ID, m.FoundReportID)
	assert.Equal(t, models.MatchPending, m.Status)
	assert.Equal(t, models.SourceAuto, m.Source)
	assert.GreaterOrEqual(t, m.Score, 75.0)
	assert.False(t, m.ConfirmedByLostUser)
	assert.False(t, m.ConfirmedByFoundUser)

	assert.Len(t, h.notifier.For(lost.OwnerID), 1)
	assert.Len(t, h.notifier.For(found.OwnerID), 1)
	n := h.notifier.For(lost.OwnerID)[0]
	assert.Equal(t, models.NotificationMatchFound, n.Kind)
	assert.Equal(t, m.ID.String(), n.Payload["match_id"])
	assert.Equal(t, lost.ID.String(), n.Payload["item_id"])
	assert.Equal(t, found.ID.String(), n.Payload["matched_item_id"])
}

func TestMatchNewReportIsIdempotentPerPair(t *testing.T) {
	h := newHarness(nil)
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	found := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	h.store.PutReport(lost)
	h.store.PutReport(found)

	_, err := h.matcher.MatchNewReport(context.Background(), &lost)
	require.NoError(t, err)
	again, err := h.matcher.MatchNewReport(context.Background(), &found)
	require.NoError(t, err)

	assert.Empty(t, again)
	assert.Len(t, h.store.Matches(), 1)
}

func TestMatchNewReportNeverPairsSameOwner(t *testing.T) {
	h := newHarness(nil)
	owner := uuid.New()
	lost := bottle(models.KindLost, owner, lossTime)
	found := bottle(models.KindFound, owner, lossTime.Add(time.Hour))
	h.store.PutReport(lost)
	h.store.PutReport(found)

	matches, err := h.matcher.MatchNewReport(context.Background(), &found)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Empty(t, h.notifier.All())
}

func TestMatchNewReportCandidateWindow(t *testing.T) {
	tests := []struct {
		name      string
		foundAt   time.Time
		wantMatch bool
	}{
		{"found an hour later", lossTime.Add(time.Hour), true},
		{"found eleven hours before the loss was reported", lossTime.Add(-11 * time.Hour), true},
		{"found thirteen hours before", lossTime.Add(-13 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil)
			found := bottle(models.KindFound, uuid.New(), tt.foundAt)
			h.store.PutReport(found)
			lost := bottle(models.KindLost, uuid.New(), lossTime)
			h.store.PutReport(lost)

			cands, err := h.matcher.PotentialMatches(context.Background(), &lost)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, len(cands) == 1)
		})
	}
}

func TestMatchNewReportIgnoresClosedReports(t *testing.T) {
	h := newHarness(nil)
	found := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	found.Status = models.StatusMatched
	h.store.PutReport(found)

	lost := bottle(models.KindLost, uuid.New(), lossTime)
	h.store.PutReport(lost)

	matches, err := h.matcher.MatchNewReport(context.Background(), &lost)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchNewReportRequiresEmbedding(t *testing.T) {
	h := newHarness(nil)
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	lost.TextEmbedding = nil

	_, err := h.matcher.MatchNewReport(context.Background(), &lost)
	assert.ErrorIs(t, err, matching.ErrNoEmbedding)
	assert.ErrorIs(t, err, matching.ErrExternalServiceDegraded)
}

func TestMatchNewReportEmbedsCandidatesLazily(t *testing.T) {
	calls := 0
	h := newHarness(matchingtest.StubEmbedder{TextFunc: func(string) ([]float64, error) {
		calls++
		return []float64{0.5, 0.5, 0}, nil
	}})
	found := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	found.TextEmbedding = nil
	h.store.PutReport(found)

	lost := bottle(models.KindLost, uuid.New(), lossTime)
	h.store.PutReport(lost)

	matches, err := h.matcher.MatchNewReport(context.Background(), &lost)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, 1, calls)

	stored, err := h.store.GetReport(context.Background(), found.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0}, stored.TextEmbedding)
}

func TestMatchNewReportSkipsCandidateWhenEmbeddingFails(t *testing.T) {
	h := newHarness(matchingtest.StubEmbedder{})
	found := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	found.TextEmbedding = nil
	h.store.PutReport(found)

	lost := bottle(models.KindLost, uuid.New(), lossTime)
	h.store.PutReport(lost)

	matches, err := h.matcher.MatchNewReport(context.Background(), &lost)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPotentialMatchesRanksAboveExploratoryThreshold(t *testing.T) {
	h := newHarness(nil)
	good := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	weak := laptop(uuid.New(), lossTime.Add(time.Hour))
	h.store.PutReport(weak)
	h.store.PutReport(good)

	lost := bottle(models.KindLost, uuid.New(), lossTime)
	h.store.PutReport(lost)

	cands, err := h.matcher.PotentialMatches(context.Background(), &lost)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, good.ID, cands[0].Report.ID)
	assert.Equal(t, weak.ID, cands[1].Report.ID)
	assert.Greater(t, cands[0].Result.Composite, cands[1].Result.Composite)
	assert.Greater(t, cands[1].Result.Composite, 10.0)
	assert.Less(t, cands[1].Result.Composite, 75.0)

	assert.Empty(t, h.store.Matches())
	assert.Empty(t, h.notifier.All())
}

func TestMatchNewReportMatchesEveryQualifyingCandidate(t *testing.T) {
	h := newHarness(nil)
	first := bottle(models.KindLost, uuid.New(), lossTime)
	second := bottle(models.KindLost, uuid.New(), lossTime.Add(-2*time.Hour))
	h.store.PutReport(first)
	h.store.PutReport(second)

	found := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	h.store.PutReport(found)

	matches, err := h.matcher.MatchNewReport(context.Background(), &found)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, first.ID, matches[0].LostReportID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
	assert.Len(t, h.notifier.For(found.OwnerID), 2)
}

func TestPotentialMatchesRankWithoutEmbeddings(t *testing.T) {
	h := newHarness(matchingtest.StubEmbedder{})
	found := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	found.TextEmbedding = nil
	h.store.PutReport(found)

	lost := bottle(models.KindLost, uuid.New(), lossTime)
	lost.TextEmbedding = nil
	h.store.PutReport(lost)

	cands, err := h.matcher.PotentialMatches(context.Background(), &lost)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, found.ID, cands[0].Report.ID)
	assert.Nil(t, cands[0].Result.Breakdown.EmbeddingCosine)
	assert.Greater(t, cands[0].Result.Composite, 75.0)
}

func TestCandidateWindowFollowsPolicy(t *testing.T) {
	policy := scoring.JudgedPolicy()
	policy.LateReportWindow = 6 * time.Hour
	engine := scoring.NewEngine(policy, scoring.NewTextScorer(nil, time.Second))

	store := matchingtest.NewMemStore()
	inside := bottle(models.KindFound, uuid.New(), lossTime.Add(-3*time.Hour))
	outside := bottle(models.KindFound, uuid.New(), lossTime.Add(-8*time.Hour))
	store.PutReport(inside)
	store.PutReport(outside)
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	store.PutReport(lost)

	cfg := matching.DefaultConfig()
	cfg.ExploratoryThreshold = 0
	matcher := matching.NewCandidateMatcher(store, engine, nil, &matchingtest.RecordingNotifier{}, cfg)

	cands, err := matcher.PotentialMatches(context.Background(), &lost)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, inside.ID, cands[0].Report.ID)
	assert.InDelta(t, 50, cands[0].Result.Breakdown.TimeScore, 0.01)
}
