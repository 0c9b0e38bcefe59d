package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchListAndGet(t *testing.T) {
	f := newFixture(constantEmbedder())
	ctx := context.Background()
	loser, finder, stranger := uuid.New(), uuid.New(), uuid.New()

	_, _, err := f.reports.Create(ctx, loser, bottleRequest(models.KindLost, lossTime))
	require.NoError(t, err)
	_, created, err := f.reports.Create(ctx, finder, bottleRequest(models.KindFound, lossTime.Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, created, 1)

	for _, u := range []uuid.UUID{loser, finder} {
		list, err := f.matches.List(ctx, u, "pending")
		require.NoError(t, err)
		assert.Len(t, list, 1)

		m, err := f.matches.Get(ctx, u, created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, created[0].ID, m.ID)
	}

	list, err := f.matches.List(ctx, stranger, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.matches.Get(ctx, stranger, created[0].ID)
	assert.ErrorIs(t, err, matching.ErrUnauthorized)

	_, err = f.matches.List(ctx, loser, "maybe")
	assert.ErrorIs(t, err, matching.ErrValidation)
}

func TestMatchClaimNotifiesFinder(t *testing.T) {
	// different wording keeps the pair below the auto-match threshold
	f := newFixture(constantEmbedder())
	ctx := context.Background()
	loser, finder := uuid.New(), uuid.New()

	lostReq := bottleRequest(models.KindLost, lossTime)
	lostReq.Title = "Grey wool scarf"
	lostReq.Description = "Long knitted scarf with tassels"
	lostReq.Category = "clothing"
	lost, _, err := f.reports.Create(ctx, loser, lostReq)
	require.NoError(t, err)
	found, auto, err := f.reports.Create(ctx, finder, bottleRequest(models.KindFound, lossTime.Add(time.Hour)))
	require.NoError(t, err)
	require.Empty(t, auto)

	m, err := f.matches.Claim(ctx, loser, &dto.ClaimRequest{
		LostReportID:  lost.ID,
		FoundReportID: found.ID,
		ProofDetails:  "my initials are scratched under the lid",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, m.Status)
	assert.Equal(t, models.SourceClaim, m.Source)
	assert.True(t, m.ConfirmedByLostUser)

	items, _, err := f.notifier.List(ctx, finder, false, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, models.NotificationClaimReceived, items[0].Type)

	m, err = f.matches.Confirm(ctx, finder, m.ID, &dto.ConfirmMatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.MatchConfirmed, m.Status)
}

func TestMatchClaimRequiresBothReports(t *testing.T) {
	f := newFixture(constantEmbedder())
	_, err := f.matches.Claim(context.Background(), uuid.New(), &dto.ClaimRequest{LostReportID: uuid.New()})
	assert.ErrorIs(t, err, matching.ErrValidation)
}
