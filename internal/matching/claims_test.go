package matching_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching/matchingtest"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmRequiresBothParties(t *testing.T) {
	h := newHarness(nil)
	lost, found, match := h.seedPendingMatch()
	ctx := context.Background()

	m, err := h.claims.Confirm(ctx, match.ID, lost.OwnerID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, m.Status)
	assert.True(t, m.ConfirmedByLostUser)
	assert.False(t, m.ConfirmedByFoundUser)

	pending := h.notifier.For(found.OwnerID)
	require.Len(t, pending, 1)
	assert.Equal(t, models.NotificationConfirmationPending, pending[0].Kind)

	m, err = h.claims.Confirm(ctx, match.ID, found.OwnerID, "handed over at the front desk")
	require.NoError(t, err)
	assert.Equal(t, models.MatchConfirmed, m.Status)
	assert.True(t, m.ConfirmedByLostUser)
	assert.True(t, m.ConfirmedByFoundUser)
	assert.Equal(t, "handed over at the front desk", m.ProofDetails)

	for _, id := range []uuid.UUID{lost.ID, found.ID} {
		r, err := h.store.GetReport(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusMatched, r.Status)
	}

	for _, owner := range []uuid.UUID{lost.OwnerID, found.OwnerID} {
		sent := h.notifier.For(owner)
		assert.Equal(t, models.NotificationMatchConfirmed, sent[len(sent)-1].Kind)
	}
}

func TestConfirmTwiceIsNoOp(t *testing.T) {
	h := newHarness(nil)
	lost, _, match := h.seedPendingMatch()
	ctx := context.Background()

	_, err := h.claims.Confirm(ctx, match.ID, lost.OwnerID, "")
	require.NoError(t, err)
	sent := len(h.notifier.All())

	m, err := h.claims.Confirm(ctx, match.ID, lost.OwnerID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, m.Status)
	assert.Len(t, h.notifier.All(), sent)
}

func TestConfirmByStrangerIsUnauthorized(t *testing.T) {
	h := newHarness(nil)
	_, _, match := h.seedPendingMatch()
	ctx := context.Background()

	_, err := h.claims.Confirm(ctx, match.ID, uuid.New(), "")
	assert.ErrorIs(t, err, matching.ErrUnauthorized)

	stored, err := h.store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.False(t, stored.ConfirmedByLostUser)
	assert.False(t, stored.ConfirmedByFoundUser)
	assert.Equal(t, models.MatchPending, stored.Status)
	assert.Empty(t, h.notifier.All())
}

func TestConfirmUnknownMatch(t *testing.T) {
	h := newHarness(nil)
	_, err := h.claims.Confirm(context.Background(), uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, matching.ErrNotFound)
}

func TestConfirmFailsWhenReportAlreadyMatched(t *testing.T) {
	h := newHarness(nil)
	lost, found, match := h.seedPendingMatch()
	ctx := context.Background()

	_, err := h.claims.Confirm(ctx, match.ID, lost.OwnerID, "")
	require.NoError(t, err)
	require.NoError(t, h.store.SetReportStatus(found.ID, models.StatusMatched))

	_, err = h.claims.Confirm(ctx, match.ID, found.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrReportUnavailable)

	stored, err := h.store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, stored.Status)
	assert.False(t, stored.ConfirmedByFoundUser)
}

func TestConfirmRetriesOnceAfterConflict(t *testing.T) {
	h := newHarness(nil)
	lost, _, match := h.seedPendingMatch()

	h.store.InjectConflicts(1)
	m, err := h.claims.Confirm(context.Background(), match.ID, lost.OwnerID, "")
	require.NoError(t, err)
	assert.True(t, m.ConfirmedByLostUser)
	assert.Equal(t, 2, h.store.UpdateMatchCalls())
}

func TestConfirmGivesUpAfterSecondConflict(t *testing.T) {
	h := newHarness(nil)
	lost, _, match := h.seedPendingMatch()

	h.store.InjectConflicts(2)
	_, err := h.claims.Confirm(context.Background(), match.ID, lost.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrConcurrencyConflict)
	assert.Empty(t, h.notifier.All())
}

func TestConcurrentConfirmationsConfirmOnce(t *testing.T) {
	h := newHarness(nil)
	lost, found, match := h.seedPendingMatch()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, owner := range []uuid.UUID{lost.OwnerID, found.OwnerID} {
		wg.Add(1)
		go func(i int, owner uuid.UUID) {
			defer wg.Done()
			_, errs[i] = h.claims.Confirm(ctx, match.ID, owner, "")
		}(i, owner)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := h.store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchConfirmed, stored.Status)

	confirmed := 0
	for _, n := range h.notifier.All() {
		if n.Kind == models.NotificationMatchConfirmed {
			confirmed++
		}
	}
	assert.Equal(t, 2, confirmed)
}

func TestRejectNotifiesOtherParty(t *testing.T) {
	h := newHarness(nil)
	lost, found, match := h.seedPendingMatch()
	ctx := context.Background()

	m, err := h.claims.Reject(ctx, match.ID, found.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchRejected, m.Status)

	sent := h.notifier.For(lost.OwnerID)
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotificationMatchRejected, sent[0].Kind)
	assert.Empty(t, h.notifier.For(found.OwnerID))

	r, err := h.store.GetReport(ctx, lost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnresolved, r.Status)

	_, err = h.claims.Confirm(ctx, match.ID, lost.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrInvalidTransition)
}

func TestRejectAfterConfirmationFails(t *testing.T) {
	h := newHarness(nil)
	lost, found, match := h.seedPendingMatch()
	ctx := context.Background()

	_, err := h.claims.Confirm(ctx, match.ID, lost.OwnerID, "")
	require.NoError(t, err)
	_, err = h.claims.Confirm(ctx, match.ID, found.OwnerID, "")
	require.NoError(t, err)

	_, err = h.claims.Reject(ctx, match.ID, lost.OwnerID)
	assert.ErrorIs(t, err, matching.ErrInvalidTransition)
}

func TestRejectByStrangerIsUnauthorized(t *testing.T) {
	h := newHarness(nil)
	_, _, match := h.seedPendingMatch()

	_, err := h.claims.Reject(context.Background(), match.ID, uuid.New())
	assert.ErrorIs(t, err, matching.ErrUnauthorized)
}

func TestClaimCreatesPendingMatchConfirmedByOwner(t *testing.T) {
	h := newHarness(nil)
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	found := laptop(uuid.New(), lossTime.Add(time.Hour))
	h.store.PutReport(lost)
	h.store.PutReport(found)

	m, err := h.claims.Claim(context.Background(), lost.ID, found.ID, lost.OwnerID, "serial ends in 4471")
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, m.Status)
	assert.Equal(t, models.SourceClaim, m.Source)
	assert.True(t, m.ConfirmedByLostUser)
	assert.False(t, m.ConfirmedByFoundUser)
	assert.Equal(t, "serial ends in 4471", m.ProofDetails)
	assert.Less(t, m.Score, 75.0)

	sent := h.notifier.For(found.OwnerID)
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotificationClaimReceived, sent[0].Kind)
	assert.Empty(t, h.notifier.For(lost.OwnerID))

	m, err = h.claims.Confirm(context.Background(), m.ID, found.OwnerID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchConfirmed, m.Status)
}

func TestClaimOnExistingMatchConfirms(t *testing.T) {
	h := newHarness(nil)
	lost, found, match := h.seedPendingMatch()

	m, err := h.claims.Claim(context.Background(), lost.ID, found.ID, lost.OwnerID, "")
	require.NoError(t, err)
	assert.Equal(t, match.ID, m.ID)
	assert.True(t, m.ConfirmedByLostUser)
	assert.Len(t, h.store.Matches(), 1)
}

func TestClaimValidation(t *testing.T) {
	h := newHarness(nil)
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	found := bottle(models.KindFound, uuid.New(), lossTime)
	ownFound := bottle(models.KindFound, lost.OwnerID, lossTime)
	h.store.PutReport(lost)
	h.store.PutReport(found)
	h.store.PutReport(ownFound)
	ctx := context.Background()

	_, err := h.claims.Claim(ctx, found.ID, lost.ID, lost.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrValidation)

	_, err = h.claims.Claim(ctx, lost.ID, found.ID, uuid.New(), "")
	assert.ErrorIs(t, err, matching.ErrUnauthorized)

	_, err = h.claims.Claim(ctx, lost.ID, ownFound.ID, lost.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrValidation)

	_, err = h.claims.Claim(ctx, lost.ID, uuid.New(), lost.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrNotFound)

	assert.Empty(t, h.store.Matches())
}

func TestClaimClosedReport(t *testing.T) {
	h := newHarness(nil)
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	found := bottle(models.KindFound, uuid.New(), lossTime)
	found.Status = models.StatusReturned
	h.store.PutReport(lost)
	h.store.PutReport(found)

	_, err := h.claims.Claim(context.Background(), lost.ID, found.ID, lost.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrReportUnavailable)
}

// staleReads serves report locks from a snapshot taken earlier, which is the
// view a transaction holds when another one commits right after its read.
type staleReads struct {
	*matchingtest.MemStore
	snapshot map[uuid.UUID]models.Report
}

func (s *staleReads) LockReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r, ok := s.snapshot[id]
	if !ok {
		return nil, matching.ErrNotFound
	}
	return &r, nil
}

func (s *staleReads) Transaction(ctx context.Context, fn func(tx matching.Store) error) error {
	return s.MemStore.Transaction(ctx, func(matching.Store) error { return fn(s) })
}

func TestConfirmCannotMatchReportTwice(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()

	lost := bottle(models.KindLost, uuid.New(), lossTime)
	first := bottle(models.KindFound, uuid.New(), lossTime.Add(time.Hour))
	second := bottle(models.KindFound, uuid.New(), lossTime.Add(2*time.Hour))
	for _, r := range []models.Report{lost, first, second} {
		h.store.PutReport(r)
	}
	matchA := models.Match{ID: uuid.New(), LostReportID: lost.ID, FoundReportID: first.ID,
		Status: models.MatchPending, Source: models.SourceAuto, ConfirmedByLostUser: true, Version: 1}
	matchB := models.Match{ID: uuid.New(), LostReportID: lost.ID, FoundReportID: second.ID,
		Status: models.MatchPending, Source: models.SourceAuto, ConfirmedByLostUser: true, Version: 1}
	require.NoError(t, h.store.CreateMatch(ctx, &matchA))
	require.NoError(t, h.store.CreateMatch(ctx, &matchB))

	stale := &staleReads{MemStore: h.store, snapshot: map[uuid.UUID]models.Report{
		lost.ID: lost, second.ID: second,
	}}
	racing := matching.NewClaimStateMachine(stale, h.engine, h.notifier)

	m, err := h.claims.Confirm(ctx, matchA.ID, first.OwnerID, "")
	require.NoError(t, err)
	require.Equal(t, models.MatchConfirmed, m.Status)

	// the racing confirm still believes the lost report is open
	_, err = racing.Confirm(ctx, matchB.ID, second.OwnerID, "")
	assert.ErrorIs(t, err, matching.ErrReportUnavailable)

	stored, err := h.store.GetMatch(ctx, matchB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, stored.Status)
	assert.False(t, stored.ConfirmedByFoundUser)

	r, err := h.store.GetReport(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, r.Status)
}

func TestTransitionReportStatusGuardsSourceStatus(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()
	lost := bottle(models.KindLost, uuid.New(), lossTime)
	h.store.PutReport(lost)

	require.NoError(t, h.store.TransitionReportStatus(ctx, lost.ID, models.OpenStatuses, models.StatusMatched))
	err := h.store.TransitionReportStatus(ctx, lost.ID, models.OpenStatuses, models.StatusMatched)
	assert.ErrorIs(t, err, matching.ErrReportUnavailable)
	err = h.store.TransitionReportStatus(ctx, uuid.New(), models.OpenStatuses, models.StatusMatched)
	assert.ErrorIs(t, err, matching.ErrNotFound)
}
