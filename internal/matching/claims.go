package matching

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type party int

const (
	partyNone party = iota
	partyLost
	partyFound
)

// ClaimStateMachine owns the pending -> confirmed | rejected lifecycle of a
// match. All transitions on one match are serialised; a confirmed match and
// the matched status of both its reports are written in one transaction.
type ClaimStateMachine struct {
	store    Store
	engine   *scoring.Engine
	notifier Notifier
	locks    *KeyedMutex
}

func NewClaimStateMachine(store Store, engine *scoring.Engine, notifier Notifier) *ClaimStateMachine {
	return &ClaimStateMachine{
		store:    store,
		engine:   engine,
		notifier: notifier,
		locks:    NewKeyedMutex(),
	}
}

// Confirm records the acting owner's confirmation. When the other owner has
// already confirmed, the match becomes confirmed and both reports matched.
// Confirming twice is a no-op.
func (c *ClaimStateMachine) Confirm(ctx context.Context, matchID, actingUserID uuid.UUID, proofDetails string) (*models.Match, error) {
	ctx, span := c.startSpan(ctx, "matching.confirm", matchID, actingUserID)
	defer span.End()

	unlock := c.locks.Lock("match:" + matchID.String())
	defer unlock()

	proofDetails = strings.TrimSpace(proofDetails)
	var (
		out     *models.Match
		notices []notice
	)
	err := retryOnConflict(func() error {
		notices = nil
		return c.store.Transaction(ctx, func(tx Store) error {
			m, lost, found, side, err := loadForActor(ctx, tx, matchID, actingUserID)
			if err != nil {
				return err
			}

			switch m.Status {
			case models.MatchConfirmed:
				out = m
				return nil
			case models.MatchRejected:
				return ErrInvalidTransition
			}

			if (side == partyLost && m.ConfirmedByLostUser) || (side == partyFound && m.ConfirmedByFoundUser) {
				out = m
				return nil
			}

			expected := m.Version
			if side == partyLost {
				m.ConfirmedByLostUser = true
			} else {
				m.ConfirmedByFoundUser = true
			}
			if proofDetails != "" {
				m.ProofDetails = proofDetails
			}

			if m.ConfirmedByLostUser && m.ConfirmedByFoundUser {
				if !lost.Status.Open() || !found.Status.Open() {
					return ErrReportUnavailable
				}
				m.Status = models.MatchConfirmed
				if err := tx.UpdateMatch(ctx, m, expected); err != nil {
					return err
				}
				if err := markMatched(ctx, tx, lost.ID); err != nil {
					return err
				}
				if err := markMatched(ctx, tx, found.ID); err != nil {
					return err
				}
				notices = []notice{confirmedNotice(m, lost, found), confirmedNotice(m, found, lost)}
			} else {
				if err := tx.UpdateMatch(ctx, m, expected); err != nil {
					return err
				}
				if side == partyLost {
					notices = []notice{confirmationPendingNotice(m, found, lost)}
				} else {
					notices = []notice{confirmationPendingNotice(m, lost, found)}
				}
			}
			out = m
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if out.Status == models.MatchConfirmed && len(notices) > 0 {
		slog.Info("match confirmed", "match_id", out.ID, "user_id", actingUserID)
	}
	sendAll(ctx, c.notifier, notices)
	return out, nil
}

// Reject closes a pending match. Both reports stay open for other matches.
func (c *ClaimStateMachine) Reject(ctx context.Context, matchID, actingUserID uuid.UUID) (*models.Match, error) {
	ctx, span := c.startSpan(ctx, "matching.reject", matchID, actingUserID)
	defer span.End()

	unlock := c.locks.Lock("match:" + matchID.String())
	defer unlock()

	var (
		out     *models.Match
		notices []notice
	)
	err := retryOnConflict(func() error {
		notices = nil
		return c.store.Transaction(ctx, func(tx Store) error {
			m, lost, found, side, err := loadForActor(ctx, tx, matchID, actingUserID)
			if err != nil {
				return err
			}
			switch m.Status {
			case models.MatchRejected:
				out = m
				return nil
			case models.MatchConfirmed:
				return ErrInvalidTransition
			}

			expected := m.Version
			m.Status = models.MatchRejected
			if err := tx.UpdateMatch(ctx, m, expected); err != nil {
				return err
			}
			if side == partyLost {
				notices = []notice{rejectedNotice(m, found, lost)}
			} else {
				notices = []notice{rejectedNotice(m, lost, found)}
			}
			out = m
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sendAll(ctx, c.notifier, notices)
	return out, nil
}

// Claim lets the owner of a lost report assert that a specific found report
// is theirs. The pair is scored, a pending match is created with the lost
// owner's confirmation already recorded, and the finder is asked to confirm.
// An existing pending match for the pair is confirmed instead.
func (c *ClaimStateMachine) Claim(ctx context.Context, lostReportID, foundReportID, actingUserID uuid.UUID, proofDetails string) (*models.Match, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "matching.claim")
	defer span.End()
	span.SetAttributes(
		attribute.String("lost_report.id", lostReportID.String()),
		attribute.String("found_report.id", foundReportID.String()),
	)

	unlock := c.locks.Lock("pair:" + lostReportID.String() + ":" + foundReportID.String())
	defer func() { unlock() }()

	lost, err := c.store.GetReport(ctx, lostReportID)
	if err != nil {
		return nil, err
	}
	found, err := c.store.GetReport(ctx, foundReportID)
	if err != nil {
		return nil, err
	}
	if lost.Kind != models.KindLost || found.Kind != models.KindFound {
		return nil, fmt.Errorf("%w: a claim pairs a lost report with a found report", ErrValidation)
	}
	if lost.OwnerID != actingUserID {
		return nil, ErrUnauthorized
	}
	if found.OwnerID == actingUserID {
		return nil, fmt.Errorf("%w: cannot claim an item you reported found", ErrValidation)
	}

	existing, err := c.store.FindMatchByPair(ctx, lost.ID, found.ID)
	switch {
	case err == nil:
		if existing.Status == models.MatchRejected {
			return nil, ErrInvalidTransition
		}
		unlock()
		unlock = func() {}
		return c.Confirm(ctx, existing.ID, actingUserID, proofDetails)
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("failed to check existing match: %w", err)
	}

	if !lost.Status.Open() || !found.Status.Open() {
		return nil, ErrReportUnavailable
	}

	res := c.engine.Score(ctx, lost.ScoringItem(), found.ScoringItem())
	match := &models.Match{
		ID:                  uuid.New(),
		LostReportID:        lost.ID,
		FoundReportID:       found.ID,
		Score:               res.Composite,
		Breakdown:           res.Breakdown,
		Status:              models.MatchPending,
		Source:              models.SourceClaim,
		ConfirmedByLostUser: true,
		ProofDetails:        strings.TrimSpace(proofDetails),
		Version:             1,
	}
	if err := c.store.CreateMatch(ctx, match); err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			// created concurrently by the automatic matcher
			existing, ferr := c.store.FindMatchByPair(ctx, lost.ID, found.ID)
			if ferr != nil {
				return nil, ferr
			}
			unlock()
			unlock = func() {}
			return c.Confirm(ctx, existing.ID, actingUserID, proofDetails)
		}
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	slog.Info("claim created", "match_id", match.ID, "user_id", actingUserID, "score", match.Score)
	sendAll(ctx, c.notifier, []notice{claimReceivedNotice(match, found, lost)})
	return match, nil
}

func (c *ClaimStateMachine) startSpan(ctx context.Context, name string, matchID, userID uuid.UUID) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	span.SetAttributes(
		attribute.String("match.id", matchID.String()),
		attribute.String("user.id", userID.String()),
	)
	return ctx, span
}

func loadForActor(ctx context.Context, tx Store, matchID, actingUserID uuid.UUID) (*models.Match, *models.Report, *models.Report, party, error) {
	m, err := tx.LockMatch(ctx, matchID)
	if err != nil {
		return nil, nil, nil, partyNone, err
	}
	lost, found, err := lockReports(ctx, tx, m.LostReportID, m.FoundReportID)
	if err != nil {
		return nil, nil, nil, partyNone, err
	}

	side := partyNone
	switch actingUserID {
	case lost.OwnerID:
		side = partyLost
	case found.OwnerID:
		side = partyFound
	}
	if side == partyNone {
		return nil, nil, nil, partyNone, ErrUnauthorized
	}
	return m, lost, found, side, nil
}

// lockReports row-locks both reports of a match in id order, so two
// transactions touching a shared report cannot deadlock.
func lockReports(ctx context.Context, tx Store, lostID, foundID uuid.UUID) (lost, found *models.Report, err error) {
	first, second := lostID, foundID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	a, err := tx.LockReport(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := tx.LockReport(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	if a.ID == lostID {
		return a, b, nil
	}
	return b, a, nil
}

func markMatched(ctx context.Context, tx Store, reportID uuid.UUID) error {
	err := tx.TransitionReportStatus(ctx, reportID, models.OpenStatuses, models.StatusMatched)
	if err != nil && !errors.Is(err, ErrReportUnavailable) {
		return fmt.Errorf("failed to mark report %s matched: %w", reportID, err)
	}
	return err
}

// retryOnConflict runs fn again once when it lost an optimistic-lock race.
func retryOnConflict(fn func() error) error {
	err := fn()
	if errors.Is(err, ErrConcurrencyConflict) {
		slog.Warn("retrying after concurrent update", "error", err)
		err = fn()
	}
	return err
}
