package services

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
)

type MatchService struct {
	store  matching.Store
	claims *matching.ClaimStateMachine
}

func NewMatchService(store matching.Store, claims *matching.ClaimStateMachine) *MatchService {
	return &MatchService{store: store, claims: claims}
}

// List returns the matches on any of the user's reports, best score first.
func (s *MatchService) List(ctx context.Context, userID uuid.UUID, status string) ([]models.Match, error) {
	st := models.MatchStatus(status)
	switch st {
	case "", models.MatchPending, models.MatchConfirmed, models.MatchRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", matching.ErrValidation, status)
	}
	matches, err := s.store.ListMatchesForUser(ctx, userID, st)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return matches, nil
}

// Get returns a match to either of its two report owners.
func (s *MatchService) Get(ctx context.Context, userID, matchID uuid.UUID) (*models.Match, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	for _, id := range []uuid.UUID{m.LostReportID, m.FoundReportID} {
		r, err := s.store.GetReport(ctx, id)
		if err != nil {
			return nil, err
		}
		if r.OwnerID == userID {
			return m, nil
		}
	}
	return nil, matching.ErrUnauthorized
}

func (s *MatchService) Confirm(ctx context.Context, userID, matchID uuid.UUID, req *dto.ConfirmMatchRequest) (*models.Match, error) {
	return s.claims.Confirm(ctx, matchID, userID, req.ProofDetails)
}

func (s *MatchService) Reject(ctx context.Context, userID, matchID uuid.UUID) (*models.Match, error) {
	return s.claims.Reject(ctx, matchID, userID)
}

func (s *MatchService) Claim(ctx context.Context, userID uuid.UUID, req *dto.ClaimRequest) (*models.Match, error) {
	if req.LostReportID == uuid.Nil || req.FoundReportID == uuid.Nil {
		return nil, fmt.Errorf("%w: lost_report_id and found_report_id are required", matching.ErrValidation)
	}
	return s.claims.Claim(ctx, req.LostReportID, req.FoundReportID, userID, req.ProofDetails)
}
