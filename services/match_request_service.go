package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/matchday/live"
	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

// ProposeMatchInput carries a manager's challenge to another team.
type ProposeMatchInput struct {
	RequestingTeamID int                `json:"requesting_team_id"`
	OpponentTeamID   int                `json:"opponent_team_id"`
	MatchTime        time.Time          `json:"match_time"`
	Venue            string             `json:"venue"`
	Format           models.MatchFormat `json:"format"`
}

type MatchRequestService interface {
	Propose(ctx context.Context, callerID int, input ProposeMatchInput) (*models.MatchRequest, error)
	Accept(ctx context.Context, callerID, requestID int) (*models.Match, error)
	Decline(ctx context.Context, callerID, requestID int) error
	ListForTeam(ctx context.Context, teamID int) ([]*models.MatchRequest, error)
}

type matchRequestService struct {
	matchRequestRepo repositories.MatchRequestRepository
	matchRepo        repositories.MatchRepository
	teamRepo         repositories.TeamRepository
	dispatcher       *Dispatcher
	hub              *live.Hub
	logger           *slog.Logger
}

func NewMatchRequestService(
	matchRequestRepo repositories.MatchRequestRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	dispatcher *Dispatcher,
	hub *live.Hub,
	logger *slog.Logger,
) MatchRequestService {
	return &matchRequestService{
		matchRequestRepo: matchRequestRepo,
		matchRepo:        matchRepo,
		teamRepo:         teamRepo,
		dispatcher:       dispatcher,
		hub:              hub,
		logger:           logger,
	}
}

func validateProposal(input ProposeMatchInput) error {
	if input.RequestingTeamID == input.OpponentTeamID {
		return ErrSelfChallenge
	}
	if input.MatchTime.IsZero() {
		return ErrMatchTimeRequired
	}
	if input.Venue == "" {
		return ErrVenueRequired
	}
	if !input.Format.Valid() {
		return ErrInvalidMatchFormat
	}
	return nil
}

func (s *matchRequestService) Propose(ctx context.Context, callerID int, input ProposeMatchInput) (*models.MatchRequest, error) {
	if err := validateProposal(input); err != nil {
		return nil, err
	}

	requestingTeam, err := requireTeamManager(ctx, s.teamRepo, input.RequestingTeamID, callerID)
	if err != nil {
		return nil, err
	}

	opponentTeam, err := s.teamRepo.GetByID(ctx, input.OpponentTeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get opponent team %d: %w", input.OpponentTeamID, err)
	}

	request := &models.MatchRequest{
		RequestingTeamID:   requestingTeam.ID,
		RequestingTeamName: requestingTeam.Name,
		OpponentTeamID:     opponentTeam.ID,
		OpponentTeamName:   opponentTeam.Name,
		MatchTime:          input.MatchTime,
		Venue:              input.Venue,
		Format:             input.Format,
		Status:             models.MatchRequestPending,
	}

	// The store's unique pending-pair index decides the race, not a
	// query-then-insert check.
	if err := s.matchRequestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrMatchRequestPairPending) {
			return nil, ErrMatchRequestPending
		}
		if errors.Is(err, repositories.ErrMatchRequestTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create match request: %w", err)
	}

	s.dispatcher.MatchRequestProposed(ctx, opponentTeam.ManagerID, request)

	return request, nil
}

func (s *matchRequestService) Accept(ctx context.Context, callerID, requestID int) (*models.Match, error) {
	request, err := s.getPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := requireTeamManager(ctx, s.teamRepo, request.OpponentTeamID, callerID); err != nil {
		return nil, err
	}

	match := &models.Match{
		RequestingTeamID:   request.RequestingTeamID,
		RequestingTeamName: request.RequestingTeamName,
		OpponentTeamID:     request.OpponentTeamID,
		OpponentTeamName:   request.OpponentTeamName,
		MatchTime:          request.MatchTime,
		Venue:              request.Venue,
		Format:             request.Format,
		Status:             models.MatchScheduled,
	}

	// Match first, then the request flip. A crash between the two leaves the
	// request re-actionable, which is harmless: the request is never
	// consulted again once a match exists.
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match from request %d: %w", requestID, err)
	}

	if err := s.matchRequestRepo.UpdateStatus(ctx, requestID, models.MatchRequestAccepted); err != nil {
		return nil, fmt.Errorf("failed to mark match request %d accepted: %w", requestID, err)
	}

	publishTeamMatches(ctx, s.matchRepo, s.hub, s.logger, match.RequestingTeamID, match.OpponentTeamID)

	return match, nil
}

func (s *matchRequestService) Decline(ctx context.Context, callerID, requestID int) error {
	request, err := s.getPending(ctx, requestID)
	if err != nil {
		return err
	}

	if _, err := requireTeamManager(ctx, s.teamRepo, request.OpponentTeamID, callerID); err != nil {
		return err
	}

	if err := s.matchRequestRepo.UpdateStatus(ctx, requestID, models.MatchRequestDeclined); err != nil {
		return fmt.Errorf("failed to decline match request %d: %w", requestID, err)
	}
	return nil
}

func (s *matchRequestService) ListForTeam(ctx context.Context, teamID int) ([]*models.MatchRequest, error) {
	requests, err := s.matchRequestRepo.ListPendingForOpponent(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match requests for team %d: %w", teamID, err)
	}
	return requests, nil
}

func (s *matchRequestService) getPending(ctx context.Context, requestID int) (*models.MatchRequest, error) {
	request, err := s.matchRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchRequestNotFound) {
			return nil, ErrMatchRequestNotFound
		}
		return nil, fmt.Errorf("failed to get match request %d: %w", requestID, err)
	}
	if request.Status != models.MatchRequestPending {
		return nil, ErrMatchRequestNotPending
	}
	return request, nil
}
