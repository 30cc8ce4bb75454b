package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

// SendRequestInput starts a join handshake: a player applying to a team, or
// a manager recruiting a player.
type SendRequestInput struct {
	Type   models.RequestType `json:"type"`
	ToID   int                `json:"to_id"`
	TeamID int                `json:"team_id"`
}

type RequestService interface {
	Send(ctx context.Context, callerID int, input SendRequestInput) (*models.Request, error)
	ListPendingForUser(ctx context.Context, userID int) ([]*models.Request, error)
	// Accept runs the documented non-atomic acceptance workflow: request
	// status, team roster, then player association. Each step is idempotent,
	// so re-running after a mid-sequence crash converges.
	Accept(ctx context.Context, callerID, requestID int) error
	Decline(ctx context.Context, callerID, requestID int) error
}

type requestService struct {
	requestRepo repositories.RequestRepository
	teamRepo    repositories.TeamRepository
	userRepo    repositories.UserRepository
	dispatcher  *Dispatcher
	logger      *slog.Logger
}

func NewRequestService(
	requestRepo repositories.RequestRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		teamRepo:    teamRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

func (s *requestService) Send(ctx context.Context, callerID int, input SendRequestInput) (*models.Request, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidRequestType
	}

	team, err := s.teamRepo.GetByID(ctx, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", input.TeamID, err)
	}

	sender, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var toID int
	switch input.Type {
	case models.RequestApplication:
		// A player asks the team's manager.
		toID = team.ManagerID
	case models.RequestRecruitment:
		// Only the manager recruits on the team's behalf.
		if team.ManagerID != callerID {
			return nil, ErrManagerActionForbidden
		}
		toID = input.ToID
		if _, err := s.getUser(ctx, toID); err != nil {
			return nil, err
		}
	}

	request := &models.Request{
		Type:     input.Type,
		FromID:   callerID,
		FromName: sender.DisplayName,
		ToID:     toID,
		TeamID:   team.ID,
		TeamName: team.Name,
		Status:   models.RequestPending,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrRequestTriplePending) {
			return nil, ErrRequestPending
		}
		if errors.Is(err, repositories.ErrRequestInvalidRef) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.dispatcher.RequestSent(ctx, request)

	return request, nil
}

func (s *requestService) ListPendingForUser(ctx context.Context, userID int) ([]*models.Request, error) {
	requests, err := s.requestRepo.ListPendingForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests for user %d: %w", userID, err)
	}
	return requests, nil
}

func (s *requestService) Accept(ctx context.Context, callerID, requestID int) error {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ToID != callerID {
		return ErrRecipientForbidden
	}
	// An already-accepted request is a replay of a partially applied
	// acceptance: fall through and re-run the remaining writes.
	if request.Status == models.RequestDeclined {
		return ErrRequestNotPending
	}

	playerID := request.PlayerID()
	player, err := s.getUser(ctx, playerID)
	if err != nil {
		return err
	}
	if player.TeamID != nil && *player.TeamID != request.TeamID {
		return ErrUserAlreadyInTeam
	}

	// Three separate writes, deliberately not one transaction. Each is
	// idempotent (absolute status, guarded append, absolute association), so
	// a crash between any two is recovered by calling Accept again.
	if err := s.requestRepo.UpdateStatus(ctx, nil, requestID, models.RequestAccepted); err != nil {
		return fmt.Errorf("failed to mark request %d accepted: %w", requestID, err)
	}

	if err := s.teamRepo.AddMember(ctx, nil, request.TeamID, playerID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to add player %d to team %d: %w", playerID, request.TeamID, err)
	}

	role := models.RolePlayer
	teamID := request.TeamID
	if err := s.userRepo.SetTeam(ctx, nil, playerID, &teamID, &role); err != nil {
		return fmt.Errorf("failed to associate player %d with team %d: %w", playerID, teamID, err)
	}

	s.dispatcher.TeamUpdate(ctx, playerID,
		fmt.Sprintf("Welcome to %s", request.TeamName),
		fmt.Sprintf("You are now part of %s", request.TeamName),
		request.TeamID)

	return nil
}

func (s *requestService) Decline(ctx context.Context, callerID, requestID int) error {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ToID != callerID {
		return ErrRecipientForbidden
	}
	if request.Status != models.RequestPending {
		return ErrRequestNotPending
	}

	if err := s.requestRepo.UpdateStatus(ctx, nil, requestID, models.RequestDeclined); err != nil {
		return fmt.Errorf("failed to decline request %d: %w", requestID, err)
	}
	return nil
}

func (s *requestService) getRequest(ctx context.Context, requestID int) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request %d: %w", requestID, err)
	}
	return request, nil
}

func (s *requestService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}
