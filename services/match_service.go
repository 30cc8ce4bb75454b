package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/matchday/live"
	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

// settlementRetries bounds the automatic retry loop for transaction
// contention. Every retry re-reads the match, so a settlement that already
// happened fails the precondition instead of applying twice.
const settlementRetries = 3

// SubmitResultInput is a manager's score report for a played match.
type SubmitResultInput struct {
	Score   [2]int               `json:"score"` // [requesting, opponent]
	Scorers []models.ScorerEntry `json:"scorers"`
}

type MatchService interface {
	// SubmitResult records the requesting manager's score report and moves
	// the match to pending_confirmation. Resubmitting before the opponent
	// acts overwrites the previous report.
	SubmitResult(ctx context.Context, callerID, matchID int, input SubmitResultInput) (*models.Match, error)
	// Confirm settles the match: one transaction awards team points and
	// player goals exactly once.
	Confirm(ctx context.Context, callerID, matchID int) (*models.Match, error)
	// Dispute marks the reported result as contested. No points or goals are
	// ever awarded for a disputed match.
	Dispute(ctx context.Context, callerID, matchID int) error
	ListForTeam(ctx context.Context, teamID int) ([]*models.Match, error)
}

type matchService struct {
	tx        repositories.TxRunner
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	userRepo  repositories.UserRepository
	hub       *live.Hub
	logger    *slog.Logger
}

func NewMatchService(
	tx repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	hub *live.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:        tx,
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		hub:       hub,
		logger:    logger,
	}
}

func validateResult(input SubmitResultInput) error {
	if input.Score[0] < 0 || input.Score[1] < 0 {
		return ErrNegativeScore
	}
	total := 0
	for _, scorer := range input.Scorers {
		if scorer.Count <= 0 {
			return ErrScorerCountInvalid
		}
		total += scorer.Count
	}
	if total != input.Score[0]+input.Score[1] {
		return fmt.Errorf("%w: scorers total %d, score total %d",
			ErrResultGoalsMismatch, total, input.Score[0]+input.Score[1])
	}
	return nil
}

func (s *matchService) SubmitResult(ctx context.Context, callerID, matchID int, input SubmitResultInput) (*models.Match, error) {
	if err := validateResult(input); err != nil {
		return nil, err
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	// Only the requesting team's manager reports the score. Whether the
	// scheduled time has passed is a UI concern, not enforced here.
	if _, err := requireTeamManager(ctx, s.teamRepo, match.RequestingTeamID, callerID); err != nil {
		return nil, err
	}

	result := &models.MatchResult{
		Score:       input.Score,
		Scorers:     input.Scorers,
		SubmittedBy: callerID,
	}

	if err := s.matchRepo.SetResult(ctx, matchID, result); err != nil {
		if errors.Is(err, repositories.ErrMatchStatusStale) {
			return nil, ErrMatchAlreadySettled
		}
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to store result for match %d: %w", matchID, err)
	}

	match.Result = result
	match.Status = models.MatchPendingConfirmation

	publishTeamMatches(ctx, s.matchRepo, s.hub, s.logger, match.RequestingTeamID, match.OpponentTeamID)

	return match, nil
}

func (s *matchService) Confirm(ctx context.Context, callerID, matchID int) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	// Only the opponent team's manager can accept the reported score.
	if _, err := requireTeamManager(ctx, s.teamRepo, match.OpponentTeamID, callerID); err != nil {
		return nil, err
	}

	var settled *models.Match
	for attempt := 1; ; attempt++ {
		settled, err = s.settle(ctx, matchID)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrStoreContention) && attempt < settlementRetries {
			s.logger.Warn("settlement transaction contention, retrying",
				slog.Int("match_id", matchID),
				slog.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, repositories.ErrStoreContention) {
			return nil, fmt.Errorf("%w: settlement for match %d", ErrStoreContention, matchID)
		}
		return nil, err
	}

	publishTeamMatches(ctx, s.matchRepo, s.hub, s.logger, settled.RequestingTeamID, settled.OpponentTeamID)

	return settled, nil
}

// settle runs the one correctness-critical transaction: match row lock and
// status re-check, point allocation for both teams, and goal credits for
// every scorer. Either all of it commits or none of it does.
func (s *matchService) settle(ctx context.Context, matchID int) (*models.Match, error) {
	var settled *models.Match

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}

		// Re-checked under the row lock: a concurrent confirm or dispute
		// already moved the match on, so this caller loses cleanly.
		if match.Status != models.MatchPendingConfirmation || match.Result == nil {
			return ErrMatchNotConfirmable
		}

		if err := s.matchRepo.SetStatusGuarded(ctx, exec, matchID, models.MatchPendingConfirmation, models.MatchConfirmed); err != nil {
			if errors.Is(err, repositories.ErrMatchStatusStale) {
				return ErrMatchNotConfirmable
			}
			return err
		}

		requestingPoints, opponentPoints := allocatePoints(match.Result.Score)
		if requestingPoints > 0 {
			if err := s.teamRepo.AddPoints(ctx, exec, match.RequestingTeamID, requestingPoints); err != nil {
				return fmt.Errorf("failed to award points to team %d: %w", match.RequestingTeamID, err)
			}
		}
		if opponentPoints > 0 {
			if err := s.teamRepo.AddPoints(ctx, exec, match.OpponentTeamID, opponentPoints); err != nil {
				return fmt.Errorf("failed to award points to team %d: %w", match.OpponentTeamID, err)
			}
		}

		for _, scorer := range match.Result.Scorers {
			if err := s.userRepo.AddGoals(ctx, exec, scorer.PlayerID, scorer.Count); err != nil {
				// A deleted player must not sink the whole settlement; the
				// remaining credits still apply.
				if errors.Is(err, repositories.ErrUserNotFound) {
					s.logger.Warn("skipping goals for missing player",
						slog.Int("match_id", matchID),
						slog.Int("player_id", scorer.PlayerID),
						slog.Int("count", scorer.Count))
					continue
				}
				return fmt.Errorf("failed to credit goals to player %d: %w", scorer.PlayerID, err)
			}
		}

		match.Status = models.MatchConfirmed
		settled = match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// allocatePoints is the pure win/draw/loss function of the two scores:
// 3 points for a win, 1 each for a draw.
func allocatePoints(score [2]int) (requesting, opponent int) {
	switch {
	case score[0] > score[1]:
		return 3, 0
	case score[1] > score[0]:
		return 0, 3
	default:
		return 1, 1
	}
}

func (s *matchService) Dispute(ctx context.Context, callerID, matchID int) error {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}

	if _, err := requireTeamManager(ctx, s.teamRepo, match.OpponentTeamID, callerID); err != nil {
		return err
	}

	// A single guarded update suffices: when racing a confirmation, exactly
	// one of the two status transitions wins and the other observes the
	// stale-status failure.
	err = s.matchRepo.SetStatusGuarded(ctx, nil, matchID, models.MatchPendingConfirmation, models.MatchDisputed)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchStatusStale) {
			return ErrMatchNotConfirmable
		}
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to dispute match %d: %w", matchID, err)
	}

	publishTeamMatches(ctx, s.matchRepo, s.hub, s.logger, match.RequestingTeamID, match.OpponentTeamID)

	return nil
}

func (s *matchService) ListForTeam(ctx context.Context, teamID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListForTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for team %d: %w", teamID, err)
	}
	return matches, nil
}

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	return match, nil
}

// publishTeamMatches pushes the full current match list of each team to its
// live room. Subscribers recompute whatever they derive from it; a publish
// failure only delays the next snapshot.
func publishTeamMatches(ctx context.Context, repo repositories.MatchRepository, hub *live.Hub, logger *slog.Logger, teamIDs ...int) {
	if hub == nil {
		return
	}
	for _, teamID := range teamIDs {
		room := live.TeamMatchesRoom(teamID)
		if hub.SubscriberCount(room) == 0 {
			continue
		}
		matches, err := repo.ListForTeam(ctx, teamID)
		if err != nil {
			if logger != nil {
				logger.Warn("failed to build match list snapshot",
					slog.Int("team_id", teamID),
					slog.Any("error", err))
			}
			continue
		}
		hub.Publish(room, live.EventMatchList, matches)
	}
}
