package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

// requireTeamManager loads the team and verifies the caller manages it.
// Every manager-gated operation goes through here once, at the top, so the
// capability check is a single explicit Forbidden instead of scattered id
// comparisons.
func requireTeamManager(ctx context.Context, teamRepo repositories.TeamRepository, teamID, callerID int) (*models.Team, error) {
	team, err := teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.ManagerID != callerID {
		return nil, ErrManagerActionForbidden
	}
	return team, nil
}
