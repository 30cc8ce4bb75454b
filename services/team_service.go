package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
	"github.com/Dosada05/matchday/storage"
	"golang.org/x/sync/errgroup"
)

// TeamView bundles a team with its resolved manager and member profiles.
type TeamView struct {
	Team    *models.Team   `json:"team"`
	Manager *models.User   `json:"manager"`
	Members []*models.User `json:"members"`
}

type TeamService interface {
	// Create registers a new team with the caller as its manager. The
	// manager is always the first roster member.
	Create(ctx context.Context, callerID int, name string) (*models.Team, error)
	GetView(ctx context.Context, teamID int) (*TeamView, error)
	UpdateName(ctx context.Context, callerID, teamID int, name string) (*models.Team, error)
	UploadLogo(ctx context.Context, callerID, teamID int, contentType string, file io.Reader) (string, error)
	UploadCover(ctx context.Context, callerID, teamID int, contentType string, file io.Reader) (string, error)
	// Leave removes the caller from their team. Managers cannot leave.
	Leave(ctx context.Context, callerID int) error
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
	uploader   storage.FileUploader
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		uploader:   uploader,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *teamService) Create(ctx context.Context, callerID int, name string) (*models.Team, error) {
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	manager, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", callerID, err)
	}
	if manager.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	team := &models.Team{
		Name:      name,
		Points:    0,
		ManagerID: callerID,
		Members:   []int{callerID},
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	role := models.RoleManager
	if err := s.userRepo.SetTeam(ctx, nil, callerID, &team.ID, &role); err != nil {
		return nil, fmt.Errorf("failed to associate manager %d with team %d: %w", callerID, team.ID, err)
	}

	s.populateImageURLs(team)
	return team, nil
}

func (s *teamService) GetView(ctx context.Context, teamID int) (*TeamView, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	s.populateImageURLs(team)

	view := &TeamView{Team: team}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		manager, err := s.userRepo.GetByID(gCtx, team.ManagerID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			return err
		}
		view.Manager = manager
		return nil
	})
	g.Go(func() error {
		members, err := s.userRepo.GetByIDs(gCtx, team.Members)
		if err != nil {
			return err
		}
		view.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve team %d roster: %w", teamID, err)
	}

	for _, member := range view.Members {
		s.populateUserPhotoURL(member)
	}
	s.populateUserPhotoURL(view.Manager)

	return view, nil
}

func (s *teamService) UpdateName(ctx context.Context, callerID, teamID int, name string) (*models.Team, error) {
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team, err := requireTeamManager(ctx, s.teamRepo, teamID, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.teamRepo.UpdateName(ctx, teamID, name); err != nil {
		return nil, fmt.Errorf("failed to rename team %d: %w", teamID, err)
	}
	team.Name = name

	s.populateImageURLs(team)
	return team, nil
}

func (s *teamService) UploadLogo(ctx context.Context, callerID, teamID int, contentType string, file io.Reader) (string, error) {
	team, err := requireTeamManager(ctx, s.teamRepo, teamID, callerID)
	if err != nil {
		return "", err
	}
	return s.replaceImage(ctx, teamID, "logo", contentType, file, team.LogoKey, s.teamRepo.UpdateLogoKey)
}

func (s *teamService) UploadCover(ctx context.Context, callerID, teamID int, contentType string, file io.Reader) (string, error) {
	team, err := requireTeamManager(ctx, s.teamRepo, teamID, callerID)
	if err != nil {
		return "", err
	}
	return s.replaceImage(ctx, teamID, "cover", contentType, file, team.CoverKey, s.teamRepo.UpdateCoverKey)
}

func (s *teamService) replaceImage(
	ctx context.Context,
	teamID int,
	kind, contentType string,
	file io.Reader,
	oldKey *string,
	saveKey func(context.Context, int, *string) error,
) (string, error) {
	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("teams/%d/%s%s", teamID, kind, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload team %s: %w", kind, err)
	}

	if err := saveKey(ctx, teamID, &result.Key); err != nil {
		return "", fmt.Errorf("failed to save team %s key: %w", kind, err)
	}

	// The key embeds the extension, so switching image formats would orphan
	// the previous object.
	if oldKey != nil && *oldKey != "" && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete superseded team image",
				slog.Int("team_id", teamID),
				slog.String("key", *oldKey),
				slog.Any("error", err))
		}
	}
	return result.Location, nil
}

func (s *teamService) Leave(ctx context.Context, callerID int) error {
	user, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", callerID, err)
	}
	if user.TeamID == nil {
		return ErrUserNotInTeam
	}

	team, err := s.teamRepo.GetByID(ctx, *user.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", *user.TeamID, err)
	}
	if team.ManagerID == callerID {
		return ErrManagerCannotLeave
	}

	if err := s.teamRepo.RemoveMember(ctx, nil, team.ID, callerID); err != nil {
		return fmt.Errorf("failed to remove player %d from team %d: %w", callerID, team.ID, err)
	}
	if err := s.userRepo.SetTeam(ctx, nil, callerID, nil, nil); err != nil {
		return fmt.Errorf("failed to clear team association for user %d: %w", callerID, err)
	}

	s.dispatcher.TeamUpdate(ctx, team.ManagerID,
		fmt.Sprintf("%s left the team", user.DisplayName),
		fmt.Sprintf("%s is no longer part of %s", user.DisplayName, team.Name),
		team.ID)

	return nil
}

func (s *teamService) populateImageURLs(team *models.Team) {
	if team == nil || s.uploader == nil {
		return
	}
	if team.LogoKey != nil && *team.LogoKey != "" {
		if url := s.uploader.GetPublicURL(*team.LogoKey); url != "" {
			team.LogoURL = &url
		}
	}
	if team.CoverKey != nil && *team.CoverKey != "" {
		if url := s.uploader.GetPublicURL(*team.CoverKey); url != "" {
			team.CoverURL = &url
		}
	}
}

func (s *teamService) populateUserPhotoURL(user *models.User) {
	if user == nil || s.uploader == nil || user.PhotoKey == nil || *user.PhotoKey == "" {
		return
	}
	if url := s.uploader.GetPublicURL(*user.PhotoKey); url != "" {
		user.PhotoURL = &url
	}
}
