package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Dosada05/matchday/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name conflict")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	UpdateName(ctx context.Context, id int, name string) error
	UpdateLogoKey(ctx context.Context, id int, key *string) error
	UpdateCoverKey(ctx context.Context, id int, key *string) error
	// AddMember appends the user to the members array. The append is guarded
	// so replaying an acceptance does not duplicate the entry.
	AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	RemoveMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	// AddPoints increments the team's point total inside the settlement
	// transaction.
	AddPoints(ctx context.Context, exec SQLExecutor, teamID, points int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	team.NameLowercase = strings.ToLower(team.Name)
	query := `
		INSERT INTO teams (name, name_lowercase, points, manager_id, members, logo_key, cover_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		team.Name,
		team.NameLowercase,
		team.Points,
		team.ManagerID,
		pq.Array(team.Members),
		team.LogoKey,
		team.CoverKey,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrTeamNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, name, name_lowercase, points, manager_id, members, logo_key, cover_key, created_at
		FROM teams
		WHERE id = $1`

	team := &models.Team{}
	var members pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.NameLowercase,
		&team.Points,
		&team.ManagerID,
		&members,
		&team.LogoKey,
		&team.CoverKey,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	team.Members = make([]int, len(members))
	for i, m := range members {
		team.Members[i] = int(m)
	}
	return team, nil
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, id int, name string) error {
	query := `UPDATE teams SET name = $1, name_lowercase = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, name, strings.ToLower(name), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateCoverKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE teams SET cover_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	query := `
		UPDATE teams
		SET members = array_append(members, $1)
		WHERE id = $2 AND NOT ($1 = ANY(members))`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, userID, teamID)
	if err != nil {
		return mapContention(err)
	}
	// Zero affected rows means either a missing team or an already-present
	// member; the latter is fine for idempotent replays, so distinguish.
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := r.GetByID(ctx, teamID); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	query := `UPDATE teams SET members = array_remove(members, $1) WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, userID, teamID)
	if err != nil {
		return mapContention(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AddPoints(ctx context.Context, exec SQLExecutor, teamID, points int) error {
	query := `UPDATE teams SET points = points + $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, points, teamID)
	if err != nil {
		return mapContention(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
