package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/matchday/models"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads and mutates player records. Account provisioning
// belongs to the external identity sync, so there is no Create here.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int) ([]*models.User, error)
	// SetTeam sets (or clears, with nil) the user's team association and role.
	SetTeam(ctx context.Context, exec SQLExecutor, userID int, teamID *int, role *models.UserRole) error
	// AddGoals increments the player's running goal total inside the
	// settlement transaction. Returns ErrUserNotFound on a missing player so
	// the engine can soft-fail that scorer.
	AddGoals(ctx context.Context, exec SQLExecutor, userID int, count int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, display_name, display_name_lowercase, email, team_id, role, goals, photo_key, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var role sql.NullString
	err := row.Scan(
		&u.ID,
		&u.DisplayName,
		&u.DisplayNameLowercase,
		&u.Email,
		&u.TeamID,
		&role,
		&u.Goals,
		&u.PhotoKey,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if role.Valid {
		r := models.UserRole(role.String)
		u.Role = &r
	}
	return &u, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByIDs(ctx context.Context, ids []int) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0, len(ids))
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) SetTeam(ctx context.Context, exec SQLExecutor, userID int, teamID *int, role *models.UserRole) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE users SET team_id = $1, role = $2 WHERE id = $3`
	var roleVal interface{}
	if role != nil {
		roleVal = string(*role)
	}
	result, err := executor.ExecContext(ctx, query, teamID, roleVal, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return mapContention(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) AddGoals(ctx context.Context, exec SQLExecutor, userID int, count int) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE users SET goals = goals + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, count, userID)
	if err != nil {
		return mapContention(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
