package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/matchday/models"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchStatusStale = errors.New("match status changed concurrently")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetByIDForUpdate re-reads the match inside the settlement transaction,
	// taking a row lock so concurrent confirmations serialize on it.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// ListForTeam returns every match the team appears in, newest first.
	ListForTeam(ctx context.Context, teamID int) ([]*models.Match, error)
	// SetResult stores the submitted result and moves the match to
	// pending_confirmation. Resubmission before confirmation overwrites the
	// prior result (last writer wins), so the guard only excludes terminal
	// states.
	SetResult(ctx context.Context, id int, result *models.MatchResult) error
	// SetStatusGuarded transitions the match only when it is still in the
	// expected status. Zero affected rows on an existing match surface as
	// ErrMatchStatusStale.
	SetStatusGuarded(ctx context.Context, exec SQLExecutor, id int, from, to models.MatchStatus) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, requesting_team_id, requesting_team_name, opponent_team_id,
		opponent_team_name, match_time, venue, format, status, result, created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var resultRaw []byte
	err := row.Scan(
		&m.ID,
		&m.RequestingTeamID,
		&m.RequestingTeamName,
		&m.OpponentTeamID,
		&m.OpponentTeamName,
		&m.MatchTime,
		&m.Venue,
		&m.Format,
		&m.Status,
		&resultRaw,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if len(resultRaw) > 0 {
		var res models.MatchResult
		if err := json.Unmarshal(resultRaw, &res); err != nil {
			return nil, fmt.Errorf("failed to decode result for match %d: %w", m.ID, err)
		}
		m.Result = &res
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(requesting_team_id, requesting_team_name, opponent_team_id, opponent_team_name,
			 match_time, venue, format, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		match.RequestingTeamID,
		match.RequestingTeamName,
		match.OpponentTeamID,
		match.OpponentTeamName,
		match.MatchTime,
		match.Venue,
		match.Format,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMatchRequestTeamInvalid
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	match, err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, mapContention(err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListForTeam(ctx context.Context, teamID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE requesting_team_id = $1 OR opponent_team_id = $1
		ORDER BY match_time DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) SetResult(ctx context.Context, id int, result *models.MatchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode match result: %w", err)
	}

	query := `
		UPDATE matches
		SET result = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)`

	res, err := r.db.ExecContext(ctx, query,
		payload,
		models.MatchPendingConfirmation,
		id,
		models.MatchScheduled,
		models.MatchPendingConfirmation,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrMatchStatusStale
	}
	return nil
}

func (r *postgresMatchRepository) SetStatusGuarded(ctx context.Context, exec SQLExecutor, id int, from, to models.MatchStatus) error {
	query := `UPDATE matches SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return mapContention(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrMatchStatusStale
	}
	return nil
}
