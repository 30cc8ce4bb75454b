package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/matchday/models"
)

var (
	ErrMatchRequestNotFound    = errors.New("match request not found")
	ErrMatchRequestPairPending = errors.New("pending match request already exists for this team pair")
	ErrMatchRequestTeamInvalid = errors.New("match request team conflict or invalid")
)

type MatchRequestRepository interface {
	// Create inserts a pending request. The partial unique index on the pair
	// key rejects a second pending request between the same two teams, which
	// surfaces as ErrMatchRequestPairPending.
	Create(ctx context.Context, request *models.MatchRequest) error
	GetByID(ctx context.Context, id int) (*models.MatchRequest, error)
	ListPendingForOpponent(ctx context.Context, teamID int) ([]*models.MatchRequest, error)
	UpdateStatus(ctx context.Context, id int, status models.MatchRequestStatus) error
}

type postgresMatchRequestRepository struct {
	db *sql.DB
}

func NewPostgresMatchRequestRepository(db *sql.DB) MatchRequestRepository {
	return &postgresMatchRequestRepository{db: db}
}

const matchRequestColumns = `id, requesting_team_id, requesting_team_name, opponent_team_id,
		opponent_team_name, match_time, venue, format, status, pair_key, created_at`

func scanMatchRequest(row interface{ Scan(...interface{}) error }) (*models.MatchRequest, error) {
	var mr models.MatchRequest
	err := row.Scan(
		&mr.ID,
		&mr.RequestingTeamID,
		&mr.RequestingTeamName,
		&mr.OpponentTeamID,
		&mr.OpponentTeamName,
		&mr.MatchTime,
		&mr.Venue,
		&mr.Format,
		&mr.Status,
		&mr.PairKey,
		&mr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchRequestNotFound
		}
		return nil, err
	}
	return &mr, nil
}

func (r *postgresMatchRequestRepository) Create(ctx context.Context, request *models.MatchRequest) error {
	request.PairKey = models.TeamPairKey(request.RequestingTeamID, request.OpponentTeamID)
	query := `
		INSERT INTO match_requests
			(requesting_team_id, requesting_team_name, opponent_team_id, opponent_team_name,
			 match_time, venue, format, status, pair_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		request.RequestingTeamID,
		request.RequestingTeamName,
		request.OpponentTeamID,
		request.OpponentTeamName,
		request.MatchTime,
		request.Venue,
		request.Format,
		request.Status,
		request.PairKey,
	).Scan(&request.ID, &request.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "uq_match_requests_pending_pair") {
			return ErrMatchRequestPairPending
		}
		if isForeignKeyViolation(err) {
			return ErrMatchRequestTeamInvalid
		}
		return err
	}
	return nil
}

func (r *postgresMatchRequestRepository) GetByID(ctx context.Context, id int) (*models.MatchRequest, error) {
	query := `SELECT ` + matchRequestColumns + ` FROM match_requests WHERE id = $1`
	return scanMatchRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRequestRepository) ListPendingForOpponent(ctx context.Context, teamID int) ([]*models.MatchRequest, error) {
	query := `SELECT ` + matchRequestColumns + `
		FROM match_requests
		WHERE opponent_team_id = $1 AND status = 'pending'
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.MatchRequest, 0)
	for rows.Next() {
		mr, scanErr := scanMatchRequest(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		requests = append(requests, mr)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresMatchRequestRepository) UpdateStatus(ctx context.Context, id int, status models.MatchRequestStatus) error {
	query := `UPDATE match_requests SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchRequestNotFound)
}
