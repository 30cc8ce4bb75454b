package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/matchday/models"
)

var (
	ErrRequestNotFound      = errors.New("request not found")
	ErrRequestTriplePending = errors.New("pending request already exists for this sender, recipient and team")
	ErrRequestInvalidRef    = errors.New("request references a missing user or team")
)

type RequestRepository interface {
	// Create inserts a pending join/recruitment request. The partial unique
	// index on (from_id, to_id, team_id) rejects duplicate pending requests.
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id int) (*models.Request, error)
	ListPendingForUser(ctx context.Context, userID int) ([]*models.Request, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) error
}

type postgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) RequestRepository {
	return &postgresRequestRepository{db: db}
}

const requestColumns = `id, type, from_id, from_name, to_id, team_id, team_name, status, created_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.Request, error) {
	var req models.Request
	err := row.Scan(
		&req.ID,
		&req.Type,
		&req.FromID,
		&req.FromName,
		&req.ToID,
		&req.TeamID,
		&req.TeamName,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *postgresRequestRepository) Create(ctx context.Context, request *models.Request) error {
	query := `
		INSERT INTO requests (type, from_id, from_name, to_id, team_id, team_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		request.Type,
		request.FromID,
		request.FromName,
		request.ToID,
		request.TeamID,
		request.TeamName,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "uq_requests_pending_triple") {
			return ErrRequestTriplePending
		}
		if isForeignKeyViolation(err) {
			return ErrRequestInvalidRef
		}
		return err
	}
	return nil
}

func (r *postgresRequestRepository) GetByID(ctx context.Context, id int) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRequestRepository) ListPendingForUser(ctx context.Context, userID int) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE to_id = $1 AND status = 'pending'
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		req, scanErr := scanRequest(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresRequestRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE requests SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return mapContention(err)
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}
