package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/matchday/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id int) (*models.Notification, error)
	ListForUser(ctx context.Context, userID int) ([]*models.Notification, error)
	// MarkRead flips a single notification owned by userID and reports its
	// type so the caller can push a refreshed unread count.
	MarkRead(ctx context.Context, id, userID int) (models.NotificationType, error)
	// MarkAllRead marks every unread notification of the given type for the
	// user and returns how many were updated.
	MarkAllRead(ctx context.Context, userID int, typ models.NotificationType) (int64, error)
	UnreadCount(ctx context.Context, userID int, typ models.NotificationType) (int, error)
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	var metadata []byte
	if notification.Metadata != nil {
		var err error
		metadata, err = json.Marshal(notification.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode notification metadata: %w", err)
		}
	}

	query := `
		INSERT INTO notifications (user_id, type, title, message, related_id, is_read, metadata)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.RelatedID,
		metadata,
	).Scan(&notification.ID, &notification.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, related_id, is_read, metadata, created_at, read_at
		FROM notifications
		WHERE id = $1`

	var n models.Notification
	var metadata []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.RelatedID,
		&n.IsRead,
		&metadata,
		&n.CreatedAt,
		&n.ReadAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for notification %d: %w", n.ID, err)
		}
	}
	return &n, nil
}

func (r *postgresNotificationRepository) ListForUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, related_id, is_read, metadata, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var metadata []byte
		if scanErr := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.RelatedID,
			&n.IsRead,
			&metadata,
			&n.CreatedAt,
			&n.ReadAt,
		); scanErr != nil {
			return nil, scanErr
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for notification %d: %w", n.ID, err)
			}
		}
		notifications = append(notifications, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id, userID int) (models.NotificationType, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING type`

	var typ models.NotificationType
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&typ)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotificationNotFound
		}
		return "", err
	}
	return typ, nil
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, userID int, typ models.NotificationType) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND type = $2 AND NOT is_read`

	result, err := r.db.ExecContext(ctx, query, userID, typ)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresNotificationRepository) UnreadCount(ctx context.Context, userID int, typ models.NotificationType) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = $2 AND NOT is_read`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, typ).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
