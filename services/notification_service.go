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

// NotificationService owns the per-user inbox: append, list, mark-read, and
// live unread-count subscriptions.
type NotificationService interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListForUser(ctx context.Context, userID int) ([]*models.Notification, error)
	// MarkRead flips one of the caller's notifications. A notification
	// belonging to another user is refused.
	MarkRead(ctx context.Context, callerID, id int) error
	MarkAllRead(ctx context.Context, userID int, typ models.NotificationType) error
	UnreadCount(ctx context.Context, userID int, typ models.NotificationType) (int, error)
	// SubscribeUnreadCount opens a live stream of unread-count snapshots for
	// the user and type. The caller must Close the subscription.
	SubscribeUnreadCount(userID int, typ models.NotificationType) *live.Subscription
}

type notificationService struct {
	repo   repositories.NotificationRepository
	hub    *live.Hub
	logger *slog.Logger
}

func NewNotificationService(repo repositories.NotificationRepository, hub *live.Hub, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		hub:    hub,
		logger: logger,
	}
}

func (s *notificationService) Create(ctx context.Context, notification *models.Notification) error {
	if !notification.Type.Valid() {
		return ErrInvalidNotification
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	s.publishUnreadCount(ctx, notification.UserID, notification.Type)
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, callerID, id int) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to get notification %d: %w", id, err)
	}
	if notification.UserID != callerID {
		return ErrRecipientForbidden
	}

	typ, err := s.repo.MarkRead(ctx, id, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	s.publishUnreadCount(ctx, callerID, typ)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int, typ models.NotificationType) error {
	if !typ.Valid() {
		return ErrInvalidNotification
	}
	if _, err := s.repo.MarkAllRead(ctx, userID, typ); err != nil {
		return fmt.Errorf("failed to mark %s notifications read for user %d: %w", typ, userID, err)
	}
	s.publishUnreadCount(ctx, userID, typ)
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int, typ models.NotificationType) (int, error) {
	if !typ.Valid() {
		return 0, ErrInvalidNotification
	}
	count, err := s.repo.UnreadCount(ctx, userID, typ)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) SubscribeUnreadCount(userID int, typ models.NotificationType) *live.Subscription {
	return s.hub.Subscribe(live.NotificationRoom(userID, typ))
}

// publishUnreadCount recomputes the badge count from the store and pushes the
// full snapshot to the user's room. Failures only cost a badge refresh, so
// they are logged and dropped.
func (s *notificationService) publishUnreadCount(ctx context.Context, userID int, typ models.NotificationType) {
	if s.hub == nil {
		return
	}
	count, err := s.repo.UnreadCount(ctx, userID, typ)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to recompute unread count",
				slog.Int("user_id", userID),
				slog.String("type", string(typ)),
				slog.Any("error", err))
		}
		return
	}
	s.hub.Publish(live.NotificationRoom(userID, typ), live.EventUnreadCount, count)
}
