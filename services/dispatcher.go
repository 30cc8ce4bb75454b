package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/matchday/models"
)

// Dispatcher posts typed notifications on behalf of the business services.
// Notification delivery is a side channel: a failure here is logged and
// swallowed, it must never unwind the primary operation that triggered it.
type Dispatcher struct {
	notifications NotificationService
	logger        *slog.Logger
}

func NewDispatcher(notifications NotificationService, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		logger:        logger,
	}
}

func (d *Dispatcher) post(ctx context.Context, notification *models.Notification) {
	if err := d.notifications.Create(ctx, notification); err != nil {
		if d.logger != nil {
			d.logger.Warn("failed to dispatch notification",
				slog.Int("user_id", notification.UserID),
				slog.String("type", string(notification.Type)),
				slog.Any("error", err))
		}
	}
}

// MatchRequestProposed notifies the opponent team's manager about a new
// challenge, embedding the proposal details for the inbox card.
func (d *Dispatcher) MatchRequestProposed(ctx context.Context, managerID int, request *models.MatchRequest) {
	relatedID := request.ID
	d.post(ctx, &models.Notification{
		UserID: managerID,
		Type:   models.NotificationMatchRequest,
		Title:  fmt.Sprintf("Match request from %s", request.RequestingTeamName),
		Message: fmt.Sprintf("%s wants to play against %s on %s at %s",
			request.RequestingTeamName,
			request.OpponentTeamName,
			request.MatchTime.Format("02 Jan 2006"),
			request.MatchTime.Format("15:04")),
		RelatedID: &relatedID,
		Metadata: map[string]any{
			"requesting_team_id":   request.RequestingTeamID,
			"requesting_team_name": request.RequestingTeamName,
			"opponent_team_id":     request.OpponentTeamID,
			"opponent_team_name":   request.OpponentTeamName,
			"match_time":           request.MatchTime,
			"venue":                request.Venue,
			"format":               request.Format,
		},
	})
}

// RequestSent notifies the recipient of a join application or recruitment
// invitation.
func (d *Dispatcher) RequestSent(ctx context.Context, request *models.Request) {
	relatedID := request.ID
	title := fmt.Sprintf("Team application from %s", request.FromName)
	message := fmt.Sprintf("%s has applied to join %s", request.FromName, request.TeamName)
	if request.Type == models.RequestRecruitment {
		title = fmt.Sprintf("Team invitation from %s", request.FromName)
		message = fmt.Sprintf("%s has invited you to join %s", request.FromName, request.TeamName)
	}
	d.post(ctx, &models.Notification{
		UserID:    request.ToID,
		Type:      models.NotificationRequest,
		Title:     title,
		Message:   message,
		RelatedID: &relatedID,
		Metadata: map[string]any{
			"request_type": request.Type,
			"from_id":      request.FromID,
			"from_name":    request.FromName,
			"team_id":      request.TeamID,
			"team_name":    request.TeamName,
		},
	})
}

// TeamUpdate notifies a user about roster and team changes.
func (d *Dispatcher) TeamUpdate(ctx context.Context, userID int, title, message string, teamID int) {
	d.post(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationTeamUpdate,
		Title:   title,
		Message: message,
		Metadata: map[string]any{
			"team_id": teamID,
		},
	})
}

// ChatMessage alerts the recipient of a new direct message. The chat
// transport itself lives outside this service; only the inbox alert is ours.
func (d *Dispatcher) ChatMessage(ctx context.Context, recipientID int, senderName, text string, chatID int) {
	const previewLimit = 50
	preview := text
	// Truncate on a rune boundary, not a byte offset.
	if runes := []rune(preview); len(runes) > previewLimit {
		preview = string(runes[:previewLimit]) + "..."
	}
	relatedID := chatID
	d.post(ctx, &models.Notification{
		UserID:    recipientID,
		Type:      models.NotificationChat,
		Title:     fmt.Sprintf("New message from %s", senderName),
		Message:   preview,
		RelatedID: &relatedID,
	})
}
