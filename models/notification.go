package models

import "time"

type NotificationType string

const (
	NotificationChat         NotificationType = "chat"
	NotificationRequest      NotificationType = "request"
	NotificationMatchRequest NotificationType = "match_request"
	NotificationTeamUpdate   NotificationType = "team_update"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationChat, NotificationRequest, NotificationMatchRequest, NotificationTeamUpdate:
		return true
	}
	return false
}

// Notification is an entry in a user's inbox. Business logic only ever
// appends; the mark-read operations are the sole mutation afterwards.
type Notification struct {
	ID        int              `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	RelatedID *int             `json:"related_id,omitempty" db:"related_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	Metadata  map[string]any   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
}
