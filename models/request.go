package models

import "time"

type RequestType string

const (
	// RequestApplication is a player asking a team's manager to join.
	RequestApplication RequestType = "application"
	// RequestRecruitment is a manager inviting a player to their team.
	RequestRecruitment RequestType = "recruitment"
)

func (t RequestType) Valid() bool {
	return t == RequestApplication || t == RequestRecruitment
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Request is a two-party join/recruitment handshake. FromID is the player for
// applications and the manager for recruitments; ToID is the other side.
type Request struct {
	ID        int           `json:"id" db:"id"`
	Type      RequestType   `json:"type" db:"type"`
	FromID    int           `json:"from_id" db:"from_id"`
	FromName  string        `json:"from_name" db:"from_name"`
	ToID      int           `json:"to_id" db:"to_id"`
	TeamID    int           `json:"team_id" db:"team_id"`
	TeamName  string        `json:"team_name" db:"team_name"`
	Status    RequestStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// PlayerID returns the user that joins the team when the request is accepted.
func (r *Request) PlayerID() int {
	if r.Type == RequestRecruitment {
		return r.ToID
	}
	return r.FromID
}
