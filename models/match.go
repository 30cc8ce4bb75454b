package models

import (
	"fmt"
	"time"
)

type MatchFormat string

const (
	FormatTwoHalves   MatchFormat = "2-halves"
	FormatFourQuarter MatchFormat = "4-quarters"
)

func (f MatchFormat) Valid() bool {
	return f == FormatTwoHalves || f == FormatFourQuarter
}

type MatchRequestStatus string

const (
	MatchRequestPending  MatchRequestStatus = "pending"
	MatchRequestAccepted MatchRequestStatus = "accepted"
	MatchRequestDeclined MatchRequestStatus = "declined"
)

type MatchRequest struct {
	ID                 int                `json:"id" db:"id"`
	RequestingTeamID   int                `json:"requesting_team_id" db:"requesting_team_id"`
	RequestingTeamName string             `json:"requesting_team_name" db:"requesting_team_name"`
	OpponentTeamID     int                `json:"opponent_team_id" db:"opponent_team_id"`
	OpponentTeamName   string             `json:"opponent_team_name" db:"opponent_team_name"`
	MatchTime          time.Time          `json:"match_time" db:"match_time"`
	Venue              string             `json:"venue" db:"venue"`
	Format             MatchFormat        `json:"format" db:"format"`
	Status             MatchRequestStatus `json:"status" db:"status"`
	PairKey            string             `json:"-" db:"pair_key"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
}

// TeamPairKey builds the deterministic key for the unordered team pair.
// The partial unique index on match_requests uses it to guarantee at most
// one pending request between any two teams.
func TeamPairKey(teamA, teamB int) string {
	if teamA > teamB {
		teamA, teamB = teamB, teamA
	}
	return fmt.Sprintf("%d_%d", teamA, teamB)
}

type MatchStatus string

const (
	MatchScheduled           MatchStatus = "scheduled"
	MatchPendingConfirmation MatchStatus = "pending_confirmation"
	MatchConfirmed           MatchStatus = "confirmed"
	MatchDisputed            MatchStatus = "disputed"
)

// ScorerEntry credits count goals to a single player.
type ScorerEntry struct {
	PlayerID int `json:"player_id"`
	Count    int `json:"count"`
}

// MatchResult is stored as a jsonb blob on the match row. Once a match is
// confirmed it is the only record of how the points were allocated, so it is
// never cleared.
type MatchResult struct {
	Score       [2]int        `json:"score"` // [requesting, opponent]
	Scorers     []ScorerEntry `json:"scorers"`
	SubmittedBy int           `json:"submitted_by"`
}

// GoalsTotal sums the per-player goal counts.
func (r *MatchResult) GoalsTotal() int {
	total := 0
	for _, s := range r.Scorers {
		total += s.Count
	}
	return total
}

type Match struct {
	ID                 int          `json:"id" db:"id"`
	RequestingTeamID   int          `json:"requesting_team_id" db:"requesting_team_id"`
	RequestingTeamName string       `json:"requesting_team_name" db:"requesting_team_name"`
	OpponentTeamID     int          `json:"opponent_team_id" db:"opponent_team_id"`
	OpponentTeamName   string       `json:"opponent_team_name" db:"opponent_team_name"`
	MatchTime          time.Time    `json:"match_time" db:"match_time"`
	Venue              string       `json:"venue" db:"venue"`
	Format             MatchFormat  `json:"format" db:"format"`
	Status             MatchStatus  `json:"status" db:"status"`
	Result             *MatchResult `json:"result,omitempty" db:"result"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}
