package models

import "testing"

func TestTeamPairKeyIsOrderInsensitive(t *testing.T) {
	if TeamPairKey(3, 7) != TeamPairKey(7, 3) {
		t.Errorf("pair key depends on argument order: %q vs %q", TeamPairKey(3, 7), TeamPairKey(7, 3))
	}
	if got := TeamPairKey(7, 3); got != "3_7" {
		t.Errorf("TeamPairKey(7, 3) = %q, want 3_7", got)
	}
	if TeamPairKey(1, 2) == TeamPairKey(1, 3) {
		t.Error("distinct pairs collide")
	}
}

func TestGoalsTotal(t *testing.T) {
	result := MatchResult{
		Score: [2]int{3, 2},
		Scorers: []ScorerEntry{
			{PlayerID: 1, Count: 2},
			{PlayerID: 2, Count: 1},
			{PlayerID: 9, Count: 2},
		},
	}
	if got := result.GoalsTotal(); got != 5 {
		t.Errorf("GoalsTotal = %d, want 5", got)
	}

	empty := MatchResult{}
	if got := empty.GoalsTotal(); got != 0 {
		t.Errorf("empty GoalsTotal = %d, want 0", got)
	}
}

func TestRequestPlayerID(t *testing.T) {
	application := Request{Type: RequestApplication, FromID: 5, ToID: 9}
	if got := application.PlayerID(); got != 5 {
		t.Errorf("application player = %d, want sender 5", got)
	}

	recruitment := Request{Type: RequestRecruitment, FromID: 9, ToID: 5}
	if got := recruitment.PlayerID(); got != 5 {
		t.Errorf("recruitment player = %d, want recipient 5", got)
	}
}
