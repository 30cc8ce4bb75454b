package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/matchday/models"
)

func newMatchRequestFixture() (*fakeMatchRequestRepo, *fakeMatchRepo, *fakeNotificationRepo, MatchRequestService) {
	teamRepo := newFakeTeamRepo(
		&models.Team{ID: 1, Name: "North End", ManagerID: managerHome, Members: []int{managerHome}},
		&models.Team{ID: 2, Name: "South Side", ManagerID: managerAway, Members: []int{managerAway}},
	)
	matchRequestRepo := newFakeMatchRequestRepo()
	matchRepo := newFakeMatchRepo()
	notificationRepo := newFakeNotificationRepo()
	notifications := NewNotificationService(notificationRepo, nil, testLogger())
	dispatcher := NewDispatcher(notifications, testLogger())
	service := NewMatchRequestService(matchRequestRepo, matchRepo, teamRepo, dispatcher, nil, testLogger())
	return matchRequestRepo, matchRepo, notificationRepo, service
}

func proposal() ProposeMatchInput {
	return ProposeMatchInput{
		RequestingTeamID: 1,
		OpponentTeamID:   2,
		MatchTime:        time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC),
		Venue:            "Riverside Pitch",
		Format:           models.FormatTwoHalves,
	}
}

func TestProposeCreatesPendingRequest(t *testing.T) {
	_, _, notificationRepo, service := newMatchRequestFixture()

	request, err := service.Propose(context.Background(), managerHome, proposal())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if request.Status != models.MatchRequestPending {
		t.Errorf("status = %s, want pending", request.Status)
	}
	if request.RequestingTeamName != "North End" || request.OpponentTeamName != "South Side" {
		t.Errorf("team names = %q vs %q", request.RequestingTeamName, request.OpponentTeamName)
	}

	// The opponent's manager gets an inbox entry with the proposal details.
	inbox, _ := notificationRepo.ListForUser(context.Background(), managerAway)
	if len(inbox) != 1 {
		t.Fatalf("opponent manager inbox size = %d, want 1", len(inbox))
	}
	if inbox[0].Type != models.NotificationMatchRequest {
		t.Errorf("notification type = %s, want match_request", inbox[0].Type)
	}
}

func TestProposeValidation(t *testing.T) {
	_, _, _, service := newMatchRequestFixture()

	cases := []struct {
		name   string
		mutate func(*ProposeMatchInput)
		want   error
	}{
		{"self challenge", func(p *ProposeMatchInput) { p.OpponentTeamID = 1 }, ErrSelfChallenge},
		{"missing time", func(p *ProposeMatchInput) { p.MatchTime = time.Time{} }, ErrMatchTimeRequired},
		{"missing venue", func(p *ProposeMatchInput) { p.Venue = "" }, ErrVenueRequired},
		{"bad format", func(p *ProposeMatchInput) { p.Format = "3-thirds" }, ErrInvalidMatchFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := proposal()
			tc.mutate(&input)
			if _, err := service.Propose(context.Background(), managerHome, input); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestProposeRequiresRequestingManager(t *testing.T) {
	_, _, _, service := newMatchRequestFixture()

	if _, err := service.Propose(context.Background(), managerAway, proposal()); !errors.Is(err, ErrManagerActionForbidden) {
		t.Fatalf("err = %v, want ErrManagerActionForbidden", err)
	}
}

func TestProposeDuplicatePendingPair(t *testing.T) {
	_, _, _, service := newMatchRequestFixture()

	if _, err := service.Propose(context.Background(), managerHome, proposal()); err != nil {
		t.Fatalf("first Propose: %v", err)
	}
	if _, err := service.Propose(context.Background(), managerHome, proposal()); !errors.Is(err, ErrMatchRequestPending) {
		t.Fatalf("duplicate err = %v, want ErrMatchRequestPending", err)
	}

	// The reverse direction hits the same pair key.
	reverse := ProposeMatchInput{
		RequestingTeamID: 2,
		OpponentTeamID:   1,
		MatchTime:        proposal().MatchTime,
		Venue:            "South Side Ground",
		Format:           models.FormatFourQuarter,
	}
	if _, err := service.Propose(context.Background(), managerAway, reverse); !errors.Is(err, ErrMatchRequestPending) {
		t.Fatalf("reverse duplicate err = %v, want ErrMatchRequestPending", err)
	}
}

func TestProposeAgainAfterDecline(t *testing.T) {
	_, _, _, service := newMatchRequestFixture()

	request, err := service.Propose(context.Background(), managerHome, proposal())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if err := service.Decline(context.Background(), managerAway, request.ID); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	// A declined request no longer blocks the pair.
	if _, err := service.Propose(context.Background(), managerHome, proposal()); err != nil {
		t.Fatalf("Propose after decline: %v", err)
	}
}

func TestAcceptCreatesScheduledMatch(t *testing.T) {
	matchRequestRepo, matchRepo, _, service := newMatchRequestFixture()

	request, err := service.Propose(context.Background(), managerHome, proposal())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	match, err := service.Accept(context.Background(), managerAway, request.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if match.Status != models.MatchScheduled {
		t.Errorf("match status = %s, want scheduled", match.Status)
	}
	if match.RequestingTeamID != 1 || match.OpponentTeamID != 2 {
		t.Errorf("match teams = %d vs %d", match.RequestingTeamID, match.OpponentTeamID)
	}
	if match.Venue != "Riverside Pitch" || match.Format != models.FormatTwoHalves {
		t.Errorf("match details = %q %s", match.Venue, match.Format)
	}

	if matchRequestRepo.requests[request.ID].Status != models.MatchRequestAccepted {
		t.Errorf("request status = %s, want accepted", matchRequestRepo.requests[request.ID].Status)
	}
	if len(matchRepo.matches) != 1 {
		t.Errorf("matches stored = %d, want 1", len(matchRepo.matches))
	}
}

func TestAcceptRequiresOpponentManager(t *testing.T) {
	_, _, _, service := newMatchRequestFixture()

	request, err := service.Propose(context.Background(), managerHome, proposal())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	if _, err := service.Accept(context.Background(), managerHome, request.ID); !errors.Is(err, ErrManagerActionForbidden) {
		t.Fatalf("err = %v, want ErrManagerActionForbidden", err)
	}
}

func TestAcceptNonPendingRequest(t *testing.T) {
	_, _, _, service := newMatchRequestFixture()

	request, err := service.Propose(context.Background(), managerHome, proposal())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if err := service.Decline(context.Background(), managerAway, request.ID); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	if _, err := service.Accept(context.Background(), managerAway, request.ID); !errors.Is(err, ErrMatchRequestNotPending) {
		t.Fatalf("err = %v, want ErrMatchRequestNotPending", err)
	}
}

func TestListForTeamReturnsPendingOnly(t *testing.T) {
	_, _, _, service := newMatchRequestFixture()

	request, err := service.Propose(context.Background(), managerHome, proposal())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	pending, err := service.ListForTeam(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListForTeam: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != request.ID {
		t.Fatalf("pending = %+v, want the proposed request", pending)
	}

	if err := service.Decline(context.Background(), managerAway, request.ID); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	pending, err = service.ListForTeam(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListForTeam after decline: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after decline = %d, want 0", len(pending))
	}
}
