package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/matchday/models"
)

const freeAgent = 30

func newRequestFixture() (*fakeRequestRepo, *fakeTeamRepo, *fakeUserRepo, *fakeNotificationRepo, RequestService) {
	homeID := 1
	managerRole := models.RoleManager
	playerRole := models.RolePlayer
	teamRepo := newFakeTeamRepo(
		&models.Team{ID: 1, Name: "North End", ManagerID: managerHome, Members: []int{managerHome, playerOne}},
		&models.Team{ID: 2, Name: "South Side", ManagerID: managerAway, Members: []int{managerAway}},
	)
	userRepo := newFakeUserRepo(
		&models.User{ID: managerHome, DisplayName: "Ann", TeamID: &homeID, Role: &managerRole},
		&models.User{ID: playerOne, DisplayName: "Bo", TeamID: &homeID, Role: &playerRole},
		&models.User{ID: managerAway, DisplayName: "Dee"},
		&models.User{ID: freeAgent, DisplayName: "Flo"},
	)
	requestRepo := newFakeRequestRepo()
	notificationRepo := newFakeNotificationRepo()
	notifications := NewNotificationService(notificationRepo, nil, testLogger())
	dispatcher := NewDispatcher(notifications, testLogger())
	service := NewRequestService(requestRepo, teamRepo, userRepo, dispatcher, testLogger())
	return requestRepo, teamRepo, userRepo, notificationRepo, service
}

func TestApplicationRoutesToManager(t *testing.T) {
	_, _, _, notificationRepo, service := newRequestFixture()

	request, err := service.Send(context.Background(), freeAgent, SendRequestInput{
		Type:   models.RequestApplication,
		TeamID: 1,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if request.ToID != managerHome {
		t.Errorf("ToID = %d, want team manager %d", request.ToID, managerHome)
	}
	if request.FromName != "Flo" || request.TeamName != "North End" {
		t.Errorf("denormalized names = %q %q", request.FromName, request.TeamName)
	}

	inbox, _ := notificationRepo.ListForUser(context.Background(), managerHome)
	if len(inbox) != 1 || inbox[0].Type != models.NotificationRequest {
		t.Fatalf("manager inbox = %+v, want one request notification", inbox)
	}
}

func TestRecruitmentRequiresManager(t *testing.T) {
	_, _, _, _, service := newRequestFixture()

	input := SendRequestInput{
		Type:   models.RequestRecruitment,
		ToID:   freeAgent,
		TeamID: 1,
	}
	if _, err := service.Send(context.Background(), playerOne, input); !errors.Is(err, ErrManagerActionForbidden) {
		t.Fatalf("player recruiting err = %v, want ErrManagerActionForbidden", err)
	}

	request, err := service.Send(context.Background(), managerHome, input)
	if err != nil {
		t.Fatalf("manager recruiting: %v", err)
	}
	if request.ToID != freeAgent {
		t.Errorf("ToID = %d, want %d", request.ToID, freeAgent)
	}
}

func TestDuplicatePendingRequestRejected(t *testing.T) {
	_, _, _, _, service := newRequestFixture()

	input := SendRequestInput{Type: models.RequestApplication, TeamID: 1}
	if _, err := service.Send(context.Background(), freeAgent, input); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if _, err := service.Send(context.Background(), freeAgent, input); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("duplicate err = %v, want ErrRequestPending", err)
	}
}

func TestAcceptApplicationJoinsTeam(t *testing.T) {
	requestRepo, teamRepo, userRepo, notificationRepo, service := newRequestFixture()

	request, err := service.Send(context.Background(), freeAgent, SendRequestInput{
		Type:   models.RequestApplication,
		TeamID: 1,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := service.Accept(context.Background(), managerHome, request.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if requestRepo.requests[request.ID].Status != models.RequestAccepted {
		t.Errorf("status = %s, want accepted", requestRepo.requests[request.ID].Status)
	}
	if !teamRepo.teams[1].HasMember(freeAgent) {
		t.Errorf("members = %v, want to include %d", teamRepo.teams[1].Members, freeAgent)
	}
	player := userRepo.users[freeAgent]
	if player.TeamID == nil || *player.TeamID != 1 {
		t.Errorf("player team = %v, want 1", player.TeamID)
	}
	if player.Role == nil || *player.Role != models.RolePlayer {
		t.Errorf("player role = %v, want player", player.Role)
	}

	inbox, _ := notificationRepo.ListForUser(context.Background(), freeAgent)
	found := false
	for _, notification := range inbox {
		if notification.Type == models.NotificationTeamUpdate {
			found = true
		}
	}
	if !found {
		t.Errorf("player inbox = %+v, want a team_update notification", inbox)
	}
}

func TestAcceptReplayConverges(t *testing.T) {
	requestRepo, teamRepo, userRepo, _, service := newRequestFixture()

	request, err := service.Send(context.Background(), freeAgent, SendRequestInput{
		Type:   models.RequestApplication,
		TeamID: 1,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Simulate a crash after the status write: the request is accepted but
	// the roster and association writes never ran.
	if err := requestRepo.UpdateStatus(context.Background(), nil, request.ID, models.RequestAccepted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if err := service.Accept(context.Background(), managerHome, request.ID); err != nil {
		t.Fatalf("replayed Accept: %v", err)
	}
	if !teamRepo.teams[1].HasMember(freeAgent) {
		t.Errorf("members = %v, want to include %d", teamRepo.teams[1].Members, freeAgent)
	}
	if userRepo.users[freeAgent].TeamID == nil {
		t.Errorf("player association missing after replay")
	}

	// The append stays idempotent on a full replay.
	if err := service.Accept(context.Background(), managerHome, request.ID); err != nil {
		t.Fatalf("second replay: %v", err)
	}
	count := 0
	for _, member := range teamRepo.teams[1].Members {
		if member == freeAgent {
			count++
		}
	}
	if count != 1 {
		t.Errorf("member appears %d times, want 1", count)
	}
}

func TestAcceptEnforcesSingleTeam(t *testing.T) {
	_, _, _, _, service := newRequestFixture()

	// playerOne already belongs to team 1; South Side recruits them anyway.
	request, err := service.Send(context.Background(), managerAway, SendRequestInput{
		Type:   models.RequestRecruitment,
		ToID:   playerOne,
		TeamID: 2,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := service.Accept(context.Background(), playerOne, request.ID); !errors.Is(err, ErrUserAlreadyInTeam) {
		t.Fatalf("err = %v, want ErrUserAlreadyInTeam", err)
	}
}

func TestAcceptOnlyRecipient(t *testing.T) {
	_, _, _, _, service := newRequestFixture()

	request, err := service.Send(context.Background(), freeAgent, SendRequestInput{
		Type:   models.RequestApplication,
		TeamID: 1,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := service.Accept(context.Background(), freeAgent, request.ID); !errors.Is(err, ErrRecipientForbidden) {
		t.Fatalf("sender accepting err = %v, want ErrRecipientForbidden", err)
	}
	if err := service.Decline(context.Background(), managerAway, request.ID); !errors.Is(err, ErrRecipientForbidden) {
		t.Fatalf("outsider declining err = %v, want ErrRecipientForbidden", err)
	}
}

func TestDeclinedRequestCannotBeAccepted(t *testing.T) {
	_, _, _, _, service := newRequestFixture()

	request, err := service.Send(context.Background(), freeAgent, SendRequestInput{
		Type:   models.RequestApplication,
		TeamID: 1,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := service.Decline(context.Background(), managerHome, request.ID); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if err := service.Accept(context.Background(), managerHome, request.ID); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("err = %v, want ErrRequestNotPending", err)
	}
}

func TestSendRejectsUnknownType(t *testing.T) {
	_, _, _, _, service := newRequestFixture()

	if _, err := service.Send(context.Background(), freeAgent, SendRequestInput{Type: "transfer", TeamID: 1}); !errors.Is(err, ErrInvalidRequestType) {
		t.Fatalf("err = %v, want ErrInvalidRequestType", err)
	}
}
