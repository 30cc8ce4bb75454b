package services

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner executes the callback directly. Setting contentionRuns makes
// the first N runs fail with the contention sentinel.
type fakeTxRunner struct {
	contentionRuns int
	runs           int
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.runs++
	if f.runs <= f.contentionRuns {
		return repositories.ErrStoreContention
	}
	return fn(nil)
}

type fakeTeamRepo struct {
	teams  map[int]*models.Team
	nextID int
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	repo := &fakeTeamRepo{teams: make(map[int]*models.Team), nextID: 1}
	for _, team := range teams {
		if team.ID >= repo.nextID {
			repo.nextID = team.ID + 1
		}
		repo.teams[team.ID] = team
	}
	return repo
}

func (f *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	team.ID = f.nextID
	f.nextID++
	f.teams[team.ID] = team
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, ok := f.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	copied.Members = append([]int(nil), team.Members...)
	return &copied, nil
}

func (f *fakeTeamRepo) UpdateName(ctx context.Context, id int, name string) error {
	team, ok := f.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Name = name
	return nil
}

func (f *fakeTeamRepo) UpdateLogoKey(ctx context.Context, id int, key *string) error {
	team, ok := f.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = key
	return nil
}

func (f *fakeTeamRepo) UpdateCoverKey(ctx context.Context, id int, key *string) error {
	team, ok := f.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.CoverKey = key
	return nil
}

func (f *fakeTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	team, ok := f.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	for _, member := range team.Members {
		if member == userID {
			return nil
		}
	}
	team.Members = append(team.Members, userID)
	return nil
}

func (f *fakeTeamRepo) RemoveMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	team, ok := f.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	members := team.Members[:0]
	for _, member := range team.Members {
		if member != userID {
			members = append(members, member)
		}
	}
	team.Members = members
	return nil
}

func (f *fakeTeamRepo) AddPoints(ctx context.Context, exec repositories.SQLExecutor, teamID, points int) error {
	team, ok := f.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Points += points
	return nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []int) ([]*models.User, error) {
	var users []*models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			copied := *user
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUserRepo) SetTeam(ctx context.Context, exec repositories.SQLExecutor, userID int, teamID *int, role *models.UserRole) error {
	user, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.TeamID = teamID
	user.Role = role
	return nil
}

func (f *fakeUserRepo) AddGoals(ctx context.Context, exec repositories.SQLExecutor, userID int, count int) error {
	user, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Goals += count
	return nil
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	repo := &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
	for _, match := range matches {
		if match.ID >= repo.nextID {
			repo.nextID = match.ID + 1
		}
		repo.matches[match.ID] = match
	}
	return repo
}

func (f *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	match.ID = f.nextID
	f.nextID++
	f.matches[match.ID] = match
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (f *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeMatchRepo) ListForTeam(ctx context.Context, teamID int) ([]*models.Match, error) {
	var matches []*models.Match
	for _, match := range f.matches {
		if match.RequestingTeamID == teamID || match.OpponentTeamID == teamID {
			copied := *match
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID > matches[j].ID })
	return matches, nil
}

func (f *fakeMatchRepo) SetResult(ctx context.Context, id int, result *models.MatchResult) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if match.Status != models.MatchScheduled && match.Status != models.MatchPendingConfirmation {
		return repositories.ErrMatchStatusStale
	}
	match.Result = result
	match.Status = models.MatchPendingConfirmation
	return nil
}

func (f *fakeMatchRepo) SetStatusGuarded(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.MatchStatus) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if match.Status != from {
		return repositories.ErrMatchStatusStale
	}
	match.Status = to
	return nil
}

type fakeMatchRequestRepo struct {
	requests map[int]*models.MatchRequest
	nextID   int
}

func newFakeMatchRequestRepo(requests ...*models.MatchRequest) *fakeMatchRequestRepo {
	repo := &fakeMatchRequestRepo{requests: make(map[int]*models.MatchRequest), nextID: 1}
	for _, request := range requests {
		if request.ID >= repo.nextID {
			repo.nextID = request.ID + 1
		}
		if request.PairKey == "" {
			request.PairKey = models.TeamPairKey(request.RequestingTeamID, request.OpponentTeamID)
		}
		repo.requests[request.ID] = request
	}
	return repo
}

func (f *fakeMatchRequestRepo) Create(ctx context.Context, request *models.MatchRequest) error {
	request.PairKey = models.TeamPairKey(request.RequestingTeamID, request.OpponentTeamID)
	for _, existing := range f.requests {
		if existing.Status == models.MatchRequestPending && existing.PairKey == request.PairKey {
			return repositories.ErrMatchRequestPairPending
		}
	}
	request.ID = f.nextID
	f.nextID++
	f.requests[request.ID] = request
	return nil
}

func (f *fakeMatchRequestRepo) GetByID(ctx context.Context, id int) (*models.MatchRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, repositories.ErrMatchRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (f *fakeMatchRequestRepo) ListPendingForOpponent(ctx context.Context, teamID int) ([]*models.MatchRequest, error) {
	var requests []*models.MatchRequest
	for _, request := range f.requests {
		if request.OpponentTeamID == teamID && request.Status == models.MatchRequestPending {
			copied := *request
			requests = append(requests, &copied)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })
	return requests, nil
}

func (f *fakeMatchRequestRepo) UpdateStatus(ctx context.Context, id int, status models.MatchRequestStatus) error {
	request, ok := f.requests[id]
	if !ok {
		return repositories.ErrMatchRequestNotFound
	}
	request.Status = status
	return nil
}

type fakeRequestRepo struct {
	requests map[int]*models.Request
	nextID   int
}

func newFakeRequestRepo(requests ...*models.Request) *fakeRequestRepo {
	repo := &fakeRequestRepo{requests: make(map[int]*models.Request), nextID: 1}
	for _, request := range requests {
		if request.ID >= repo.nextID {
			repo.nextID = request.ID + 1
		}
		repo.requests[request.ID] = request
	}
	return repo
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *models.Request) error {
	for _, existing := range f.requests {
		if existing.Status == models.RequestPending &&
			existing.FromID == request.FromID &&
			existing.ToID == request.ToID &&
			existing.TeamID == request.TeamID {
			return repositories.ErrRequestTriplePending
		}
	}
	request.ID = f.nextID
	f.nextID++
	f.requests[request.ID] = request
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id int) (*models.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestRepo) ListPendingForUser(ctx context.Context, userID int) ([]*models.Request, error) {
	var requests []*models.Request
	for _, request := range f.requests {
		if request.ToID == userID && request.Status == models.RequestPending {
			copied := *request
			requests = append(requests, &copied)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })
	return requests, nil
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RequestStatus) error {
	request, ok := f.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	request.Status = status
	return nil
}

type fakeNotificationRepo struct {
	notifications map[int]*models.Notification
	nextID        int
	failCreate    error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[int]*models.Notification), nextID: 1}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	notification.ID = f.nextID
	f.nextID++
	f.notifications[notification.ID] = notification
	return nil
}

func (f *fakeNotificationRepo) ListForUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	var notifications []*models.Notification
	for _, notification := range f.notifications {
		if notification.UserID == userID {
			copied := *notification
			notifications = append(notifications, &copied)
		}
	}
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID > notifications[j].ID })
	return notifications, nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	notification, ok := f.notifications[id]
	if !ok {
		return nil, repositories.ErrNotificationNotFound
	}
	copied := *notification
	return &copied, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID int) (models.NotificationType, error) {
	notification, ok := f.notifications[id]
	if !ok || notification.UserID != userID {
		return "", repositories.ErrNotificationNotFound
	}
	notification.IsRead = true
	return notification.Type, nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int, typ models.NotificationType) (int64, error) {
	var updated int64
	for _, notification := range f.notifications {
		if notification.UserID == userID && notification.Type == typ && !notification.IsRead {
			notification.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (f *fakeNotificationRepo) UnreadCount(ctx context.Context, userID int, typ models.NotificationType) (int, error) {
	count := 0
	for _, notification := range f.notifications {
		if notification.UserID == userID && notification.Type == typ && !notification.IsRead {
			count++
		}
	}
	return count, nil
}
