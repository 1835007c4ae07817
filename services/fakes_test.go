package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
)

// The services only use *sql.DB to open and close transactions; every
// statement goes through the repository interfaces. An inert driver
// lets the fakes below stand in for postgres.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubDriver sync.Once

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB() *sql.DB {
	registerStubDriver.Do(func() { sql.Register("stub", stubDriver{}) })
	db, err := sql.Open("stub", "")
	if err != nil {
		panic(err)
	}
	return db
}

type fakeEventRepo struct {
	events map[int]*models.Event
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[int]*models.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	r.events[event.ID] = event
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) List(_ context.Context, _, _ int) ([]*models.Event, error) {
	out := make([]*models.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	if _, ok := r.events[event.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	r.events[event.ID] = event
	return nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id int, status models.EventStatus) error {
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.Status = status
	return nil
}

func (r *fakeEventRepo) IncrementParticipants(_ context.Context, _ repositories.SQLExecutor, id int, delta int) error {
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	next := event.CurrentParticipants + delta
	if next < 0 || next > event.MaxParticipants {
		return repositories.ErrEventAtCapacity
	}
	event.CurrentParticipants = next
	return nil
}

func (r *fakeEventRepo) ListDueForStatusChange(_ context.Context, now time.Time) ([]*models.Event, error) {
	out := make([]*models.Event, 0)
	for _, e := range r.events {
		switch {
		case e.Status == models.EventStatusDraft && !e.RegDate.After(now),
			e.Status == models.EventStatusRegistration && !e.StartDate.After(now),
			e.Status == models.EventStatusActive && !e.EndDate.After(now):
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

type fakeTeamRepo struct {
	nextID  int
	teams   map[int]*models.Team
	members map[int][]models.User
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		nextID:  1,
		teams:   make(map[int]*models.Team),
		members: make(map[int][]models.User),
	}
}

func (r *fakeTeamRepo) add(team *models.Team) *models.Team {
	if team.ID == 0 {
		team.ID = r.nextID
		r.nextID++
	} else if team.ID >= r.nextID {
		r.nextID = team.ID + 1
	}
	r.teams[team.ID] = team
	return team
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.add(team)
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) ListByEvent(_ context.Context, eventID int) ([]*models.Team, error) {
	out := make([]*models.Team, 0)
	for _, t := range r.teams {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTeamRepo) ListByGroup(_ context.Context, groupID int) ([]*models.Team, error) {
	out := make([]*models.Team, 0)
	for _, t := range r.teams {
		if t.GroupID != nil && *t.GroupID == groupID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].AverageRating, out[j].AverageRating
		switch {
		case ri == nil && rj == nil:
			return out[i].ID < out[j].ID
		case ri == nil:
			return false
		case rj == nil:
			return true
		case *ri != *rj:
			return *ri > *rj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeTeamRepo) UpdateStatus(_ context.Context, id int, status models.TeamStatus) error {
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Status = status
	return nil
}

func (r *fakeTeamRepo) UpdateAverageRating(_ context.Context, id int, rating *float64) error {
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.AverageRating = rating
	return nil
}

func (r *fakeTeamRepo) AssignGroup(_ context.Context, _ repositories.SQLExecutor, teamID int, groupID *int) error {
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.GroupID = groupID
	return nil
}

func (r *fakeTeamRepo) DetachGroupByEvent(_ context.Context, _ repositories.SQLExecutor, eventID int) error {
	for _, t := range r.teams {
		if t.EventID == eventID {
			t.GroupID = nil
		}
	}
	return nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, teamID, userID int) error {
	for _, m := range r.members[teamID] {
		if m.ID == userID {
			return repositories.ErrTeamMemberExists
		}
	}
	r.members[teamID] = append(r.members[teamID], models.User{ID: userID})
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID int) error {
	members := r.members[teamID]
	for i, m := range members {
		if m.ID == userID {
			r.members[teamID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamMemberInvalid
}

func (r *fakeTeamRepo) ListMembers(_ context.Context, teamID int) ([]models.User, error) {
	return append([]models.User(nil), r.members[teamID]...), nil
}

func (r *fakeTeamRepo) CountMembers(_ context.Context, teamID int) (int, error) {
	return len(r.members[teamID]), nil
}

func (r *fakeTeamRepo) IsMember(_ context.Context, teamID, userID int) (bool, error) {
	for _, m := range r.members[teamID] {
		if m.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

type fakeGroupRepo struct {
	nextID int
	groups map[int]*models.MatchGroup
	teams  *fakeTeamRepo
}

func newFakeGroupRepo(teams *fakeTeamRepo) *fakeGroupRepo {
	return &fakeGroupRepo{nextID: 1, groups: make(map[int]*models.MatchGroup), teams: teams}
}

func (r *fakeGroupRepo) Create(_ context.Context, _ repositories.SQLExecutor, group *models.MatchGroup) error {
	group.ID = r.nextID
	r.nextID++
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id int) (*models.MatchGroup, error) {
	group, ok := r.groups[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	copied := *group
	return &copied, nil
}

func (r *fakeGroupRepo) ListByEvent(_ context.Context, eventID int) ([]*models.MatchGroup, error) {
	out := make([]*models.MatchGroup, 0)
	for _, g := range r.groups {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *fakeGroupRepo) UpdateCourtNumbers(_ context.Context, id int, courtNumbers string) error {
	group, ok := r.groups[id]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	group.CourtNumbers = courtNumbers
	return nil
}

func (r *fakeGroupRepo) RefreshTeamCount(_ context.Context, _ repositories.SQLExecutor, id int) error {
	group, ok := r.groups[id]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	count := 0
	for _, t := range r.teams.teams {
		if t.GroupID != nil && *t.GroupID == id {
			count++
		}
	}
	group.TeamCount = count
	return nil
}

func (r *fakeGroupRepo) SetFinalized(_ context.Context, id int, finalized bool) error {
	group, ok := r.groups[id]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	group.Finalized = finalized
	return nil
}

func (r *fakeGroupRepo) DeleteByEvent(_ context.Context, _ repositories.SQLExecutor, eventID int) error {
	for id, g := range r.groups {
		if g.EventID == eventID {
			delete(r.groups, id)
		}
	}
	return nil
}

func (r *fakeGroupRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.groups[id]; !ok {
		return repositories.ErrGroupNotFound
	}
	delete(r.groups, id)
	return nil
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
	groups  *fakeGroupRepo
}

func newFakeMatchRepo(groups *fakeGroupRepo) *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match), groups: groups}
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.ID = r.nextID
	r.nextID++
	r.matches[match.ID] = match
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) ListByGroup(_ context.Context, groupID int) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchOrder < out[j].MatchOrder })
	return out, nil
}

func (r *fakeMatchRepo) ListByEvent(_ context.Context, eventID int) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if g, ok := r.groups.groups[m.GroupID]; ok && g.EventID == eventID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) UpdateScoreLine(_ context.Context, id int, scoreA, scoreB int, teamAWin, teamBWin, verified bool) error {
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.ScoreA, match.ScoreB = scoreA, scoreB
	match.TeamAWin, match.TeamBWin = teamAWin, teamBWin
	match.Verified = verified
	return nil
}

func (r *fakeMatchRepo) SetVerified(_ context.Context, id int, verified bool) error {
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Verified = verified
	return nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, id int, status models.MatchStatus) error {
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Status = status
	return nil
}

func (r *fakeMatchRepo) DeleteByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) error {
	for id, m := range r.matches {
		if m.GroupID == groupID {
			delete(r.matches, id)
		}
	}
	return nil
}

func (r *fakeMatchRepo) DeleteByEvent(_ context.Context, _ repositories.SQLExecutor, eventID int) error {
	for id, m := range r.matches {
		if g, ok := r.groups.groups[m.GroupID]; ok && g.EventID == eventID {
			delete(r.matches, id)
		}
	}
	return nil
}

type ratingKey struct {
	userID  int
	sportID int
	format  models.MatchFormat
}

type fakeRatingRepo struct {
	nextID  int
	ratings map[ratingKey]*models.PlayerSportRating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{nextID: 1, ratings: make(map[ratingKey]*models.PlayerSportRating)}
}

func (r *fakeRatingRepo) Create(_ context.Context, rating *models.PlayerSportRating) error {
	key := ratingKey{rating.UserID, rating.SportID, rating.Format}
	if _, ok := r.ratings[key]; ok {
		return repositories.ErrRatingConflict
	}
	rating.ID = r.nextID
	r.nextID++
	r.ratings[key] = rating
	return nil
}

func (r *fakeRatingRepo) GetByID(_ context.Context, id int) (*models.PlayerSportRating, error) {
	for _, rating := range r.ratings {
		if rating.ID == id {
			copied := *rating
			return &copied, nil
		}
	}
	return nil, repositories.ErrRatingNotFound
}

func (r *fakeRatingRepo) Get(_ context.Context, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error) {
	rating, ok := r.ratings[ratingKey{userID, sportID, format}]
	if !ok {
		return nil, repositories.ErrRatingNotFound
	}
	copied := *rating
	return &copied, nil
}

func (r *fakeRatingRepo) GetForUpdate(ctx context.Context, _ repositories.SQLExecutor, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error) {
	return r.Get(ctx, userID, sportID, format)
}

func (r *fakeRatingRepo) Update(_ context.Context, _ repositories.SQLExecutor, rating *models.PlayerSportRating) error {
	key := ratingKey{rating.UserID, rating.SportID, rating.Format}
	if _, ok := r.ratings[key]; !ok {
		return repositories.ErrRatingNotFound
	}
	copied := *rating
	r.ratings[key] = &copied
	return nil
}

func (r *fakeRatingRepo) ListByUser(_ context.Context, userID int) ([]*models.PlayerSportRating, error) {
	out := make([]*models.PlayerSportRating, 0)
	for _, rating := range r.ratings {
		if rating.UserID == userID {
			out = append(out, rating)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	entries []*models.RatingHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, _ repositories.SQLExecutor, entry *models.RatingHistory) error {
	entry.ID = len(r.entries) + 1
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) ListByUser(_ context.Context, userID, _ int) ([]*models.RatingHistory, error) {
	out := make([]*models.RatingHistory, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) ListByMatch(_ context.Context, matchID int) ([]*models.RatingHistory, error) {
	out := make([]*models.RatingHistory, 0)
	for _, e := range r.entries {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = len(r.users) + 1
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	delete(r.users, id)
	return nil
}

type fakeWaitListRepo struct {
	nextID  int
	entries []*models.WaitListEntry
}

func newFakeWaitListRepo() *fakeWaitListRepo {
	return &fakeWaitListRepo{nextID: 1}
}

func (r *fakeWaitListRepo) Create(_ context.Context, entry *models.WaitListEntry) error {
	maxPos := 0
	for _, e := range r.entries {
		if e.EventID == entry.EventID {
			if e.UserID == entry.UserID {
				return repositories.ErrWaitListDuplicate
			}
			if e.Position > maxPos {
				maxPos = e.Position
			}
		}
	}
	entry.ID = r.nextID
	r.nextID++
	entry.Position = maxPos + 1
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeWaitListRepo) GetByID(_ context.Context, id int) (*models.WaitListEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, repositories.ErrWaitListEntryNotFound
}

func (r *fakeWaitListRepo) ListWaitingByEvent(_ context.Context, eventID int) ([]*models.WaitListEntry, error) {
	out := make([]*models.WaitListEntry, 0)
	for _, e := range r.entries {
		if e.EventID == eventID && e.Status == models.WaitListStatusWaiting {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeWaitListRepo) NextWaitingForUpdate(ctx context.Context, _ repositories.SQLExecutor, eventID int) (*models.WaitListEntry, error) {
	waiting, _ := r.ListWaitingByEvent(ctx, eventID)
	if len(waiting) == 0 {
		return nil, repositories.ErrWaitListEntryNotFound
	}
	return waiting[0], nil
}

func (r *fakeWaitListRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.WaitListStatus) error {
	for _, e := range r.entries {
		if e.ID == id {
			e.Status = status
			return nil
		}
	}
	return repositories.ErrWaitListEntryNotFound
}

type fakeEmailSender struct {
	promotions []string
	statuses   []string
}

func (f *fakeEmailSender) SendWaitListPromotionEmail(userEmail, eventName string) error {
	f.promotions = append(f.promotions, userEmail+":"+eventName)
	return nil
}

func (f *fakeEmailSender) SendEventStatusEmail(userEmail, eventName, status string) error {
	f.statuses = append(f.statuses, userEmail+":"+eventName+":"+status)
	return nil
}
