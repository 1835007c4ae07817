package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/courtly/club-system/live"
	"github.com/courtly/club-system/models"
)

type scheduleFixture struct {
	svc       ScheduleService
	teamRepo  *fakeTeamRepo
	groupRepo *fakeGroupRepo
	matchRepo *fakeMatchRepo
}

func newScheduleFixture(event *models.Event) *scheduleFixture {
	eventRepo := newFakeEventRepo(event)
	teamRepo := newFakeTeamRepo()
	groupRepo := newFakeGroupRepo(teamRepo)
	matchRepo := newFakeMatchRepo(groupRepo)
	svc := NewScheduleService(newTestDB(), eventRepo, teamRepo, groupRepo, matchRepo,
		live.NewHub(), NewEventLocker(), testLogger())
	return &scheduleFixture{svc, teamRepo, groupRepo, matchRepo}
}

func (f *scheduleFixture) addGroupWithTeams(eventID, teamCount int) *models.MatchGroup {
	group := &models.MatchGroup{EventID: eventID}
	if err := f.groupRepo.Create(context.Background(), nil, group); err != nil {
		panic(err)
	}
	for i := 0; i < teamCount; i++ {
		f.teamRepo.add(&models.Team{
			EventID: eventID,
			Status:  models.TeamStatusCheckedIn,
			GroupID: &group.ID,
		})
	}
	return group
}

func TestScheduleGroupRoundRobin(t *testing.T) {
	tests := []struct {
		teams       int
		wantMatches int
	}{
		{teams: 0, wantMatches: 0},
		{teams: 1, wantMatches: 0},
		{teams: 2, wantMatches: 1},
		{teams: 4, wantMatches: 6},
		{teams: 5, wantMatches: 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d teams", tt.teams), func(t *testing.T) {
			f := newScheduleFixture(&models.Event{ID: 1, Status: models.EventStatusActive})
			group := f.addGroupWithTeams(1, tt.teams)

			created, err := f.svc.ScheduleGroup(context.Background(), group)
			if err != nil {
				t.Fatalf("ScheduleGroup: %v", err)
			}
			if created != tt.wantMatches {
				t.Fatalf("created = %d, want %d", created, tt.wantMatches)
			}

			matches, _ := f.matchRepo.ListByGroup(context.Background(), group.ID)
			if len(matches) != tt.wantMatches {
				t.Fatalf("stored matches = %d, want %d", len(matches), tt.wantMatches)
			}

			// Every unordered pair exactly once, orders contiguous from 1.
			seen := make(map[[2]int]bool)
			for i, match := range matches {
				if match.MatchOrder != i+1 {
					t.Errorf("match %d order = %d, want %d", match.ID, match.MatchOrder, i+1)
				}
				if match.Status != models.MatchStatusScheduled {
					t.Errorf("match %d status = %q, want scheduled", match.ID, match.Status)
				}
				a, b := match.TeamAID, match.TeamBID
				if a == b {
					t.Errorf("match %d pairs team %d with itself", match.ID, a)
				}
				if b < a {
					a, b = b, a
				}
				key := [2]int{a, b}
				if seen[key] {
					t.Errorf("pair %v scheduled twice", key)
				}
				seen[key] = true
			}
		})
	}
}

func TestScheduleGroupReplacesExistingMatches(t *testing.T) {
	f := newScheduleFixture(&models.Event{ID: 1, Status: models.EventStatusActive})
	group := f.addGroupWithTeams(1, 3)

	if _, err := f.svc.ScheduleGroup(context.Background(), group); err != nil {
		t.Fatalf("first ScheduleGroup: %v", err)
	}
	first, _ := f.matchRepo.ListByGroup(context.Background(), group.ID)

	if _, err := f.svc.ScheduleGroup(context.Background(), group); err != nil {
		t.Fatalf("second ScheduleGroup: %v", err)
	}
	second, _ := f.matchRepo.ListByGroup(context.Background(), group.ID)
	if len(second) != 3 {
		t.Fatalf("matches after rebuild = %d, want 3", len(second))
	}
	for _, old := range first {
		for _, m := range second {
			if m.ID == old.ID {
				t.Errorf("match %d survived the rebuild", old.ID)
			}
		}
	}
}

func TestScheduleGroupByID(t *testing.T) {
	f := newScheduleFixture(&models.Event{ID: 1, Status: models.EventStatusActive})
	group := f.addGroupWithTeams(1, 3)

	created, err := f.svc.ScheduleGroupByID(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("ScheduleGroupByID: %v", err)
	}
	if created != 3 {
		t.Fatalf("created = %d, want 3", created)
	}

	if _, err := f.svc.ScheduleGroupByID(context.Background(), 99); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("unknown group error = %v, want %v", err, ErrGroupNotFound)
	}
}

func TestScheduleEvent(t *testing.T) {
	f := newScheduleFixture(&models.Event{ID: 1, Status: models.EventStatusActive})
	g1 := f.addGroupWithTeams(1, 4)
	g2 := f.addGroupWithTeams(1, 3)

	if err := f.svc.ScheduleEvent(context.Background(), 1); err != nil {
		t.Fatalf("ScheduleEvent: %v", err)
	}

	m1, _ := f.matchRepo.ListByGroup(context.Background(), g1.ID)
	m2, _ := f.matchRepo.ListByGroup(context.Background(), g2.ID)
	if len(m1) != 6 {
		t.Errorf("group 1 matches = %d, want 6", len(m1))
	}
	if len(m2) != 3 {
		t.Errorf("group 2 matches = %d, want 3", len(m2))
	}

	if err := f.svc.ScheduleEvent(context.Background(), 99); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("unknown event error = %v, want %v", err, ErrEventNotFound)
	}
}
