package services

import (
	"context"
	"errors"
	"testing"

	"github.com/courtly/club-system/models"
)

type teamFixture struct {
	svc        TeamService
	eventRepo  *fakeEventRepo
	teamRepo   *fakeTeamRepo
	ratingRepo *fakeRatingRepo
}

func newTeamFixture(event *models.Event) *teamFixture {
	eventRepo := newFakeEventRepo(event)
	teamRepo := newFakeTeamRepo()
	ratingRepo := newFakeRatingRepo()
	svc := NewTeamService(newTestDB(), eventRepo, teamRepo, ratingRepo, testLogger())
	return &teamFixture{svc, eventRepo, teamRepo, ratingRepo}
}

func registrationEvent(format models.MatchFormat) *models.Event {
	return &models.Event{
		ID:              1,
		SportID:         1,
		Format:          format,
		Status:          models.EventStatusRegistration,
		MaxParticipants: 4,
	}
}

func TestTeamRegister(t *testing.T) {
	f := newTeamFixture(registrationEvent(models.FormatDoubles))

	team, err := f.svc.Register(context.Background(), 1, "  Smash Bros  ", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if team.Name != "Smash Bros" {
		t.Errorf("name = %q, want trimmed %q", team.Name, "Smash Bros")
	}
	if team.TeamSize != 2 {
		t.Errorf("doubles team size = %d, want 2", team.TeamSize)
	}
	if team.Status != models.TeamStatusRegistered {
		t.Errorf("status = %q, want registered", team.Status)
	}
}

func TestTeamRegisterRejections(t *testing.T) {
	closed := registrationEvent(models.FormatSingles)
	closed.Status = models.EventStatusActive

	tests := []struct {
		name     string
		event    *models.Event
		teamName string
		declared int
		wantErr  error
	}{
		{name: "blank name", event: registrationEvent(models.FormatSingles), teamName: "   ", wantErr: ErrTeamNameRequired},
		{name: "registration closed", event: closed, teamName: "Late", wantErr: ErrInvalidStatusChange},
		{name: "open format needs a size", event: registrationEvent(models.FormatOpen), teamName: "Squad", declared: 0, wantErr: ErrInvalidTeamSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTeamFixture(tt.event)
			if _, err := f.svc.Register(context.Background(), 1, tt.teamName, tt.declared); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddMemberClaimsParticipantSlot(t *testing.T) {
	f := newTeamFixture(registrationEvent(models.FormatDoubles))
	ctx := context.Background()

	team, err := f.svc.Register(ctx, 1, "Pair", 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.AddMember(ctx, team.ID, 10); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if got, _ := f.eventRepo.GetByID(ctx, 1); got.CurrentParticipants != 1 {
		t.Errorf("participants = %d, want 1", got.CurrentParticipants)
	}

	// A failed roster insert releases the claimed slot again.
	if err := f.svc.AddMember(ctx, team.ID, 10); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("duplicate member error = %v, want %v", err, ErrValidationFailed)
	}
	if got, _ := f.eventRepo.GetByID(ctx, 1); got.CurrentParticipants != 1 {
		t.Errorf("participants after failed add = %d, want 1", got.CurrentParticipants)
	}

	if err := f.svc.AddMember(ctx, team.ID, 11); err != nil {
		t.Fatalf("second AddMember: %v", err)
	}
	if err := f.svc.AddMember(ctx, team.ID, 12); !errors.Is(err, ErrTeamFull) {
		t.Errorf("overfull roster error = %v, want %v", err, ErrTeamFull)
	}
}

func TestAddMemberAtEventCapacity(t *testing.T) {
	event := registrationEvent(models.FormatSingles)
	event.MaxParticipants = 1
	event.CurrentParticipants = 1
	f := newTeamFixture(event)
	ctx := context.Background()

	team, err := f.svc.Register(ctx, 1, "Solo", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.AddMember(ctx, team.ID, 10); !errors.Is(err, ErrEventFull) {
		t.Fatalf("AddMember error = %v, want %v", err, ErrEventFull)
	}
}

func TestCheckInRequiresFullRoster(t *testing.T) {
	f := newTeamFixture(registrationEvent(models.FormatDoubles))
	ctx := context.Background()

	team, err := f.svc.Register(ctx, 1, "Pair", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.AddMember(ctx, team.ID, 10); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.CheckIn(ctx, team.ID); !errors.Is(err, ErrInvalidTeamSize) {
		t.Fatalf("check-in with partial roster error = %v, want %v", err, ErrInvalidTeamSize)
	}

	if err := f.svc.AddMember(ctx, team.ID, 11); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.CheckIn(ctx, team.ID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	got, _ := f.teamRepo.GetByID(ctx, team.ID)
	if got.Status != models.TeamStatusCheckedIn {
		t.Errorf("status = %q, want checked_in", got.Status)
	}

	if err := f.svc.CheckIn(ctx, team.ID); !errors.Is(err, ErrInvalidStatusChange) {
		t.Errorf("repeat check-in error = %v, want %v", err, ErrInvalidStatusChange)
	}
}

func TestWithdrawReleasesSlots(t *testing.T) {
	f := newTeamFixture(registrationEvent(models.FormatDoubles))
	ctx := context.Background()

	team, err := f.svc.Register(ctx, 1, "Pair", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.AddMember(ctx, team.ID, 10); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.AddMember(ctx, team.ID, 11); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Withdraw(ctx, team.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got, _ := f.eventRepo.GetByID(ctx, 1); got.CurrentParticipants != 0 {
		t.Errorf("participants after withdrawal = %d, want 0", got.CurrentParticipants)
	}
	if err := f.svc.Withdraw(ctx, team.ID); !errors.Is(err, ErrInvalidStatusChange) {
		t.Errorf("repeat withdraw error = %v, want %v", err, ErrInvalidStatusChange)
	}
}

func TestRefreshAverageRating(t *testing.T) {
	f := newTeamFixture(registrationEvent(models.FormatDoubles))
	ctx := context.Background()

	team, err := f.svc.Register(ctx, 1, "Pair", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.AddMember(ctx, team.ID, 10); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.AddMember(ctx, team.ID, 11); err != nil {
		t.Fatal(err)
	}

	// No rated members yet: the team stays unrated and seeds last.
	got, _ := f.teamRepo.GetByID(ctx, team.ID)
	if got.AverageRating != nil {
		t.Fatalf("average = %v, want nil with no rated members", *got.AverageRating)
	}

	if err := f.ratingRepo.Create(ctx, &models.PlayerSportRating{UserID: 10, SportID: 1, Format: models.FormatDoubles, Rating: 1400}); err != nil {
		t.Fatal(err)
	}
	if err := f.ratingRepo.Create(ctx, &models.PlayerSportRating{UserID: 11, SportID: 1, Format: models.FormatDoubles, Rating: 1600}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.RefreshAverageRating(ctx, team.ID); err != nil {
		t.Fatalf("RefreshAverageRating: %v", err)
	}
	got, _ = f.teamRepo.GetByID(ctx, team.ID)
	if got.AverageRating == nil || *got.AverageRating != 1500 {
		t.Fatalf("average = %v, want 1500", got.AverageRating)
	}
}
