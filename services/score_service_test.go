package services

import (
	"context"
	"errors"
	"testing"

	"github.com/courtly/club-system/live"
	"github.com/courtly/club-system/models"
)

type fakeRatingUpdater struct {
	applied []int
	err     error
}

func (f *fakeRatingUpdater) ApplyMatchResult(_ context.Context, _ *models.Event, match *models.Match) error {
	f.applied = append(f.applied, match.ID)
	return f.err
}

type scoreFixture struct {
	svc       ScoreService
	teamRepo  *fakeTeamRepo
	matchRepo *fakeMatchRepo
	updater   *fakeRatingUpdater
	match     *models.Match
}

// newScoreFixture builds a singles event with one scheduled match
// between user 10 (team A) and user 20 (team B).
func newScoreFixture(t *testing.T) *scoreFixture {
	t.Helper()
	ctx := context.Background()

	event := &models.Event{ID: 1, Format: models.FormatSingles, Status: models.EventStatusActive}
	eventRepo := newFakeEventRepo(event)
	teamRepo := newFakeTeamRepo()
	groupRepo := newFakeGroupRepo(teamRepo)
	matchRepo := newFakeMatchRepo(groupRepo)

	group := &models.MatchGroup{EventID: 1}
	if err := groupRepo.Create(ctx, nil, group); err != nil {
		t.Fatal(err)
	}
	teamA := teamRepo.add(&models.Team{EventID: 1, TeamSize: 1, Status: models.TeamStatusCheckedIn, GroupID: &group.ID})
	teamB := teamRepo.add(&models.Team{EventID: 1, TeamSize: 1, Status: models.TeamStatusCheckedIn, GroupID: &group.ID})
	if err := teamRepo.AddMember(ctx, teamA.ID, 10); err != nil {
		t.Fatal(err)
	}
	if err := teamRepo.AddMember(ctx, teamB.ID, 20); err != nil {
		t.Fatal(err)
	}

	match := &models.Match{GroupID: group.ID, TeamAID: teamA.ID, TeamBID: teamB.ID, MatchOrder: 1, Status: models.MatchStatusScheduled}
	if err := matchRepo.Create(ctx, nil, match); err != nil {
		t.Fatal(err)
	}

	updater := &fakeRatingUpdater{}
	svc := NewScoreService(eventRepo, teamRepo, groupRepo, matchRepo, updater, live.NewHub(), testLogger())
	return &scoreFixture{svc, teamRepo, matchRepo, updater, match}
}

func TestUpdateScore(t *testing.T) {
	f := newScoreFixture(t)

	match, err := f.svc.UpdateScore(context.Background(), 10, f.match.ID, 21, 15)
	if err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}
	if !match.TeamAWin || match.TeamBWin {
		t.Errorf("win flags = (%v, %v), want (true, false)", match.TeamAWin, match.TeamBWin)
	}
	if match.Verified {
		t.Error("freshly entered score must not be verified")
	}

	stored, _ := f.matchRepo.GetByID(context.Background(), f.match.ID)
	if stored.ScoreA != 21 || stored.ScoreB != 15 {
		t.Errorf("stored score = %d-%d, want 21-15", stored.ScoreA, stored.ScoreB)
	}
}

func TestUpdateScoreRejections(t *testing.T) {
	f := newScoreFixture(t)

	if _, err := f.svc.UpdateScore(context.Background(), 99, f.match.ID, 21, 15); !errors.Is(err, ErrNotMatchParticipant) {
		t.Errorf("outsider error = %v, want %v", err, ErrNotMatchParticipant)
	}
	if _, err := f.svc.UpdateScore(context.Background(), 10, f.match.ID, -1, 15); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("negative score error = %v, want %v", err, ErrValidationFailed)
	}
	if _, err := f.svc.UpdateScore(context.Background(), 10, 99, 21, 15); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("unknown match error = %v, want %v", err, ErrMatchNotFound)
	}
}

func TestRescoreClearsVerification(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UpdateScore(ctx, 10, f.match.ID, 21, 15); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.VerifyScore(ctx, f.match.ID); err != nil {
		t.Fatal(err)
	}

	// The opponent disputes and re-enters: verification is gone.
	if _, err := f.svc.UpdateScore(ctx, 20, f.match.ID, 15, 21); err != nil {
		t.Fatal(err)
	}
	stored, _ := f.matchRepo.GetByID(ctx, f.match.ID)
	if stored.Verified {
		t.Error("rescored match kept its verification")
	}
	if stored.TeamAWin || !stored.TeamBWin {
		t.Errorf("win flags = (%v, %v), want (false, true)", stored.TeamAWin, stored.TeamBWin)
	}
}

func TestVerifyScore(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()

	// An unplayed 0-0 line cannot be verified.
	if _, err := f.svc.VerifyScore(ctx, f.match.ID); !errors.Is(err, ErrMatchNotPlayed) {
		t.Fatalf("verify unplayed error = %v, want %v", err, ErrMatchNotPlayed)
	}

	if _, err := f.svc.UpdateScore(ctx, 10, f.match.ID, 21, 15); err != nil {
		t.Fatal(err)
	}
	match, err := f.svc.VerifyScore(ctx, f.match.ID)
	if err != nil {
		t.Fatalf("VerifyScore: %v", err)
	}
	if !match.Verified {
		t.Error("match not marked verified")
	}
	if len(f.updater.applied) != 1 || f.updater.applied[0] != f.match.ID {
		t.Errorf("rating updates = %v, want [%d]", f.updater.applied, f.match.ID)
	}
}

func TestVerifyScoreStandsWhenRatingsFail(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()
	f.updater.err = errors.New("rating layer rejected the score line")

	if _, err := f.svc.UpdateScore(ctx, 10, f.match.ID, 21, 20); err != nil {
		t.Fatal(err)
	}
	match, err := f.svc.VerifyScore(ctx, f.match.ID)
	if err != nil {
		t.Fatalf("VerifyScore: %v", err)
	}
	if !match.Verified {
		t.Error("verification must stand even when ratings cannot move")
	}
	stored, _ := f.matchRepo.GetByID(ctx, f.match.ID)
	if !stored.Verified {
		t.Error("stored match lost its verification")
	}
}

func TestSubmitAllScores(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()

	// Second match: scored and already verified. Third: withdrawn.
	verified := &models.Match{GroupID: f.match.GroupID, TeamAID: f.match.TeamAID, TeamBID: f.match.TeamBID,
		ScoreA: 21, ScoreB: 12, Verified: true, MatchOrder: 2, Status: models.MatchStatusScheduled}
	withdrawn := &models.Match{GroupID: f.match.GroupID, TeamAID: f.match.TeamAID, TeamBID: f.match.TeamBID,
		ScoreA: 21, ScoreB: 19, MatchOrder: 3, Status: models.MatchStatusWithdrawn}
	if err := f.matchRepo.Create(ctx, nil, verified); err != nil {
		t.Fatal(err)
	}
	if err := f.matchRepo.Create(ctx, nil, withdrawn); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UpdateScore(ctx, 10, f.match.ID, 21, 15); err != nil {
		t.Fatal(err)
	}

	count, err := f.svc.SubmitAllScores(ctx, 1)
	if err != nil {
		t.Fatalf("SubmitAllScores: %v", err)
	}
	if count != 1 {
		t.Fatalf("verified count = %d, want 1", count)
	}
	if len(f.updater.applied) != 1 || f.updater.applied[0] != f.match.ID {
		t.Errorf("rating updates = %v, want only match %d", f.updater.applied, f.match.ID)
	}

	stored, _ := f.matchRepo.GetByID(ctx, withdrawn.ID)
	if stored.Verified {
		t.Error("withdrawn match must not be verified by bulk submission")
	}
}

func TestWithdrawMatch(t *testing.T) {
	f := newScoreFixture(t)
	ctx := context.Background()

	if err := f.svc.WithdrawMatch(ctx, f.match.ID); err != nil {
		t.Fatalf("WithdrawMatch: %v", err)
	}
	stored, _ := f.matchRepo.GetByID(ctx, f.match.ID)
	if stored.Status != models.MatchStatusWithdrawn {
		t.Fatalf("status = %q, want withdrawn", stored.Status)
	}

	// Withdrawal is terminal: no rescoring, no verification, no repeat.
	if err := f.svc.WithdrawMatch(ctx, f.match.ID); !errors.Is(err, ErrMatchWithdrawn) {
		t.Errorf("second withdraw error = %v, want %v", err, ErrMatchWithdrawn)
	}
	if _, err := f.svc.UpdateScore(ctx, 10, f.match.ID, 21, 15); !errors.Is(err, ErrMatchWithdrawn) {
		t.Errorf("score after withdraw error = %v, want %v", err, ErrMatchWithdrawn)
	}
	if _, err := f.svc.VerifyScore(ctx, f.match.ID); !errors.Is(err, ErrMatchWithdrawn) {
		t.Errorf("verify after withdraw error = %v, want %v", err, ErrMatchWithdrawn)
	}
	if len(f.updater.applied) != 0 {
		t.Errorf("withdrawn match reached the rating layer: %v", f.updater.applied)
	}
}
