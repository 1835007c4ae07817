package ratings

import (
	"errors"
	"math"
	"testing"

	"github.com/courtly/club-system/models"
)

func TestCalculateInitialRating(t *testing.T) {
	e := NewEngine(DefaultConfig())

	tests := []struct {
		name    string
		answers []int
		want    float64
	}{
		{"empty answer set", nil, 800},
		{"minimum sum", []int{1, 1, 1}, 800},
		{"sum at 9", []int{3, 3, 3}, 800},
		{"sum at 10", []int{4, 3, 3}, 1000},
		{"sum at 15", []int{5, 5, 5}, 1000},
		{"sum at 16", []int{6, 5, 5}, 1200},
		{"sum at 18", []int{6, 6, 6}, 1200},
		{"sum at 19", []int{7, 6, 6}, 1400},
		{"sum far above cap", []int{10, 10, 10, 10}, 1400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := make([]models.AssessmentAnswer, len(tt.answers))
			for i, v := range tt.answers {
				answers[i] = models.AssessmentAnswer{QuestionID: i + 1, Value: v}
			}
			got := e.CalculateInitialRating(answers)
			if got != tt.want {
				t.Errorf("CalculateInitialRating(sum=%v) = %v, want %v", tt.answers, got, tt.want)
			}
			if got > DefaultConfig().InitialAssessmentCap {
				t.Errorf("initial rating %v exceeds assessment cap", got)
			}
		})
	}
}

func TestExpectedScore(t *testing.T) {
	e := NewEngine(DefaultConfig())

	if got := e.ExpectedScore(1500, 1500); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("equal ratings: expected score = %v, want 0.5", got)
	}
	// A 400-point gap on a 400 scale is a 10:1 favourite.
	if got := e.ExpectedScore(1900, 1500); math.Abs(got-10.0/11.0) > 1e-9 {
		t.Errorf("400-point favourite: expected score = %v, want %v", got, 10.0/11.0)
	}
	// Symmetry: the two sides' expectations sum to 1.
	a := e.ExpectedScore(2100, 1300)
	b := e.ExpectedScore(1300, 2100)
	if math.Abs(a+b-1.0) > 1e-9 {
		t.Errorf("expected scores do not sum to 1: %v + %v", a, b)
	}
}

func TestMarginMultiplier(t *testing.T) {
	e := NewEngine(DefaultConfig())

	tests := []struct {
		scoreA, scoreB int
		want           float64
	}{
		{21, 21, 1.0},
		{21, 0, 2.0},
		{0, 21, 2.0},
		{21, 19, 1 + math.Sqrt(2.0/21.0)},
	}
	for _, tt := range tests {
		got := e.MarginMultiplier(tt.scoreA, tt.scoreB)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MarginMultiplier(%d, %d) = %v, want %v", tt.scoreA, tt.scoreB, got, tt.want)
		}
	}
}

func TestValidateScore(t *testing.T) {
	e := NewEngine(DefaultConfig())

	tests := []struct {
		name           string
		scoreA, scoreB int
		wantErr        error
	}{
		{"regular win", 21, 10, nil},
		{"neither side reaches 21", 20, 19, ErrInvalidScoreLine},
		{"margin of one", 22, 21, ErrInvalidScoreLine},
		{"extended game", 22, 20, nil},
		{"negative score", -1, 21, ErrNegativeScore},
		{"shutout", 21, 0, nil},
		{"loser perspective", 10, 21, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ValidateScore(tt.scoreA, tt.scoreB)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateScore(%d, %d) = %v, want %v", tt.scoreA, tt.scoreB, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateSingles(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEngine(cfg)

	t.Run("winner gains loser drops symmetrically for equal K", func(t *testing.T) {
		p := PlayerRating{Rating: 1500}
		o := PlayerRating{Rating: 1500}
		newP, newO, err := e.UpdateSingles(p, o, 21, 15)
		if err != nil {
			t.Fatalf("UpdateSingles: %v", err)
		}
		if newP <= 1500 {
			t.Errorf("winner rating %v did not increase", newP)
		}
		if newO >= 1500 {
			t.Errorf("loser rating %v did not decrease", newO)
		}
		if math.Abs((newP-1500)+(newO-1500)) > 1e-9 {
			t.Errorf("deltas not symmetric: +%v / %v", newP-1500, newO-1500)
		}
	})

	t.Run("provisional K doubles the swing against standard", func(t *testing.T) {
		prov := PlayerRating{Rating: 1500, Provisional: true}
		std := PlayerRating{Rating: 1500}
		newProv, _, err := e.UpdateSingles(prov, PlayerRating{Rating: 1500}, 21, 15)
		if err != nil {
			t.Fatalf("UpdateSingles provisional: %v", err)
		}
		newStd, _, err := e.UpdateSingles(std, PlayerRating{Rating: 1500}, 21, 15)
		if err != nil {
			t.Fatalf("UpdateSingles standard: %v", err)
		}
		ratio := (newProv - 1500) / (newStd - 1500)
		want := cfg.KProvisional / cfg.KStandard
		if math.Abs(ratio-want) > 1e-9 {
			t.Errorf("provisional/standard delta ratio = %v, want %v", ratio, want)
		}
	})

	t.Run("games played does not influence the update", func(t *testing.T) {
		fresh := PlayerRating{Rating: 1500, GamesPlayed: 0}
		veteran := PlayerRating{Rating: 1500, GamesPlayed: 500}
		opp := PlayerRating{Rating: 1500}
		a, _, err := e.UpdateSingles(fresh, opp, 21, 15)
		if err != nil {
			t.Fatalf("UpdateSingles: %v", err)
		}
		b, _, err := e.UpdateSingles(veteran, opp, 21, 15)
		if err != nil {
			t.Fatalf("UpdateSingles: %v", err)
		}
		if a != b {
			t.Errorf("games played changed the result: %v vs %v", a, b)
		}
	})

	t.Run("ratings stay within bounds at the extremes", func(t *testing.T) {
		low := PlayerRating{Rating: cfg.MinRating, Provisional: true}
		high := PlayerRating{Rating: cfg.MaxRating, Provisional: true}
		newLow, newHigh, err := e.UpdateSingles(low, high, 0, 21)
		if err != nil {
			t.Fatalf("UpdateSingles: %v", err)
		}
		if newLow < cfg.MinRating || newLow > cfg.MaxRating {
			t.Errorf("loser rating %v out of bounds", newLow)
		}
		if newHigh < cfg.MinRating || newHigh > cfg.MaxRating {
			t.Errorf("winner rating %v out of bounds", newHigh)
		}
	})

	t.Run("invalid score line rejected before mutation", func(t *testing.T) {
		_, _, err := e.UpdateSingles(PlayerRating{Rating: 1500}, PlayerRating{Rating: 1500}, 20, 19)
		if !errors.Is(err, ErrInvalidScoreLine) {
			t.Errorf("UpdateSingles(20,19) err = %v, want ErrInvalidScoreLine", err)
		}
	})
}

func TestUpdateDoubles(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEngine(cfg)

	t.Run("same delta for teammates with equal K", func(t *testing.T) {
		teamA := []PlayerRating{{Rating: 1400}, {Rating: 1600}}
		teamB := []PlayerRating{{Rating: 1500}, {Rating: 1500}}
		newA, newB, err := e.UpdateDoubles(teamA, teamB, 21, 17)
		if err != nil {
			t.Fatalf("UpdateDoubles: %v", err)
		}
		deltaA0 := newA[0] - teamA[0].Rating
		deltaA1 := newA[1] - teamA[1].Rating
		if math.Abs(deltaA0-deltaA1) > 1e-9 {
			t.Errorf("teammates got different deltas: %v vs %v", deltaA0, deltaA1)
		}
		for i, r := range newB {
			if r >= teamB[i].Rating {
				t.Errorf("losing team member %d rating %v did not decrease", i, r)
			}
		}
	})

	t.Run("provisional member swings harder than the teammate", func(t *testing.T) {
		teamA := []PlayerRating{{Rating: 1500, Provisional: true}, {Rating: 1500}}
		teamB := []PlayerRating{{Rating: 1500}, {Rating: 1500}}
		newA, _, err := e.UpdateDoubles(teamA, teamB, 21, 15)
		if err != nil {
			t.Fatalf("UpdateDoubles: %v", err)
		}
		if newA[0]-1500 <= newA[1]-1500 {
			t.Errorf("provisional delta %v not larger than standard delta %v", newA[0]-1500, newA[1]-1500)
		}
	})

	t.Run("mismatched team sizes rejected", func(t *testing.T) {
		_, _, err := e.UpdateDoubles([]PlayerRating{{Rating: 1500}}, []PlayerRating{{Rating: 1500}, {Rating: 1500}}, 21, 10)
		if !errors.Is(err, ErrDoublesTeamSize) {
			t.Errorf("err = %v, want ErrDoublesTeamSize", err)
		}
	})

	t.Run("bounds hold for extreme pairs", func(t *testing.T) {
		teamA := []PlayerRating{{Rating: cfg.MaxRating, Provisional: true}, {Rating: cfg.MaxRating, Provisional: true}}
		teamB := []PlayerRating{{Rating: cfg.MinRating, Provisional: true}, {Rating: cfg.MinRating, Provisional: true}}
		newA, newB, err := e.UpdateDoubles(teamA, teamB, 21, 0)
		if err != nil {
			t.Fatalf("UpdateDoubles: %v", err)
		}
		for _, r := range append(newA, newB...) {
			if r < cfg.MinRating || r > cfg.MaxRating {
				t.Errorf("rating %v out of bounds", r)
			}
		}
	})
}

func TestBand(t *testing.T) {
	e := NewEngine(DefaultConfig())
	tests := []struct {
		rating float64
		want   string
	}{
		{800, "Beginner"},
		{1199, "Beginner"},
		{1200, "Intermediate"},
		{1799, "Intermediate"},
		{1800, "Advanced"},
		{2400, "Expert"},
		{3000, "Expert"},
	}
	for _, tt := range tests {
		if got := e.Band(tt.rating); got != tt.want {
			t.Errorf("Band(%v) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}
