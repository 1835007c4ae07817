package ratings

import (
	"errors"
	"math"

	"github.com/courtly/club-system/models"
)

// Badminton scoring rules used for score-line validation and the
// margin multiplier denominator.
const (
	winningScore = 21
	minWinMargin = 2
)

var (
	ErrNegativeScore    = errors.New("score cannot be negative")
	ErrInvalidScoreLine = errors.New("invalid score line: a side must reach 21 with a margin of at least 2")
	ErrDrawNotAllowed   = errors.New("drawn score cannot produce a rating update")
	ErrDoublesTeamSize  = errors.New("doubles update requires exactly two rated players per side")
)

// Config carries the numeric constants of the rating system. They are
// configuration, not policy: deployments may tune bounds and K-factors
// without touching the engine.
type Config struct {
	MinRating            float64
	MaxRating            float64
	InitialAssessmentCap float64
	// ProvisionalGamesThreshold is the established-games count below
	// which a rating stays provisional.
	ProvisionalGamesThreshold int
	KProvisional              float64
	KStandard                 float64
	// KExpert exists for a high-rating tier that is currently never
	// selected; K comes off the provisional flag only.
	KExpert     float64
	RatingScale float64
}

func DefaultConfig() Config {
	return Config{
		MinRating:                 800,
		MaxRating:                 3000,
		InitialAssessmentCap:      1400,
		ProvisionalGamesThreshold: 15,
		KProvisional:              40,
		KStandard:                 24,
		KExpert:                   16,
		RatingScale:               400,
	}
}

// PlayerRating is the per-player input to an update: the current
// rating plus the state that drives K-factor selection. GamesPlayed is
// carried for callers that track it but does not influence K.
type PlayerRating struct {
	Rating      float64
	Provisional bool
	GamesPlayed int
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// CalculateInitialRating maps a self-assessment answer set to a
// starting rating. The answer values are summed and bucketed into
// fixed tiers; the result is clamped to the assessment cap so nobody
// self-assesses into the upper half of the ladder. An empty answer set
// yields the floor.
func (e *Engine) CalculateInitialRating(answers []models.AssessmentAnswer) float64 {
	if len(answers) == 0 {
		return e.cfg.MinRating
	}
	sum := 0
	for _, a := range answers {
		sum += a.Value
	}

	var rating float64
	switch {
	case sum <= 9:
		rating = 800
	case sum <= 15:
		rating = 1000
	case sum <= 18:
		rating = 1200
	default:
		rating = 1400
	}

	return clamp(rating, e.cfg.MinRating, e.cfg.InitialAssessmentCap)
}

// ExpectedScore is the standard logistic comparison of two ratings.
func (e *Engine) ExpectedScore(rOwn, rOpp float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rOpp-rOwn)/e.cfg.RatingScale))
}

// MarginMultiplier scales the rating swing by the square root of the
// point differential relative to a full game.
func (e *Engine) MarginMultiplier(scoreA, scoreB int) float64 {
	diff := math.Abs(float64(scoreA - scoreB))
	return 1.0 + math.Sqrt(diff/float64(winningScore))
}

// kFactor selects the maximum swing per match. The expert tier in the
// config is intentionally not consulted here.
func (e *Engine) kFactor(provisional bool) float64 {
	if provisional {
		return e.cfg.KProvisional
	}
	return e.cfg.KStandard
}

// ValidateScore enforces badminton scoring before any rating mutation:
// no negative points, a side must reach 21, and the winner must lead
// by at least 2.
func (e *Engine) ValidateScore(scoreA, scoreB int) error {
	if scoreA < 0 || scoreB < 0 {
		return ErrNegativeScore
	}
	diff := scoreA - scoreB
	if diff < 0 {
		diff = -diff
	}
	if (scoreA < winningScore && scoreB < winningScore) || diff < minWinMargin {
		return ErrInvalidScoreLine
	}
	return nil
}

// UpdateSingles computes post-match ratings for both players. Each
// side's delta uses its own K-factor and its own actual/expected
// pairing, scaled by a shared margin multiplier. Results are clamped
// to the configured range.
func (e *Engine) UpdateSingles(player, opponent PlayerRating, scoreP, scoreO int) (newPlayer, newOpponent float64, err error) {
	if err := e.ValidateScore(scoreP, scoreO); err != nil {
		return 0, 0, err
	}
	if scoreP == scoreO {
		return 0, 0, ErrDrawNotAllowed
	}

	expectedP := e.ExpectedScore(player.Rating, opponent.Rating)
	expectedO := e.ExpectedScore(opponent.Rating, player.Rating)
	margin := e.MarginMultiplier(scoreP, scoreO)

	actualP := 0.0
	if scoreP > scoreO {
		actualP = 1.0
	}
	actualO := 1.0 - actualP

	newPlayer = player.Rating + e.kFactor(player.Provisional)*margin*(actualP-expectedP)
	newOpponent = opponent.Rating + e.kFactor(opponent.Provisional)*margin*(actualO-expectedO)

	newPlayer = clamp(newPlayer, e.cfg.MinRating, e.cfg.MaxRating)
	newOpponent = clamp(newOpponent, e.cfg.MinRating, e.cfg.MaxRating)
	return newPlayer, newOpponent, nil
}

// UpdateDoubles computes post-match ratings for two pairs. Expected
// scores come from the team averages; each member of a team receives a
// full delta (not a split) computed with their own K-factor.
func (e *Engine) UpdateDoubles(teamA, teamB []PlayerRating, scoreA, scoreB int) (newTeamA, newTeamB []float64, err error) {
	if len(teamA) != 2 || len(teamB) != 2 {
		return nil, nil, ErrDoublesTeamSize
	}
	if err := e.ValidateScore(scoreA, scoreB); err != nil {
		return nil, nil, err
	}
	if scoreA == scoreB {
		return nil, nil, ErrDrawNotAllowed
	}

	avgA := (teamA[0].Rating + teamA[1].Rating) / 2
	avgB := (teamB[0].Rating + teamB[1].Rating) / 2

	expectedA := e.ExpectedScore(avgA, avgB)
	expectedB := e.ExpectedScore(avgB, avgA)
	margin := e.MarginMultiplier(scoreA, scoreB)

	actualA := 0.0
	if scoreA > scoreB {
		actualA = 1.0
	}
	actualB := 1.0 - actualA

	newTeamA = make([]float64, 2)
	newTeamB = make([]float64, 2)
	for i, p := range teamA {
		updated := p.Rating + e.kFactor(p.Provisional)*margin*(actualA-expectedA)
		newTeamA[i] = clamp(updated, e.cfg.MinRating, e.cfg.MaxRating)
	}
	for i, p := range teamB {
		updated := p.Rating + e.kFactor(p.Provisional)*margin*(actualB-expectedB)
		newTeamB[i] = clamp(updated, e.cfg.MinRating, e.cfg.MaxRating)
	}
	return newTeamA, newTeamB, nil
}

// Band returns the descriptive band for a rating.
func (e *Engine) Band(rating float64) string {
	switch {
	case rating < 1200:
		return "Beginner"
	case rating < 1800:
		return "Intermediate"
	case rating < 2400:
		return "Advanced"
	default:
		return "Expert"
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
