package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/ratings"
	"github.com/courtly/club-system/repositories"
)

// RatingService owns the persisted rating ladder: assessment intake,
// post-match mutation and the audit history around the pure engine.
type RatingService interface {
	// SubmitAssessment creates the (player, sport, format) rating from
	// a self-assessment answer set. A rating can only be created once.
	SubmitAssessment(ctx context.Context, userID, sportID int, format models.MatchFormat, answers []models.AssessmentAnswer) (*models.PlayerSportRating, error)
	GetRating(ctx context.Context, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error)
	ListUserRatings(ctx context.Context, userID int) ([]*models.PlayerSportRating, error)
	History(ctx context.Context, userID, limit int) ([]*models.RatingHistory, error)
	// ApplyMatchResult mutates the ratings of every player on the two
	// teams of a verified match and appends the history ledger, all in
	// one transaction.
	ApplyMatchResult(ctx context.Context, event *models.Event, match *models.Match) error
}

type ratingService struct {
	db          *sql.DB
	engine      *ratings.Engine
	ratingRepo  repositories.RatingRepository
	historyRepo repositories.RatingHistoryRepository
	teamRepo    repositories.TeamRepository
	logger      *slog.Logger
}

func NewRatingService(
	db *sql.DB,
	engine *ratings.Engine,
	ratingRepo repositories.RatingRepository,
	historyRepo repositories.RatingHistoryRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		db:          db,
		engine:      engine,
		ratingRepo:  ratingRepo,
		historyRepo: historyRepo,
		teamRepo:    teamRepo,
		logger:      logger,
	}
}

func (s *ratingService) SubmitAssessment(ctx context.Context, userID, sportID int, format models.MatchFormat, answers []models.AssessmentAnswer) (*models.PlayerSportRating, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unknown match format %q", ErrValidationFailed, format)
	}
	for _, a := range answers {
		if a.Value < 0 {
			return nil, fmt.Errorf("%w: assessment answer values cannot be negative", ErrValidationFailed)
		}
	}

	initial := s.engine.CalculateInitialRating(answers)
	band := s.engine.Band(initial)
	rating := &models.PlayerSportRating{
		UserID:      userID,
		SportID:     sportID,
		Format:      format,
		Rating:      initial,
		Provisional: true,
		Band:        &band,
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		if errors.Is(err, repositories.ErrRatingConflict) {
			return nil, ErrAssessmentExists
		}
		return nil, fmt.Errorf("failed to create rating for user %d: %w", userID, err)
	}

	s.logger.Info("initial rating created",
		slog.Int("user_id", userID),
		slog.Int("sport_id", sportID),
		slog.String("format", string(format)),
		slog.Float64("rating", initial))
	return rating, nil
}

func (s *ratingService) GetRating(ctx context.Context, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error) {
	rating, err := s.ratingRepo.Get(ctx, userID, sportID, format)
	if err != nil {
		if errors.Is(err, repositories.ErrRatingNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return rating, nil
}

func (s *ratingService) ListUserRatings(ctx context.Context, userID int) ([]*models.PlayerSportRating, error) {
	return s.ratingRepo.ListByUser(ctx, userID)
}

func (s *ratingService) History(ctx context.Context, userID, limit int) ([]*models.RatingHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.historyRepo.ListByUser(ctx, userID, limit)
}

func (s *ratingService) ApplyMatchResult(ctx context.Context, event *models.Event, match *models.Match) error {
	if err := s.engine.ValidateScore(match.ScoreA, match.ScoreB); err != nil {
		return err
	}

	membersA, err := s.teamRepo.ListMembers(ctx, match.TeamAID)
	if err != nil {
		return fmt.Errorf("failed to list members of team %d: %w", match.TeamAID, err)
	}
	membersB, err := s.teamRepo.ListMembers(ctx, match.TeamBID)
	if err != nil {
		return fmt.Errorf("failed to list members of team %d: %w", match.TeamBID, err)
	}

	switch event.Format {
	case models.FormatSingles:
		if len(membersA) != 1 || len(membersB) != 1 {
			return fmt.Errorf("%w: singles match between teams of %d and %d players",
				ErrValidationFailed, len(membersA), len(membersB))
		}
		return s.applySingles(ctx, event, match, membersA[0].ID, membersB[0].ID)
	case models.FormatDoubles:
		if len(membersA) != 2 || len(membersB) != 2 {
			return fmt.Errorf("%w: doubles match between teams of %d and %d players",
				ErrValidationFailed, len(membersA), len(membersB))
		}
		return s.applyDoubles(ctx, event, match, membersA, membersB)
	default:
		s.logger.Warn("no rating model for event format, skipping rating update",
			slog.String("format", string(event.Format)),
			slog.Int("match_id", match.ID))
		return nil
	}
}

func (s *ratingService) applySingles(ctx context.Context, event *models.Event, match *models.Match, playerID, opponentID int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	// Rows are locked in ascending user id order so two matches
	// sharing a player cannot deadlock against each other.
	locked, txErr := s.lockRatings(ctx, tx, event, []int{playerID, opponentID})
	if txErr != nil {
		return txErr
	}
	playerRow, opponentRow := locked[playerID], locked[opponentID]

	newPlayer, newOpponent, txErr := s.engine.UpdateSingles(
		toEngineRating(playerRow), toEngineRating(opponentRow),
		match.ScoreA, match.ScoreB,
	)
	if txErr != nil {
		return txErr
	}

	if txErr = s.persistRating(ctx, tx, playerRow, newPlayer, match.ID); txErr != nil {
		return txErr
	}
	if txErr = s.persistRating(ctx, tx, opponentRow, newOpponent, match.ID); txErr != nil {
		return txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit singles rating update: %w", txErr)
	}
	return nil
}

func (s *ratingService) applyDoubles(ctx context.Context, event *models.Event, match *models.Match, membersA, membersB []models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	ids := []int{membersA[0].ID, membersA[1].ID, membersB[0].ID, membersB[1].ID}
	locked, txErr := s.lockRatings(ctx, tx, event, ids)
	if txErr != nil {
		return txErr
	}

	rowsA := []*models.PlayerSportRating{locked[membersA[0].ID], locked[membersA[1].ID]}
	rowsB := []*models.PlayerSportRating{locked[membersB[0].ID], locked[membersB[1].ID]}

	newA, newB, txErr := s.engine.UpdateDoubles(
		[]ratings.PlayerRating{toEngineRating(rowsA[0]), toEngineRating(rowsA[1])},
		[]ratings.PlayerRating{toEngineRating(rowsB[0]), toEngineRating(rowsB[1])},
		match.ScoreA, match.ScoreB,
	)
	if txErr != nil {
		return txErr
	}

	for i, row := range rowsA {
		if txErr = s.persistRating(ctx, tx, row, newA[i], match.ID); txErr != nil {
			return txErr
		}
	}
	for i, row := range rowsB {
		if txErr = s.persistRating(ctx, tx, row, newB[i], match.ID); txErr != nil {
			return txErr
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit doubles rating update: %w", txErr)
	}
	return nil
}

// lockRatings loads and row-locks every player's rating for the
// event's sport and format. A player without a rating fails the whole
// update: ratings exist only after self-assessment.
func (s *ratingService) lockRatings(ctx context.Context, tx repositories.SQLExecutor, event *models.Event, userIDs []int) (map[int]*models.PlayerSportRating, error) {
	ordered := append([]int(nil), userIDs...)
	sort.Ints(ordered)

	out := make(map[int]*models.PlayerSportRating, len(ordered))
	for _, userID := range ordered {
		row, err := s.ratingRepo.GetForUpdate(ctx, tx, userID, event.SportID, event.Format)
		if err != nil {
			if errors.Is(err, repositories.ErrRatingNotFound) {
				return nil, fmt.Errorf("%w: user %d", ErrPlayerNotRated, userID)
			}
			return nil, err
		}
		out[userID] = row
	}
	return out, nil
}

func (s *ratingService) persistRating(ctx context.Context, tx repositories.SQLExecutor, row *models.PlayerSportRating, newRating float64, matchID int) error {
	old := row.Rating
	row.Rating = newRating
	row.GamesPlayed++
	row.Provisional = row.GamesPlayed < s.engine.Config().ProvisionalGamesThreshold
	band := s.engine.Band(newRating)
	row.Band = &band

	if err := s.ratingRepo.Update(ctx, tx, row); err != nil {
		return fmt.Errorf("failed to update rating %d: %w", row.ID, err)
	}
	entry := &models.RatingHistory{
		UserID:    row.UserID,
		MatchID:   matchID,
		OldRating: old,
		NewRating: newRating,
		Delta:     newRating - old,
	}
	if err := s.historyRepo.Create(ctx, tx, entry); err != nil {
		return err
	}
	return nil
}

func toEngineRating(row *models.PlayerSportRating) ratings.PlayerRating {
	return ratings.PlayerRating{
		Rating:      row.Rating,
		Provisional: row.Provisional,
		GamesPlayed: row.GamesPlayed,
	}
}
