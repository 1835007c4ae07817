package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtly/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrRatingNotFound = errors.New("player rating not found")
	ErrRatingConflict = errors.New("player rating already exists for this sport and format")
)

type RatingRepository interface {
	Create(ctx context.Context, rating *models.PlayerSportRating) error
	GetByID(ctx context.Context, id int) (*models.PlayerSportRating, error)
	// GetForUpdate loads the row with a row-level lock, serializing
	// concurrent rating mutations for the same player.
	GetForUpdate(ctx context.Context, exec SQLExecutor, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error)
	Get(ctx context.Context, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error)
	Update(ctx context.Context, exec SQLExecutor, rating *models.PlayerSportRating) error
	ListByUser(ctx context.Context, userID int) ([]*models.PlayerSportRating, error)
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

const ratingColumns = `id, user_id, sport_id, format, rating, provisional, games_played, band, updated_at`

func scanRating(row interface{ Scan(...interface{}) error }) (*models.PlayerSportRating, error) {
	r := &models.PlayerSportRating{}
	err := row.Scan(&r.ID, &r.UserID, &r.SportID, &r.Format, &r.Rating, &r.Provisional, &r.GamesPlayed, &r.Band, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *postgresRatingRepository) Create(ctx context.Context, rating *models.PlayerSportRating) error {
	query := `
		INSERT INTO player_sport_ratings (user_id, sport_id, format, rating, provisional, games_played, band)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		rating.UserID, rating.SportID, rating.Format, rating.Rating,
		rating.Provisional, rating.GamesPlayed, rating.Band,
	).Scan(&rating.ID, &rating.UpdatedAt)
	return r.handleRatingError(err)
}

func (r *postgresRatingRepository) GetByID(ctx context.Context, id int) (*models.PlayerSportRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM player_sport_ratings WHERE id = $1`
	rating, err := scanRating(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to scan rating by id %d: %w", id, err)
	}
	return rating, nil
}

func (r *postgresRatingRepository) Get(ctx context.Context, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM player_sport_ratings WHERE user_id = $1 AND sport_id = $2 AND format = $3`
	rating, err := scanRating(r.db.QueryRowContext(ctx, query, userID, sportID, format))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to scan rating for user %d: %w", userID, err)
	}
	return rating, nil
}

func (r *postgresRatingRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, userID, sportID int, format models.MatchFormat) (*models.PlayerSportRating, error) {
	query := `SELECT ` + ratingColumns + `
		FROM player_sport_ratings
		WHERE user_id = $1 AND sport_id = $2 AND format = $3
		FOR UPDATE`
	rating, err := scanRating(exec.QueryRowContext(ctx, query, userID, sportID, format))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to lock rating for user %d: %w", userID, err)
	}
	return rating, nil
}

func (r *postgresRatingRepository) Update(ctx context.Context, exec SQLExecutor, rating *models.PlayerSportRating) error {
	query := `
		UPDATE player_sport_ratings
		SET rating = $1, provisional = $2, games_played = $3, band = $4, updated_at = NOW()
		WHERE id = $5`

	result, err := exec.ExecContext(ctx, query,
		rating.Rating, rating.Provisional, rating.GamesPlayed, rating.Band, rating.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRatingNotFound)
}

func (r *postgresRatingRepository) ListByUser(ctx context.Context, userID int) ([]*models.PlayerSportRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM player_sport_ratings WHERE user_id = $1 ORDER BY sport_id, format`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]*models.PlayerSportRating, 0)
	for rows.Next() {
		rating, scanErr := scanRating(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", scanErr)
		}
		out = append(out, rating)
	}
	return out, rows.Err()
}

func (r *postgresRatingRepository) handleRatingError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "player_sport_ratings_user_id_sport_id_format_key" {
			return ErrRatingConflict
		}
	}
	return err
}
