package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courtly/club-system/models"
)

type RatingHistoryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.RatingHistory) error
	ListByUser(ctx context.Context, userID int, limit int) ([]*models.RatingHistory, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.RatingHistory, error)
}

type postgresRatingHistoryRepository struct {
	db *sql.DB
}

func NewPostgresRatingHistoryRepository(db *sql.DB) RatingHistoryRepository {
	return &postgresRatingHistoryRepository{db: db}
}

func (r *postgresRatingHistoryRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.RatingHistory) error {
	query := `
		INSERT INTO rating_history (user_id, match_id, old_rating, new_rating, delta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		entry.UserID, entry.MatchID, entry.OldRating, entry.NewRating, entry.Delta,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append rating history for user %d: %w", entry.UserID, err)
	}
	return nil
}

func (r *postgresRatingHistoryRepository) ListByUser(ctx context.Context, userID int, limit int) ([]*models.RatingHistory, error) {
	query := `
		SELECT id, user_id, match_id, old_rating, new_rating, delta, created_at
		FROM rating_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

func (r *postgresRatingHistoryRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.RatingHistory, error) {
	query := `
		SELECT id, user_id, match_id, old_rating, new_rating, delta, created_at
		FROM rating_history
		WHERE match_id = $1
		ORDER BY id`
	return r.list(ctx, query, matchID)
}

func (r *postgresRatingHistoryRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.RatingHistory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.RatingHistory, 0)
	for rows.Next() {
		var e models.RatingHistory
		if scanErr := rows.Scan(&e.ID, &e.UserID, &e.MatchID, &e.OldRating, &e.NewRating, &e.Delta, &e.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan rating history row: %w", scanErr)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
