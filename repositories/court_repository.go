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
	ErrCourtNotFound    = errors.New("court not found")
	ErrCourtClubInvalid = errors.New("court club reference invalid")
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	ListByClub(ctx context.Context, clubID int) ([]*models.Court, error)
	Update(ctx context.Context, court *models.Court) error
	Delete(ctx context.Context, id int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, court *models.Court) error {
	query := `INSERT INTO courts (club_id, label, indoor) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, court.ClubID, court.Label, court.Indoor).Scan(&court.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "courts_club_id_fkey" {
			return ErrCourtClubInvalid
		}
		return err
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	court := &models.Court{}
	err := r.db.QueryRowContext(ctx, `SELECT id, club_id, label, indoor FROM courts WHERE id = $1`, id).
		Scan(&court.ID, &court.ClubID, &court.Label, &court.Indoor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to scan court by id %d: %w", id, err)
	}
	return court, nil
}

func (r *postgresCourtRepository) ListByClub(ctx context.Context, clubID int) ([]*models.Court, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, club_id, label, indoor FROM courts WHERE club_id = $1 ORDER BY label`, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts for club %d: %w", clubID, err)
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		court := &models.Court{}
		if scanErr := rows.Scan(&court.ID, &court.ClubID, &court.Label, &court.Indoor); scanErr != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", scanErr)
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}

func (r *postgresCourtRepository) Update(ctx context.Context, court *models.Court) error {
	result, err := r.db.ExecContext(ctx, `UPDATE courts SET label = $1, indoor = $2 WHERE id = $3`,
		court.Label, court.Indoor, court.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}
