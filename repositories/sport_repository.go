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
	ErrSportNotFound     = errors.New("sport not found")
	ErrSportNameConflict = errors.New("sport name is already in use")
)

type SportRepository interface {
	Create(ctx context.Context, sport *models.Sport) error
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	List(ctx context.Context) ([]*models.Sport, error)
	Update(ctx context.Context, sport *models.Sport) error
	Delete(ctx context.Context, id int) error
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

func (r *postgresSportRepository) Create(ctx context.Context, sport *models.Sport) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO sports (name) VALUES ($1) RETURNING id`, sport.Name).
		Scan(&sport.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "sports_name_key" {
			return ErrSportNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresSportRepository) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	sport := &models.Sport{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM sports WHERE id = $1`, id).
		Scan(&sport.ID, &sport.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to scan sport by id %d: %w", id, err)
	}
	return sport, nil
}

func (r *postgresSportRepository) List(ctx context.Context) ([]*models.Sport, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM sports ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sports: %w", err)
	}
	defer rows.Close()

	sports := make([]*models.Sport, 0)
	for rows.Next() {
		sport := &models.Sport{}
		if scanErr := rows.Scan(&sport.ID, &sport.Name); scanErr != nil {
			return nil, fmt.Errorf("failed to scan sport row: %w", scanErr)
		}
		sports = append(sports, sport)
	}
	return sports, rows.Err()
}

func (r *postgresSportRepository) Update(ctx context.Context, sport *models.Sport) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sports SET name = $1 WHERE id = $2`, sport.Name, sport.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "sports_name_key" {
			return ErrSportNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrSportNotFound)
}

func (r *postgresSportRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSportNotFound)
}
