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
	ErrClubNotFound     = errors.New("club not found")
	ErrClubNameConflict = errors.New("club name is already in use")
)

type ClubRepository interface {
	Create(ctx context.Context, club *models.Club) error
	GetByID(ctx context.Context, id int) (*models.Club, error)
	List(ctx context.Context, limit, offset int) ([]*models.Club, error)
	Update(ctx context.Context, club *models.Club) error
	Delete(ctx context.Context, id int) error
}

type postgresClubRepository struct {
	db *sql.DB
}

func NewPostgresClubRepository(db *sql.DB) ClubRepository {
	return &postgresClubRepository{db: db}
}

func (r *postgresClubRepository) Create(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, club.Name, club.Address, club.Phone).
		Scan(&club.ID, &club.CreatedAt)
	return r.handleClubError(err)
}

func (r *postgresClubRepository) GetByID(ctx context.Context, id int) (*models.Club, error) {
	query := `SELECT id, name, address, phone, logo_key, created_at FROM clubs WHERE id = $1`
	club := &models.Club{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&club.ID, &club.Name, &club.Address, &club.Phone, &club.LogoKey, &club.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to scan club by id %d: %w", id, err)
	}
	return club, nil
}

func (r *postgresClubRepository) List(ctx context.Context, limit, offset int) ([]*models.Club, error) {
	query := `SELECT id, name, address, phone, logo_key, created_at FROM clubs ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query clubs: %w", err)
	}
	defer rows.Close()

	clubs := make([]*models.Club, 0)
	for rows.Next() {
		club := &models.Club{}
		if scanErr := rows.Scan(&club.ID, &club.Name, &club.Address, &club.Phone, &club.LogoKey, &club.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan club row: %w", scanErr)
		}
		clubs = append(clubs, club)
	}
	return clubs, rows.Err()
}

func (r *postgresClubRepository) Update(ctx context.Context, club *models.Club) error {
	query := `UPDATE clubs SET name = $1, address = $2, phone = $3, logo_key = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, club.Name, club.Address, club.Phone, club.LogoKey, club.ID)
	if err != nil {
		return r.handleClubError(err)
	}
	return checkAffectedRows(result, ErrClubNotFound)
}

func (r *postgresClubRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clubs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrClubNotFound)
}

func (r *postgresClubRepository) handleClubError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "clubs_name_key" {
		return ErrClubNameConflict
	}
	return err
}
