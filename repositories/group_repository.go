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
	ErrGroupNotFound     = errors.New("match group not found")
	ErrGroupEventInvalid = errors.New("match group event reference invalid")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.MatchGroup) error
	GetByID(ctx context.Context, id int) (*models.MatchGroup, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.MatchGroup, error)
	UpdateCourtNumbers(ctx context.Context, id int, courtNumbers string) error
	// RefreshTeamCount recomputes team_count from the owning side of
	// the relation after a team moves between groups.
	RefreshTeamCount(ctx context.Context, exec SQLExecutor, id int) error
	SetFinalized(ctx context.Context, id int, finalized bool) error
	DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) error
	Delete(ctx context.Context, id int) error
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

const groupColumns = `id, event_id, label, display_order, team_count, court_numbers, finalized, created_at`

func scanGroup(row interface{ Scan(...interface{}) error }) (*models.MatchGroup, error) {
	g := &models.MatchGroup{}
	err := row.Scan(&g.ID, &g.EventID, &g.Label, &g.DisplayOrder, &g.TeamCount, &g.CourtNumbers, &g.Finalized, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.MatchGroup) error {
	query := `
		INSERT INTO match_groups (event_id, label, display_order, team_count, court_numbers, finalized)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		group.EventID, group.Label, group.DisplayOrder, group.TeamCount, group.CourtNumbers, group.Finalized,
	).Scan(&group.ID, &group.CreatedAt)
	return r.handleGroupError(err)
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.MatchGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM match_groups WHERE id = $1`
	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan match group by id %d: %w", id, err)
	}
	return group, nil
}

func (r *postgresGroupRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.MatchGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM match_groups WHERE event_id = $1 ORDER BY display_order ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match groups for event %d: %w", eventID, err)
	}
	defer rows.Close()

	groups := make([]*models.MatchGroup, 0)
	for rows.Next() {
		group, scanErr := scanGroup(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match group row: %w", scanErr)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) UpdateCourtNumbers(ctx context.Context, id int, courtNumbers string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE match_groups SET court_numbers = $1 WHERE id = $2`, courtNumbers, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) RefreshTeamCount(ctx context.Context, exec SQLExecutor, id int) error {
	query := `
		UPDATE match_groups
		SET team_count = (SELECT COUNT(*) FROM teams WHERE group_id = $1)
		WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to refresh team count for group %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) SetFinalized(ctx context.Context, id int, finalized bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE match_groups SET finalized = $1 WHERE id = $2`, finalized, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM match_groups WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete match groups for event %d: %w", eventID, err)
	}
	return nil
}

func (r *postgresGroupRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM match_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) handleGroupError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "match_groups_event_id_fkey" {
			return ErrGroupEventInvalid
		}
	}
	return err
}
