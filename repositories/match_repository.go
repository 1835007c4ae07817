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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchGroupInvalid  = errors.New("match group reference invalid")
	ErrMatchTeamInvalid   = errors.New("match team reference invalid")
	ErrMatchOrderConflict = errors.New("match order already taken within the group")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Match, error)
	// UpdateScoreLine writes both scores, the derived win flags and the
	// verified flag in one statement (read-modify-write per match).
	UpdateScoreLine(ctx context.Context, id int, scoreA, scoreB int, teamAWin, teamBWin, verified bool) error
	SetVerified(ctx context.Context, id int, verified bool) error
	UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error
	DeleteByGroup(ctx context.Context, exec SQLExecutor, groupID int) error
	DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, group_id, team_a_id, team_b_id, score_a, score_b,
	team_a_win, team_b_win, verified, match_order, status, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.GroupID, &m.TeamAID, &m.TeamBID, &m.ScoreA, &m.ScoreB,
		&m.TeamAWin, &m.TeamBWin, &m.Verified, &m.MatchOrder, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(group_id, team_a_id, team_b_id, score_a, score_b, team_a_win, team_b_win, verified, match_order, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.GroupID, match.TeamAID, match.TeamBID, match.ScoreA, match.ScoreB,
		match.TeamAWin, match.TeamBWin, match.Verified, match.MatchOrder, match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE group_id = $1 ORDER BY match_order ASC`
	return r.list(ctx, query, groupID)
}

func (r *postgresMatchRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Match, error) {
	query := `
		SELECT m.id, m.group_id, m.team_a_id, m.team_b_id, m.score_a, m.score_b,
		       m.team_a_win, m.team_b_win, m.verified, m.match_order, m.status, m.created_at
		FROM matches m
		JOIN match_groups g ON g.id = m.group_id
		WHERE g.event_id = $1
		ORDER BY g.display_order ASC, m.match_order ASC`
	return r.list(ctx, query, eventID)
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateScoreLine(ctx context.Context, id int, scoreA, scoreB int, teamAWin, teamBWin, verified bool) error {
	query := `
		UPDATE matches
		SET score_a = $1, score_b = $2, team_a_win = $3, team_b_win = $4, verified = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query, scoreA, scoreB, teamAWin, teamBWin, verified, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetVerified(ctx context.Context, id int, verified bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByGroup(ctx context.Context, exec SQLExecutor, groupID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM matches WHERE group_id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for group %d: %w", groupID, err)
	}
	return nil
}

func (r *postgresMatchRepository) DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) error {
	query := `DELETE FROM matches WHERE group_id IN (SELECT id FROM match_groups WHERE event_id = $1)`
	_, err := exec.ExecContext(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for event %d: %w", eventID, err)
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_group_id_fkey":
			return ErrMatchGroupInvalid
		case "matches_team_a_id_fkey", "matches_team_b_id_fkey":
			return ErrMatchTeamInvalid
		case "matches_group_id_match_order_key":
			return ErrMatchOrderConflict
		}
	}
	return err
}
