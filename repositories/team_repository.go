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
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamEventInvalid  = errors.New("team event reference invalid")
	ErrTeamGroupInvalid  = errors.New("team group reference invalid")
	ErrTeamMemberExists  = errors.New("user is already a member of the team")
	ErrTeamMemberInvalid = errors.New("team member reference invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Team, error)
	UpdateStatus(ctx context.Context, id int, status models.TeamStatus) error
	UpdateAverageRating(ctx context.Context, id int, rating *float64) error
	// AssignGroup links a team to a group (nil detaches). Runs on the
	// caller's executor so regeneration stays atomic.
	AssignGroup(ctx context.Context, exec SQLExecutor, teamID int, groupID *int) error
	DetachGroupByEvent(ctx context.Context, exec SQLExecutor, eventID int) error
	AddMember(ctx context.Context, teamID, userID int) error
	RemoveMember(ctx context.Context, teamID, userID int) error
	ListMembers(ctx context.Context, teamID int) ([]models.User, error)
	CountMembers(ctx context.Context, teamID int) (int, error)
	IsMember(ctx context.Context, teamID, userID int) (bool, error)
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, event_id, name, team_size, status, average_rating, group_id, created_at`

func scanTeam(row interface{ Scan(...interface{}) error }) (*models.Team, error) {
	t := &models.Team{}
	err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.TeamSize, &t.Status, &t.AverageRating, &t.GroupID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (event_id, name, team_size, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, team.EventID, team.Name, team.TeamSize, team.Status).
		Scan(&team.ID, &team.CreatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE event_id = $1 ORDER BY id`
	return r.list(ctx, query, eventID)
}

// ListByGroup returns a group's teams in seeding order: average rating
// descending with unrated teams last, id as tie-breaker. This is the
// stored order the scheduler enumerates.
func (r *postgresTeamRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + `
		FROM teams
		WHERE group_id = $1
		ORDER BY average_rating DESC NULLS LAST, id ASC`
	return r.list(ctx, query, groupID)
}

func (r *postgresTeamRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateStatus(ctx context.Context, id int, status models.TeamStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateAverageRating(ctx context.Context, id int, rating *float64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET average_rating = $1 WHERE id = $2`, rating, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AssignGroup(ctx context.Context, exec SQLExecutor, teamID int, groupID *int) error {
	result, err := exec.ExecContext(ctx, `UPDATE teams SET group_id = $1 WHERE id = $2`, groupID, teamID)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) DetachGroupByEvent(ctx context.Context, exec SQLExecutor, eventID int) error {
	_, err := exec.ExecContext(ctx, `UPDATE teams SET group_id = NULL WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to detach teams from groups for event %d: %w", eventID, err)
	}
	return nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, userID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, teamID, userID)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, teamID, userID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamMemberInvalid)
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, teamID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.role, u.created_at
		FROM users u
		JOIN team_members tm ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if scanErr := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team member row: %w", scanErr)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) CountMembers(ctx context.Context, teamID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members of team %d: %w", teamID, err)
	}
	return count, nil
}

func (r *postgresTeamRepository) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership of user %d in team %d: %w", userID, teamID, err)
	}
	return exists, nil
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "teams_event_id_fkey":
			return ErrTeamEventInvalid
		case "teams_group_id_fkey":
			return ErrTeamGroupInvalid
		case "team_members_pkey":
			return ErrTeamMemberExists
		case "team_members_user_id_fkey":
			return ErrTeamMemberInvalid
		}
	}
	return err
}
