package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtly/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventClubInvalid  = errors.New("event club reference invalid")
	ErrEventSportInvalid = errors.New("event sport reference invalid")
	ErrEventAtCapacity   = errors.New("event is at participant capacity")
	ErrEventNameConflict = errors.New("event name already exists")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, limit, offset int) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id int, status models.EventStatus) error
	// IncrementParticipants bumps the participant counter by delta,
	// refusing to pass max_participants. Runs on the caller's executor
	// so it shares the waitlist promotion transaction.
	IncrementParticipants(ctx context.Context, exec SQLExecutor, id int, delta int) error
	ListDueForStatusChange(ctx context.Context, now time.Time) ([]*models.Event, error)
	Delete(ctx context.Context, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, name, description, club_id, sport_id, organizer_id, format, group_count,
	max_participants, current_participants, reg_date, start_date, end_date, status, logo_key, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.ClubID, &e.SportID, &e.OrganizerID,
		&e.Format, &e.GroupCount, &e.MaxParticipants, &e.CurrentParticipants,
		&e.RegDate, &e.StartDate, &e.EndDate, &e.Status, &e.LogoKey, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events
			(name, description, club_id, sport_id, organizer_id, format, group_count,
			 max_participants, reg_date, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, current_participants, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Name, event.Description, event.ClubID, event.SportID, event.OrganizerID,
		event.Format, event.GroupCount, event.MaxParticipants,
		event.RegDate, event.StartDate, event.EndDate, event.Status,
	).Scan(&event.ID, &event.CurrentParticipants, &event.CreatedAt)

	return r.handleEventError(err)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event by id %d: %w", id, err)
	}
	return event, nil
}

func (r *postgresEventRepository) List(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", scanErr)
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event rows iteration: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, format = $3, group_count = $4, max_participants = $5,
		    reg_date = $6, start_date = $7, end_date = $8, logo_key = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		event.Name, event.Description, event.Format, event.GroupCount, event.MaxParticipants,
		event.RegDate, event.StartDate, event.EndDate, event.LogoKey, event.ID,
	)
	if err != nil {
		return r.handleEventError(err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, id int, status models.EventStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) IncrementParticipants(ctx context.Context, exec SQLExecutor, id int, delta int) error {
	query := `
		UPDATE events
		SET current_participants = current_participants + $1
		WHERE id = $2
		  AND current_participants + $1 >= 0
		  AND current_participants + $1 <= max_participants`

	result, err := exec.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust participant counter for event %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Either the event does not exist or the counter would leave
		// its bounds; disambiguate for the caller.
		var exists bool
		if scanErr := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); scanErr != nil {
			return scanErr
		}
		if !exists {
			return ErrEventNotFound
		}
		return ErrEventAtCapacity
	}
	return nil
}

func (r *postgresEventRepository) ListDueForStatusChange(ctx context.Context, now time.Time) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE (status = 'draft' AND reg_date <= $1)
		   OR (status = 'registration' AND start_date <= $1)
		   OR (status = 'active' AND end_date <= $1)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query events due for status change: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", scanErr)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "events_club_id_fkey":
			return ErrEventClubInvalid
		case "events_sport_id_fkey":
			return ErrEventSportInvalid
		case "events_name_key":
			return ErrEventNameConflict
		}
	}
	return err
}
