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
	ErrWaitListEntryNotFound = errors.New("waitlist entry not found")
	ErrWaitListDuplicate     = errors.New("user is already on the waitlist for this event")
)

type WaitListRepository interface {
	Create(ctx context.Context, entry *models.WaitListEntry) error
	GetByID(ctx context.Context, id int) (*models.WaitListEntry, error)
	ListWaitingByEvent(ctx context.Context, eventID int) ([]*models.WaitListEntry, error)
	// NextWaitingForUpdate locks and returns the head of the waiting
	// queue for the event, or ErrWaitListEntryNotFound when empty.
	NextWaitingForUpdate(ctx context.Context, exec SQLExecutor, eventID int) (*models.WaitListEntry, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.WaitListStatus) error
}

type postgresWaitListRepository struct {
	db *sql.DB
}

func NewPostgresWaitListRepository(db *sql.DB) WaitListRepository {
	return &postgresWaitListRepository{db: db}
}

const waitListColumns = `id, event_id, user_id, position, status, created_at`

func scanWaitListEntry(row interface{ Scan(...interface{}) error }) (*models.WaitListEntry, error) {
	e := &models.WaitListEntry{}
	err := row.Scan(&e.ID, &e.EventID, &e.UserID, &e.Position, &e.Status, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresWaitListRepository) Create(ctx context.Context, entry *models.WaitListEntry) error {
	query := `
		INSERT INTO waitlist_entries (event_id, user_id, position, status)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM waitlist_entries WHERE event_id = $1),
			$3)
		RETURNING id, position, created_at`

	err := r.db.QueryRowContext(ctx, query, entry.EventID, entry.UserID, entry.Status).
		Scan(&entry.ID, &entry.Position, &entry.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "waitlist_entries_event_id_user_id_key" {
			return ErrWaitListDuplicate
		}
		return err
	}
	return nil
}

func (r *postgresWaitListRepository) GetByID(ctx context.Context, id int) (*models.WaitListEntry, error) {
	query := `SELECT ` + waitListColumns + ` FROM waitlist_entries WHERE id = $1`
	entry, err := scanWaitListEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWaitListEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan waitlist entry by id %d: %w", id, err)
	}
	return entry, nil
}

func (r *postgresWaitListRepository) ListWaitingByEvent(ctx context.Context, eventID int) ([]*models.WaitListEntry, error) {
	query := `SELECT ` + waitListColumns + `
		FROM waitlist_entries
		WHERE event_id = $1 AND status = 'waiting'
		ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query waitlist for event %d: %w", eventID, err)
	}
	defer rows.Close()

	entries := make([]*models.WaitListEntry, 0)
	for rows.Next() {
		entry, scanErr := scanWaitListEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan waitlist row: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *postgresWaitListRepository) NextWaitingForUpdate(ctx context.Context, exec SQLExecutor, eventID int) (*models.WaitListEntry, error) {
	query := `SELECT ` + waitListColumns + `
		FROM waitlist_entries
		WHERE event_id = $1 AND status = 'waiting'
		ORDER BY position ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`
	entry, err := scanWaitListEntry(exec.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWaitListEntryNotFound
		}
		return nil, fmt.Errorf("failed to lock next waitlist entry for event %d: %w", eventID, err)
	}
	return entry, nil
}

func (r *postgresWaitListRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.WaitListStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE waitlist_entries SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrWaitListEntryNotFound)
}
