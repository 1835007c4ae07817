package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
)

// WaitListService manages the per-event waiting queue for full events.
type WaitListService interface {
	// Join places a user on the event's waitlist. Only full events in
	// the registration window take waitlist entries.
	Join(ctx context.Context, eventID, userID int) (*models.WaitListEntry, error)
	ListWaiting(ctx context.Context, eventID int) ([]*models.WaitListEntry, error)
	// PromoteNext pops the head of the waiting queue into a free
	// participant slot. The counter bump and the status flip commit
	// together; concurrent promotions skip each other's locked rows.
	PromoteNext(ctx context.Context, eventID int) (*models.WaitListEntry, error)
	Cancel(ctx context.Context, entryID, callerID int) error
}

type waitListService struct {
	db           *sql.DB
	eventRepo    repositories.EventRepository
	userRepo     repositories.UserRepository
	waitListRepo repositories.WaitListRepository
	email        EmailSender
	logger       *slog.Logger
}

func NewWaitListService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	waitListRepo repositories.WaitListRepository,
	email EmailSender,
	logger *slog.Logger,
) WaitListService {
	return &waitListService{
		db:           db,
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		waitListRepo: waitListRepo,
		email:        email,
		logger:       logger,
	}
}

func (s *waitListService) Join(ctx context.Context, eventID, userID int) (*models.WaitListEntry, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	if event.Status != models.EventStatusRegistration {
		return nil, ErrInvalidStatusChange
	}
	if event.CurrentParticipants < event.MaxParticipants {
		return nil, fmt.Errorf("%w: event %d still has open slots", ErrValidationFailed, eventID)
	}

	entry := &models.WaitListEntry{
		EventID: eventID,
		UserID:  userID,
		Status:  models.WaitListStatusWaiting,
	}
	if err := s.waitListRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrWaitListDuplicate) {
			return nil, ErrAlreadyWaitListed
		}
		return nil, fmt.Errorf("failed to create waitlist entry: %w", err)
	}

	s.logger.Info("user joined waitlist",
		slog.Int("event_id", eventID),
		slog.Int("user_id", userID),
		slog.Int("position", entry.Position))
	return entry, nil
}

func (s *waitListService) ListWaiting(ctx context.Context, eventID int) ([]*models.WaitListEntry, error) {
	return s.waitListRepo.ListWaitingByEvent(ctx, eventID)
}

func (s *waitListService) PromoteNext(ctx context.Context, eventID int) (*models.WaitListEntry, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	entry, txErr := s.waitListRepo.NextWaitingForUpdate(ctx, tx, eventID)
	if txErr != nil {
		if errors.Is(txErr, repositories.ErrWaitListEntryNotFound) {
			txErr = ErrWaitListNotFound
		}
		return nil, txErr
	}

	if txErr = s.eventRepo.IncrementParticipants(ctx, tx, eventID, 1); txErr != nil {
		if errors.Is(txErr, repositories.ErrEventAtCapacity) {
			txErr = ErrEventFull
		}
		return nil, txErr
	}
	if txErr = s.waitListRepo.UpdateStatus(ctx, tx, entry.ID, models.WaitListStatusPromoted); txErr != nil {
		return nil, txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit waitlist promotion: %w", txErr)
	}
	entry.Status = models.WaitListStatusPromoted

	s.logger.Info("waitlist entry promoted",
		slog.Int("event_id", eventID),
		slog.Int("entry_id", entry.ID),
		slog.Int("user_id", entry.UserID))
	s.notifyPromotion(ctx, entry, event)
	return entry, nil
}

func (s *waitListService) Cancel(ctx context.Context, entryID, callerID int) error {
	entry, err := s.waitListRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrWaitListEntryNotFound) {
			return ErrWaitListNotFound
		}
		return fmt.Errorf("failed to load waitlist entry %d: %w", entryID, err)
	}
	if entry.UserID != callerID {
		return ErrWaitListNotFound
	}
	if entry.Status != models.WaitListStatusWaiting {
		return ErrWaitListEntryClosed
	}
	return s.waitListRepo.UpdateStatus(ctx, s.db, entryID, models.WaitListStatusCanceled)
}

// notifyPromotion emails the promoted user. Delivery failures are
// logged only; the promotion has already committed.
func (s *waitListService) notifyPromotion(ctx context.Context, entry *models.WaitListEntry, event *models.Event) {
	user, err := s.userRepo.GetByID(ctx, entry.UserID)
	if err != nil {
		s.logger.Warn("promoted user lookup failed, skipping email",
			slog.Int("user_id", entry.UserID), slog.Any("error", err))
		return
	}
	if err := s.email.SendWaitListPromotionEmail(user.Email, event.Name); err != nil {
		s.logger.Warn("failed to send promotion email",
			slog.Int("user_id", entry.UserID), slog.Any("error", err))
	}
}
