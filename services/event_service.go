package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
	"github.com/courtly/club-system/storage"
)

// EventOverview bundles everything a client needs to render an event
// page in one response.
type EventOverview struct {
	Event   *models.Event        `json:"event"`
	Teams   []*models.Team       `json:"teams"`
	Groups  []*models.MatchGroup `json:"groups"`
	Matches []*models.Match      `json:"matches"`
}

// EventService manages the event lifecycle from draft through
// completion, plus the event logo.
type EventService interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, limit, offset int) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	ChangeStatus(ctx context.Context, id int, next models.EventStatus) error
	// AdvanceStatusesByDates moves every event whose dates have passed
	// to its next lifecycle stage. Run periodically from main.
	AdvanceStatusesByDates(ctx context.Context, now time.Time) (int, error)
	GetOverview(ctx context.Context, id int) (*EventOverview, error)
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (string, error)
	Delete(ctx context.Context, id int) error
}

// statusTransitions is the allowed lifecycle graph. Canceled is
// reachable from every non-terminal state.
var statusTransitions = map[models.EventStatus][]models.EventStatus{
	models.EventStatusDraft:        {models.EventStatusRegistration, models.EventStatusCanceled},
	models.EventStatusRegistration: {models.EventStatusActive, models.EventStatusCanceled},
	models.EventStatusActive:       {models.EventStatusCompleted, models.EventStatusCanceled},
}

func isValidStatusChange(from, to models.EventStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type eventService struct {
	eventRepo repositories.EventRepository
	teamRepo  repositories.TeamRepository
	groupRepo repositories.GroupRepository
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		teamRepo:  teamRepo,
		groupRepo: groupRepo,
		matchRepo: matchRepo,
		uploader:  uploader,
		logger:    logger,
	}
}

func (s *eventService) Create(ctx context.Context, event *models.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if event.Status == "" {
		event.Status = models.EventStatusDraft
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		switch {
		case errors.Is(err, repositories.ErrEventClubInvalid):
			return ErrClubNotFound
		case errors.Is(err, repositories.ErrEventSportInvalid):
			return ErrSportNotFound
		case errors.Is(err, repositories.ErrEventNameConflict):
			return fmt.Errorf("%w: event name %q", ErrValidationFailed, event.Name)
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event created",
		slog.Int("event_id", event.ID),
		slog.String("name", event.Name),
		slog.String("format", string(event.Format)))
	return nil
}

func validateEvent(event *models.Event) error {
	if strings.TrimSpace(event.Name) == "" {
		return fmt.Errorf("%w: event name is required", ErrValidationFailed)
	}
	if !event.Format.Valid() {
		return fmt.Errorf("%w: unknown match format %q", ErrValidationFailed, event.Format)
	}
	if event.MaxParticipants <= 0 {
		return fmt.Errorf("%w: max participants must be positive", ErrValidationFailed)
	}
	if event.GroupCount != nil && *event.GroupCount <= 0 {
		return fmt.Errorf("%w: group count must be positive when set", ErrValidationFailed)
	}
	if event.StartDate.Before(event.RegDate) || event.EndDate.Before(event.StartDate) {
		return fmt.Errorf("%w: event dates must be ordered registration <= start <= end", ErrValidationFailed)
	}
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	s.attachLogoURL(event)
	return event, nil
}

func (s *eventService) List(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	events, err := s.eventRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		s.attachLogoURL(event)
	}
	return events, nil
}

func (s *eventService) Update(ctx context.Context, event *models.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

func (s *eventService) ChangeStatus(ctx context.Context, id int, next models.EventStatus) error {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isValidStatusChange(event.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, event.Status, next)
	}
	if err := s.eventRepo.UpdateStatus(ctx, id, next); err != nil {
		return err
	}

	s.logger.Info("event status changed",
		slog.Int("event_id", id),
		slog.String("from", string(event.Status)),
		slog.String("to", string(next)))
	return nil
}

func (s *eventService) AdvanceStatusesByDates(ctx context.Context, now time.Time) (int, error) {
	due, err := s.eventRepo.ListDueForStatusChange(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list events due for status change: %w", err)
	}

	advanced := 0
	for _, event := range due {
		var next models.EventStatus
		switch {
		case event.Status == models.EventStatusDraft && !event.RegDate.After(now):
			next = models.EventStatusRegistration
		case event.Status == models.EventStatusRegistration && !event.StartDate.After(now):
			next = models.EventStatusActive
		case event.Status == models.EventStatusActive && !event.EndDate.After(now):
			next = models.EventStatusCompleted
		default:
			continue
		}

		if err := s.eventRepo.UpdateStatus(ctx, event.ID, next); err != nil {
			s.logger.Error("failed to advance event status",
				slog.Int("event_id", event.ID),
				slog.String("to", string(next)),
				slog.Any("error", err))
			continue
		}
		advanced++
		s.logger.Info("event status advanced by schedule",
			slog.Int("event_id", event.ID),
			slog.String("from", string(event.Status)),
			slog.String("to", string(next)))
	}
	return advanced, nil
}

func (s *eventService) GetOverview(ctx context.Context, id int) (*EventOverview, error) {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	overview := &EventOverview{Event: event}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.teamRepo.ListByEvent(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		overview.Teams = teams
		return nil
	})
	g.Go(func() error {
		groups, err := s.groupRepo.ListByEvent(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		overview.Groups = groups
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByEvent(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		overview.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *eventService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (string, error) {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("events/%d/logo", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload event logo: %w", err)
	}

	event.LogoKey = &result.Key
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return "", fmt.Errorf("failed to store logo key for event %d: %w", id, err)
	}
	return result.Location, nil
}

func (s *eventService) Delete(ctx context.Context, id int) error {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	if event.LogoKey != nil {
		if err := s.uploader.Delete(ctx, *event.LogoKey); err != nil {
			s.logger.Warn("failed to delete event logo from storage",
				slog.Int("event_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *eventService) attachLogoURL(event *models.Event) {
	if event.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*event.LogoKey)
	if url != "" {
		event.LogoURL = &url
	}
}
