package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
)

// TeamService handles team registration and roster management for an
// event, and keeps the team's seeding average in sync with its roster.
type TeamService interface {
	Register(ctx context.Context, eventID int, name string, declaredSize int) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error)
	AddMember(ctx context.Context, teamID, userID int) error
	RemoveMember(ctx context.Context, teamID, userID int) error
	CheckIn(ctx context.Context, teamID int) error
	Withdraw(ctx context.Context, teamID int) error
	// RefreshAverageRating recomputes the seeding average from the
	// current roster's ratings for the event's sport and format.
	RefreshAverageRating(ctx context.Context, teamID int) error
}

type teamService struct {
	db         *sql.DB
	eventRepo  repositories.EventRepository
	teamRepo   repositories.TeamRepository
	ratingRepo repositories.RatingRepository
	logger     *slog.Logger
}

func NewTeamService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	ratingRepo repositories.RatingRepository,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		db:         db,
		eventRepo:  eventRepo,
		teamRepo:   teamRepo,
		ratingRepo: ratingRepo,
		logger:     logger,
	}
}

func (s *teamService) Register(ctx context.Context, eventID int, name string, declaredSize int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusRegistration {
		return nil, ErrInvalidStatusChange
	}

	size := event.Format.TeamSize(declaredSize)
	if size <= 0 {
		return nil, ErrInvalidTeamSize
	}
	if event.Format == models.FormatOpen && declaredSize != size {
		return nil, ErrInvalidTeamSize
	}

	team := &models.Team{
		EventID:  eventID,
		Name:     name,
		TeamSize: size,
		Status:   models.TeamStatusRegistered,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamEventInvalid) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.logger.Info("team registered",
		slog.Int("event_id", eventID),
		slog.Int("team_id", team.ID),
		slog.String("name", name))
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	members, err := s.teamRepo.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	team.Members = members
	return team, nil
}

func (s *teamService) ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error) {
	return s.teamRepo.ListByEvent(ctx, eventID)
}

// AddMember claims a participant slot on the event before growing the
// roster; the claim is released again if the roster insert fails.
func (s *teamService) AddMember(ctx context.Context, teamID, userID int) error {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.Status == models.TeamStatusWithdrawn {
		return ErrInvalidStatusChange
	}

	count, err := s.teamRepo.CountMembers(ctx, teamID)
	if err != nil {
		return err
	}
	if count >= team.TeamSize {
		return ErrTeamFull
	}

	if err := s.eventRepo.IncrementParticipants(ctx, s.db, team.EventID, 1); err != nil {
		if errors.Is(err, repositories.ErrEventAtCapacity) {
			return ErrEventFull
		}
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	if err := s.teamRepo.AddMember(ctx, teamID, userID); err != nil {
		if relErr := s.eventRepo.IncrementParticipants(ctx, s.db, team.EventID, -1); relErr != nil {
			s.logger.Error("failed to release participant slot after member add failure",
				slog.Int("event_id", team.EventID), slog.Any("error", relErr))
		}
		if errors.Is(err, repositories.ErrTeamMemberExists) {
			return fmt.Errorf("%w: user %d already on team %d", ErrValidationFailed, userID, teamID)
		}
		return fmt.Errorf("failed to add member to team %d: %w", teamID, err)
	}

	return s.RefreshAverageRating(ctx, teamID)
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, userID int) error {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return err
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrTeamMemberInvalid) {
			return fmt.Errorf("%w: user %d is not on team %d", ErrValidationFailed, userID, teamID)
		}
		return err
	}
	if err := s.eventRepo.IncrementParticipants(ctx, s.db, team.EventID, -1); err != nil {
		s.logger.Error("failed to release participant slot after member removal",
			slog.Int("event_id", team.EventID), slog.Any("error", err))
	}
	return s.RefreshAverageRating(ctx, teamID)
}

// CheckIn marks the team present. Grouping only considers checked-in
// teams and refuses to run while any team is still merely registered.
func (s *teamService) CheckIn(ctx context.Context, teamID int) error {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.Status != models.TeamStatusRegistered {
		return ErrInvalidStatusChange
	}

	count, err := s.teamRepo.CountMembers(ctx, teamID)
	if err != nil {
		return err
	}
	if count != team.TeamSize {
		return ErrInvalidTeamSize
	}

	return s.teamRepo.UpdateStatus(ctx, teamID, models.TeamStatusCheckedIn)
}

func (s *teamService) Withdraw(ctx context.Context, teamID int) error {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.Status == models.TeamStatusWithdrawn {
		return ErrInvalidStatusChange
	}

	if err := s.teamRepo.UpdateStatus(ctx, teamID, models.TeamStatusWithdrawn); err != nil {
		return err
	}

	count, err := s.teamRepo.CountMembers(ctx, teamID)
	if err != nil {
		return err
	}
	if count > 0 {
		if err := s.eventRepo.IncrementParticipants(ctx, s.db, team.EventID, -count); err != nil {
			s.logger.Error("failed to release participant slots after team withdrawal",
				slog.Int("event_id", team.EventID),
				slog.Int("slots", count),
				slog.Any("error", err))
		}
	}

	s.logger.Info("team withdrawn", slog.Int("team_id", teamID))
	return nil
}

func (s *teamService) RefreshAverageRating(ctx context.Context, teamID int) error {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return err
	}
	event, err := s.loadEvent(ctx, team.EventID)
	if err != nil {
		return err
	}

	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return err
	}

	sum := 0.0
	rated := 0
	for _, member := range members {
		rating, err := s.ratingRepo.Get(ctx, member.ID, event.SportID, event.Format)
		if err != nil {
			if errors.Is(err, repositories.ErrRatingNotFound) {
				continue
			}
			return err
		}
		sum += rating.Rating
		rated++
	}

	// Teams with no rated members stay unrated and seed last.
	var avg *float64
	if rated > 0 {
		v := sum / float64(rated)
		avg = &v
	}
	return s.teamRepo.UpdateAverageRating(ctx, teamID, avg)
}

func (s *teamService) loadTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) loadEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	return event, nil
}
