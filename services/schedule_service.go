package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/courtly/club-system/live"
	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
)

// ScheduleService generates round-robin match schedules. Grouping and
// scheduling are separate invocations so callers may regenerate groups
// without matches, or matches without touching group membership.
type ScheduleService interface {
	// ScheduleGroup rebuilds the group's match list: one match per
	// unordered pair of its teams, match order sequential from 1.
	// Returns the number of matches created.
	ScheduleGroup(ctx context.Context, group *models.MatchGroup) (int, error)
	// ScheduleGroupByID resolves the group and delegates to
	// ScheduleGroup.
	ScheduleGroupByID(ctx context.Context, groupID int) (int, error)
	// ScheduleEvent clears every match of the event and regenerates
	// the schedule for all of its groups.
	ScheduleEvent(ctx context.Context, eventID int) error
}

type scheduleService struct {
	db        *sql.DB
	eventRepo repositories.EventRepository
	teamRepo  repositories.TeamRepository
	groupRepo repositories.GroupRepository
	matchRepo repositories.MatchRepository
	hub       *live.Hub
	locks     *EventLocker
	logger    *slog.Logger
}

func NewScheduleService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	hub *live.Hub,
	locks *EventLocker,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		db:        db,
		eventRepo: eventRepo,
		teamRepo:  teamRepo,
		groupRepo: groupRepo,
		matchRepo: matchRepo,
		hub:       hub,
		locks:     locks,
		logger:    logger,
	}
}

func (s *scheduleService) ScheduleGroup(ctx context.Context, group *models.MatchGroup) (int, error) {
	unlock := s.locks.Lock(group.EventID)
	defer unlock()

	teams, err := s.teamRepo.ListByGroup(ctx, group.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list teams for group %d: %w", group.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	if txErr = s.matchRepo.DeleteByGroup(ctx, tx, group.ID); txErr != nil {
		return 0, txErr
	}

	created, txErr := s.createRoundRobin(ctx, tx, group, teams)
	if txErr != nil {
		return 0, txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return 0, fmt.Errorf("failed to commit schedule for group %d: %w", group.ID, txErr)
	}

	s.broadcastScheduleBuilt(group.EventID, created)
	return created, nil
}

func (s *scheduleService) ScheduleGroupByID(ctx context.Context, groupID int) (int, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return 0, ErrGroupNotFound
		}
		return 0, fmt.Errorf("failed to load group %d: %w", groupID, err)
	}
	return s.ScheduleGroup(ctx, group)
}

func (s *scheduleService) ScheduleEvent(ctx context.Context, eventID int) error {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	groups, err := s.groupRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list groups for event %d: %w", eventID, err)
	}

	// Roster snapshot before the destructive pass; the event lock
	// keeps it consistent for the duration.
	groupTeams := make(map[int][]*models.Team, len(groups))
	for _, group := range groups {
		teams, listErr := s.teamRepo.ListByGroup(ctx, group.ID)
		if listErr != nil {
			return fmt.Errorf("failed to list teams for group %d: %w", group.ID, listErr)
		}
		groupTeams[group.ID] = teams
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	// Clear the whole event first so a stale schedule can never
	// survive a partial regeneration.
	if txErr = s.matchRepo.DeleteByEvent(ctx, tx, eventID); txErr != nil {
		return txErr
	}

	total := 0
	for _, group := range groups {
		created, genErr := s.createRoundRobin(ctx, tx, group, groupTeams[group.ID])
		if genErr != nil {
			txErr = genErr
			return txErr
		}
		total += created
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit schedule for event %d: %w", eventID, txErr)
	}

	s.logger.Info("event schedule rebuilt",
		slog.Int("event_id", eventID),
		slog.Int("groups", len(groups)),
		slog.Int("matches", total))
	s.broadcastScheduleBuilt(eventID, total)
	return nil
}

// createRoundRobin writes one match per unordered team pair (i < j,
// team i as side A), numbering matches sequentially from 1 in
// enumeration order. A group of k teams yields k(k-1)/2 matches.
func (s *scheduleService) createRoundRobin(ctx context.Context, exec repositories.SQLExecutor, group *models.MatchGroup, teams []*models.Team) (int, error) {
	if len(teams) < 2 {
		s.logger.Warn("group has fewer than two teams, no matches scheduled",
			slog.Int("group_id", group.ID),
			slog.Int("teams", len(teams)))
		return 0, nil
	}

	matchOrder := 0
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			matchOrder++
			match := &models.Match{
				GroupID:    group.ID,
				TeamAID:    teams[i].ID,
				TeamBID:    teams[j].ID,
				MatchOrder: matchOrder,
				Status:     models.MatchStatusScheduled,
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return 0, fmt.Errorf("failed to create match %d for group %d: %w", matchOrder, group.ID, err)
			}
		}
	}
	return matchOrder, nil
}

func (s *scheduleService) broadcastScheduleBuilt(eventID, matches int) {
	s.hub.BroadcastToRoom(strconv.Itoa(eventID), live.Message{
		Type:    live.EventScheduleBuilt,
		Payload: map[string]int{"event_id": eventID, "match_count": matches},
	})
}
