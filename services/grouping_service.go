package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/courtly/club-system/live"
	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
	"github.com/courtly/club-system/utils"
)

// GroupingService forms competitive groups for an event and manages
// group membership afterwards.
type GroupingService interface {
	// FormGroups discards any existing groups and matches for the
	// event and rebuilds the groups from the checked-in roster.
	// Returns the number of groups created.
	FormGroups(ctx context.Context, eventID int) (int, error)
	MoveTeam(ctx context.Context, teamID, targetGroupID int) error
	UpdateCourtNumbers(ctx context.Context, groupID int, courtNumbers string) error
	FinalizeGroup(ctx context.Context, groupID int) error
}

type groupingService struct {
	db        *sql.DB
	eventRepo repositories.EventRepository
	teamRepo  repositories.TeamRepository
	groupRepo repositories.GroupRepository
	matchRepo repositories.MatchRepository
	hub       *live.Hub
	locks     *EventLocker
	logger    *slog.Logger
}

func NewGroupingService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	hub *live.Hub,
	locks *EventLocker,
	logger *slog.Logger,
) GroupingService {
	return &groupingService{
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

func (s *groupingService) FormGroups(ctx context.Context, eventID int) (int, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return 0, ErrEventNotFound
		}
		return 0, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	if event.GroupCount == nil || *event.GroupCount <= 0 {
		return 0, ErrGroupCountRequired
	}

	teams, err := s.teamRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}

	checkedIn := make([]*models.Team, 0, len(teams))
	notCheckedIn := 0
	for _, t := range teams {
		switch t.Status {
		case models.TeamStatusCheckedIn:
			checkedIn = append(checkedIn, t)
		case models.TeamStatusRegistered:
			notCheckedIn++
		}
	}
	if notCheckedIn > 0 {
		return 0, fmt.Errorf("%w: %d team(s) still registered", ErrTeamsNotCheckedIn, notCheckedIn)
	}
	if len(checkedIn) == 0 {
		return 0, ErrNoEligibleTeams
	}

	// Descending seeding: highest average rating first, unrated teams
	// last. Stable so equal ratings keep their registration order.
	sort.SliceStable(checkedIn, func(i, j int) bool {
		ri, rj := checkedIn[i].AverageRating, checkedIn[j].AverageRating
		if ri == nil {
			return false
		}
		if rj == nil {
			return true
		}
		return *ri > *rj
	})

	n := len(checkedIn)
	target := *event.GroupCount
	actual := target
	if n < actual {
		actual = n
	}
	bucketSize := (n + actual - 1) / actual

	// Tiered seeding: the top bucketSize teams fill group 1, the next
	// fill group 2, and the final group absorbs the remainder. Trailing
	// buckets can come out empty when n is not close to a multiple of
	// bucketSize; those simply produce no group.
	buckets := make([][]*models.Team, actual)
	for i, team := range checkedIn {
		idx := i / bucketSize
		if idx > actual-1 {
			idx = actual - 1
		}
		buckets[idx] = append(buckets[idx], team)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed during group formation",
					slog.Int("event_id", eventID), slog.Any("error", rbErr))
			}
		}
	}()

	// Wholesale regeneration: drop matches, detach teams, drop groups.
	if txErr = s.matchRepo.DeleteByEvent(ctx, tx, eventID); txErr != nil {
		return 0, txErr
	}
	if txErr = s.teamRepo.DetachGroupByEvent(ctx, tx, eventID); txErr != nil {
		return 0, txErr
	}
	if txErr = s.groupRepo.DeleteByEvent(ctx, tx, eventID); txErr != nil {
		return 0, txErr
	}

	created := 0
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		created++
		group := &models.MatchGroup{
			EventID:      eventID,
			Label:        "Group " + strconv.Itoa(created),
			DisplayOrder: created,
			TeamCount:    len(bucket),
			CourtNumbers: utils.DefaultCourtLabel(created),
		}
		if txErr = s.groupRepo.Create(ctx, tx, group); txErr != nil {
			return 0, txErr
		}
		for _, team := range bucket {
			if txErr = s.teamRepo.AssignGroup(ctx, tx, team.ID, &group.ID); txErr != nil {
				return 0, txErr
			}
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return 0, fmt.Errorf("failed to commit group formation for event %d: %w", eventID, txErr)
	}

	s.logger.Info("groups formed",
		slog.Int("event_id", eventID),
		slog.Int("teams", n),
		slog.Int("groups", created))
	s.hub.BroadcastToRoom(strconv.Itoa(eventID), live.Message{
		Type:    live.EventGroupsFormed,
		Payload: map[string]int{"event_id": eventID, "group_count": created},
	})
	return created, nil
}

func (s *groupingService) MoveTeam(ctx context.Context, teamID, targetGroupID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	if team.Status != models.TeamStatusCheckedIn {
		return ErrTeamNotCheckedIn
	}

	group, err := s.groupRepo.GetByID(ctx, targetGroupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to load group %d: %w", targetGroupID, err)
	}
	if group.EventID != team.EventID {
		return ErrCrossEventMove
	}
	if team.GroupID != nil && *team.GroupID == targetGroupID {
		return ErrTeamAlreadyInGroup
	}

	unlock := s.locks.Lock(team.EventID)
	defer unlock()

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

	previousGroupID := team.GroupID
	if txErr = s.teamRepo.AssignGroup(ctx, tx, teamID, &targetGroupID); txErr != nil {
		return txErr
	}
	if txErr = s.groupRepo.RefreshTeamCount(ctx, tx, targetGroupID); txErr != nil {
		return txErr
	}
	if previousGroupID != nil {
		if txErr = s.groupRepo.RefreshTeamCount(ctx, tx, *previousGroupID); txErr != nil {
			return txErr
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit team move: %w", txErr)
	}

	s.logger.Info("team moved",
		slog.Int("team_id", teamID),
		slog.Int("group_id", targetGroupID))
	return nil
}

func (s *groupingService) UpdateCourtNumbers(ctx context.Context, groupID int, courtNumbers string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to load group %d: %w", groupID, err)
	}
	if group.Finalized {
		return ErrGroupFinalized
	}

	courts := utils.ParseCourtNumbers(courtNumbers)
	if len(courts) == 0 {
		return ErrCourtNumbersRequired
	}

	return s.groupRepo.UpdateCourtNumbers(ctx, groupID, utils.JoinCourtNumbers(courts))
}

func (s *groupingService) FinalizeGroup(ctx context.Context, groupID int) error {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to load group %d: %w", groupID, err)
	}
	return s.groupRepo.SetFinalized(ctx, groupID, true)
}
