package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/courtly/club-system/live"
	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
)

// RatingUpdater is the slice of the rating layer the score workflow
// needs. Implemented by RatingService.
type RatingUpdater interface {
	ApplyMatchResult(ctx context.Context, event *models.Event, match *models.Match) error
}

// ScoreService runs the lifecycle of a match score line: entry by a
// participant, verification by an organizer, bulk submission and
// withdrawal.
type ScoreService interface {
	// UpdateScore records a score line on behalf of callerID, who must
	// be a member of one of the two teams. Any prior verification is
	// cleared: a rescored match needs verifying again.
	UpdateScore(ctx context.Context, callerID, matchID, scoreA, scoreB int) (*models.Match, error)
	// VerifyScore marks the score official and feeds it to the rating
	// layer. Verification stands even when the score line cannot move
	// ratings (ties, unfinished games).
	VerifyScore(ctx context.Context, matchID int) (*models.Match, error)
	// SubmitAllScores verifies every scored, unverified match of the
	// event. Returns the number of matches verified.
	SubmitAllScores(ctx context.Context, eventID int) (int, error)
	// WithdrawMatch takes a match out of play permanently. Withdrawn
	// matches never reach the rating layer.
	WithdrawMatch(ctx context.Context, matchID int) error
}

type scoreService struct {
	eventRepo repositories.EventRepository
	teamRepo  repositories.TeamRepository
	groupRepo repositories.GroupRepository
	matchRepo repositories.MatchRepository
	ratings   RatingUpdater
	hub       *live.Hub
	logger    *slog.Logger
}

func NewScoreService(
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	ratings RatingUpdater,
	hub *live.Hub,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		eventRepo: eventRepo,
		teamRepo:  teamRepo,
		groupRepo: groupRepo,
		matchRepo: matchRepo,
		ratings:   ratings,
		hub:       hub,
		logger:    logger,
	}
}

func (s *scoreService) UpdateScore(ctx context.Context, callerID, matchID, scoreA, scoreB int) (*models.Match, error) {
	if scoreA < 0 || scoreB < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	}

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusWithdrawn {
		return nil, ErrMatchWithdrawn
	}

	onA, err := s.teamRepo.IsMember(ctx, match.TeamAID, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership of team %d: %w", match.TeamAID, err)
	}
	onB, err := s.teamRepo.IsMember(ctx, match.TeamBID, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership of team %d: %w", match.TeamBID, err)
	}
	if !onA && !onB {
		return nil, ErrNotMatchParticipant
	}

	teamAWin := scoreA > scoreB
	teamBWin := scoreB > scoreA
	if err := s.matchRepo.UpdateScoreLine(ctx, matchID, scoreA, scoreB, teamAWin, teamBWin, false); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update score for match %d: %w", matchID, err)
	}

	match.ScoreA, match.ScoreB = scoreA, scoreB
	match.TeamAWin, match.TeamBWin = teamAWin, teamBWin
	match.Verified = false

	s.logger.Info("score updated",
		slog.Int("match_id", matchID),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB),
		slog.Int("user_id", callerID))
	s.broadcastMatch(ctx, match, live.EventScoreUpdated)
	return match, nil
}

func (s *scoreService) VerifyScore(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusWithdrawn {
		return nil, ErrMatchWithdrawn
	}
	if !match.Scored() {
		return nil, ErrMatchNotPlayed
	}

	if err := s.matchRepo.SetVerified(ctx, matchID, true); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to verify match %d: %w", matchID, err)
	}
	match.Verified = true

	s.applyRatings(ctx, match)
	s.broadcastMatch(ctx, match, live.EventScoreVerified)
	return match, nil
}

func (s *scoreService) SubmitAllScores(ctx context.Context, eventID int) (int, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return 0, ErrEventNotFound
		}
		return 0, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	matches, err := s.matchRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list matches for event %d: %w", eventID, err)
	}

	verified := 0
	for _, match := range matches {
		if match.Verified || match.Status == models.MatchStatusWithdrawn || !match.Scored() {
			continue
		}
		if err := s.matchRepo.SetVerified(ctx, match.ID, true); err != nil {
			return verified, fmt.Errorf("failed to verify match %d: %w", match.ID, err)
		}
		match.Verified = true
		verified++
		s.applyRatings(ctx, match)
	}

	s.logger.Info("event scores submitted",
		slog.Int("event_id", eventID),
		slog.Int("verified", verified))
	s.hub.BroadcastToRoom(strconv.Itoa(eventID), live.Message{
		Type:    live.EventScoreVerified,
		Payload: map[string]int{"event_id": eventID, "verified_count": verified},
	})
	return verified, nil
}

func (s *scoreService) WithdrawMatch(ctx context.Context, matchID int) error {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status == models.MatchStatusWithdrawn {
		return ErrMatchWithdrawn
	}

	if err := s.matchRepo.UpdateStatus(ctx, matchID, models.MatchStatusWithdrawn); err != nil {
		return fmt.Errorf("failed to withdraw match %d: %w", matchID, err)
	}
	match.Status = models.MatchStatusWithdrawn

	s.logger.Info("match withdrawn", slog.Int("match_id", matchID))
	s.broadcastMatch(ctx, match, live.EventMatchWithdrawn)
	return nil
}

func (s *scoreService) loadMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return match, nil
}

// applyRatings hands a verified score to the rating layer. Score lines
// the rating model rejects leave the verification in place; the result
// is official even when it cannot move ratings.
func (s *scoreService) applyRatings(ctx context.Context, match *models.Match) {
	event, err := s.eventForMatch(ctx, match)
	if err != nil {
		s.logger.Error("failed to resolve event for verified match",
			slog.Int("match_id", match.ID), slog.Any("error", err))
		return
	}
	if err := s.ratings.ApplyMatchResult(ctx, event, match); err != nil {
		s.logger.Warn("verified score did not update ratings",
			slog.Int("match_id", match.ID),
			slog.Any("error", err))
	}
}

func (s *scoreService) eventForMatch(ctx context.Context, match *models.Match) (*models.Event, error) {
	group, err := s.groupRepo.GetByID(ctx, match.GroupID)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.GetByID(ctx, group.EventID)
}

func (s *scoreService) broadcastMatch(ctx context.Context, match *models.Match, eventType string) {
	group, err := s.groupRepo.GetByID(ctx, match.GroupID)
	if err != nil {
		s.logger.Warn("skipping broadcast, group lookup failed",
			slog.Int("match_id", match.ID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToRoom(strconv.Itoa(group.EventID), live.Message{
		Type:    eventType,
		Payload: match,
	})
}
