package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
)

type CourtService interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	ListByClub(ctx context.Context, clubID int) ([]*models.Court, error)
	Update(ctx context.Context, court *models.Court) error
	Delete(ctx context.Context, id int) error
}

type courtService struct {
	courtRepo repositories.CourtRepository
}

func NewCourtService(courtRepo repositories.CourtRepository) CourtService {
	return &courtService{courtRepo: courtRepo}
}

func (s *courtService) Create(ctx context.Context, court *models.Court) error {
	if strings.TrimSpace(court.Label) == "" {
		return fmt.Errorf("%w: court label is required", ErrValidationFailed)
	}
	if err := s.courtRepo.Create(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtClubInvalid) {
			return ErrClubNotFound
		}
		return fmt.Errorf("failed to create court: %w", err)
	}
	return nil
}

func (s *courtService) GetByID(ctx context.Context, id int) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return court, nil
}

func (s *courtService) ListByClub(ctx context.Context, clubID int) ([]*models.Court, error) {
	return s.courtRepo.ListByClub(ctx, clubID)
}

func (s *courtService) Update(ctx context.Context, court *models.Court) error {
	if strings.TrimSpace(court.Label) == "" {
		return fmt.Errorf("%w: court label is required", ErrValidationFailed)
	}
	if err := s.courtRepo.Update(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return ErrCourtNotFound
		}
		return err
	}
	return nil
}

func (s *courtService) Delete(ctx context.Context, id int) error {
	if err := s.courtRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return ErrCourtNotFound
		}
		return err
	}
	return nil
}
