package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
)

type SportService interface {
	Create(ctx context.Context, sport *models.Sport) error
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	List(ctx context.Context) ([]*models.Sport, error)
	Update(ctx context.Context, sport *models.Sport) error
	Delete(ctx context.Context, id int) error
}

type sportService struct {
	sportRepo repositories.SportRepository
}

func NewSportService(sportRepo repositories.SportRepository) SportService {
	return &sportService{sportRepo: sportRepo}
}

func (s *sportService) Create(ctx context.Context, sport *models.Sport) error {
	if strings.TrimSpace(sport.Name) == "" {
		return fmt.Errorf("%w: sport name is required", ErrValidationFailed)
	}
	if err := s.sportRepo.Create(ctx, sport); err != nil {
		if errors.Is(err, repositories.ErrSportNameConflict) {
			return fmt.Errorf("%w: sport name %q", ErrValidationFailed, sport.Name)
		}
		return fmt.Errorf("failed to create sport: %w", err)
	}
	return nil
}

func (s *sportService) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}
	return sport, nil
}

func (s *sportService) List(ctx context.Context) ([]*models.Sport, error) {
	return s.sportRepo.List(ctx)
}

func (s *sportService) Update(ctx context.Context, sport *models.Sport) error {
	if strings.TrimSpace(sport.Name) == "" {
		return fmt.Errorf("%w: sport name is required", ErrValidationFailed)
	}
	if err := s.sportRepo.Update(ctx, sport); err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return ErrSportNotFound
		}
		return err
	}
	return nil
}

func (s *sportService) Delete(ctx context.Context, id int) error {
	if err := s.sportRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return ErrSportNotFound
		}
		return err
	}
	return nil
}
