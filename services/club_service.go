package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
	"github.com/courtly/club-system/storage"
)

type ClubService interface {
	Create(ctx context.Context, club *models.Club) error
	GetByID(ctx context.Context, id int) (*models.Club, error)
	List(ctx context.Context, limit, offset int) ([]*models.Club, error)
	Update(ctx context.Context, club *models.Club) error
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (string, error)
	Delete(ctx context.Context, id int) error
}

type clubService struct {
	clubRepo  repositories.ClubRepository
	courtRepo repositories.CourtRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
}

func NewClubService(
	clubRepo repositories.ClubRepository,
	courtRepo repositories.CourtRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ClubService {
	return &clubService{
		clubRepo:  clubRepo,
		courtRepo: courtRepo,
		uploader:  uploader,
		logger:    logger,
	}
}

func (s *clubService) Create(ctx context.Context, club *models.Club) error {
	if strings.TrimSpace(club.Name) == "" {
		return fmt.Errorf("%w: club name is required", ErrValidationFailed)
	}
	if err := s.clubRepo.Create(ctx, club); err != nil {
		return fmt.Errorf("failed to create club: %w", err)
	}
	s.logger.Info("club created", slog.Int("club_id", club.ID), slog.String("name", club.Name))
	return nil
}

func (s *clubService) GetByID(ctx context.Context, id int) (*models.Club, error) {
	club, err := s.clubRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}

	courts, err := s.courtRepo.ListByClub(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts for club %d: %w", id, err)
	}
	club.Courts = make([]models.Court, 0, len(courts))
	for _, c := range courts {
		club.Courts = append(club.Courts, *c)
	}

	s.attachLogoURL(club)
	return club, nil
}

func (s *clubService) List(ctx context.Context, limit, offset int) ([]*models.Club, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	clubs, err := s.clubRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, club := range clubs {
		s.attachLogoURL(club)
	}
	return clubs, nil
}

func (s *clubService) Update(ctx context.Context, club *models.Club) error {
	if strings.TrimSpace(club.Name) == "" {
		return fmt.Errorf("%w: club name is required", ErrValidationFailed)
	}
	if err := s.clubRepo.Update(ctx, club); err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return ErrClubNotFound
		}
		return err
	}
	return nil
}

func (s *clubService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (string, error) {
	club, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("clubs/%d/logo", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload club logo: %w", err)
	}

	club.LogoKey = &result.Key
	if err := s.clubRepo.Update(ctx, club); err != nil {
		return "", fmt.Errorf("failed to store logo key for club %d: %w", id, err)
	}
	return result.Location, nil
}

func (s *clubService) Delete(ctx context.Context, id int) error {
	club, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.clubRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return ErrClubNotFound
		}
		return err
	}
	if club.LogoKey != nil {
		if err := s.uploader.Delete(ctx, *club.LogoKey); err != nil {
			s.logger.Warn("failed to delete club logo from storage",
				slog.Int("club_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *clubService) attachLogoURL(club *models.Club) {
	if club.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*club.LogoKey)
	if url != "" {
		club.LogoURL = &url
	}
}
