package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
	"github.com/courtly/club-system/storage"
)

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (string, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{userRepo: userRepo, uploader: uploader}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	if user.LogoKey != nil && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*user.LogoKey); url != "" {
			user.LogoURL = &url
		}
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, user *models.User) error {
	if strings.TrimSpace(user.FirstName) == "" || strings.TrimSpace(user.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrValidationFailed)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return ErrUserEmailConflict
		}
		return err
	}
	return nil
}

func (s *userService) UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (string, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	key := fmt.Sprintf("users/%d/avatar", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	user.LogoKey = &result.Key
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to store avatar key for user %d: %w", id, err)
	}
	return result.Location, nil
}
