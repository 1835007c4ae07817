package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/courtly/club-system/models"
	"github.com/courtly/club-system/repositories"
	"github.com/courtly/club-system/utils"
)

const (
	RolePlayer    = "player"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"

	tokenLifetime     = 24 * time.Hour
	minPasswordLength = 8
)

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthClaims is the JWT payload issued at login and parsed by the
// authentication middleware.
type AuthClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	// Login verifies the credentials and returns the user with a signed
	// bearer token.
	Login(ctx context.Context, creds models.Credentials) (*models.User, string, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, logger *slog.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidationFailed)
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidationFailed)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        input.Email,
		Role:         RolePlayer,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", slog.Int("user_id", user.ID))
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
