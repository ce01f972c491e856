// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type AuthService struct {
	users *repo.UserRepository
	cfg   *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresIn int          `json:"expiresIn"` // in seconds
}

func NewAuthService(users *repo.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		users: users,
		cfg:   cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Validate request
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	// Check if user already exists
	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, utils.UnexpectedErr(fmt.Errorf("failed to check email: %w", err))
	}
	if exists {
		return nil, utils.ConflictErr(i18n.KeyAuthUserExists)
	}

	now := time.Now()
	user := &models.User{
		Name:        req.Name,
		Email:       req.Email,
		Avatar:      models.DefaultAvatar,
		Active:      true,
		LastLoginAt: &now,
	}

	// Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, utils.UnexpectedErr(fmt.Errorf("failed to hash password: %w", err))
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, utils.ConflictErr(i18n.KeyAuthUserExists)
		}
		return nil, utils.UnexpectedErr(fmt.Errorf("failed to create user: %w", err))
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Validate request
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, utils.AuthenticationErr(i18n.KeyAuthInvalidCredentials)
		}
		return nil, utils.UnexpectedErr(err)
	}

	if !user.Active || user.CheckPassword(req.Password) != nil {
		return nil, utils.AuthenticationErr(i18n.KeyAuthInvalidCredentials)
	}

	now := time.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
	user.LastLoginAt = &now

	return s.issueToken(user)
}

// CurrentUser resolves the authenticated user; an inactive account is treated as unauthenticated
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, utils.AuthenticationErr(i18n.KeyAuthInvalidToken)
		}
		return nil, utils.UnexpectedErr(err)
	}
	return user, nil
}

func (s *AuthService) issueToken(user *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateJWT(user.ID, user.Name, user.IsAdmin, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, utils.UnexpectedErr(fmt.Errorf("failed to generate access token: %w", err))
	}

	return &AuthResponse{
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}
