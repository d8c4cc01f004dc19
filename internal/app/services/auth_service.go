package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/auth"
	"github.com/deptcms/portal/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// AdminStore is the admin account persistence. *repositories.AdminRepository implements it.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
}

// TokenIssuer signs access tokens. *auth.JWTService implements it.
type TokenIssuer interface {
	GenerateAccessToken(admin *models.Admin) (string, int64, error)
}

// AuthService handles admin login and the seeded admin account
type AuthService struct {
	admins AdminStore
	tokens TokenIssuer
	logger zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(admins AdminStore, tokens TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{
		admins: admins,
		tokens: tokens,
		logger: logger,
	}
}

// Login checks the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Warn().Str("email", email).Msg("Login attempt for unknown admin")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(admin.PasswordHash, req.Password) {
		s.logger.Warn().Int64("adminID", admin.ID).Msg("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.tokens.GenerateAccessToken(admin)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("adminID", admin.ID).Msg("Admin logged in")
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		Admin: admin,
	}, nil
}

// EnsureAdmin creates the admin account unless one with email already
// exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, apperrors.NewValidationError("email", "admin email is required")
	}

	_, err := s.admins.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return false, err
	}

	if len(password) < validation.PasswordMinLength {
		return false, apperrors.NewValidationError("password",
			fmt.Sprintf("admin password must be at least %d characters", validation.PasswordMinLength))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	admin := &models.Admin{Email: email, PasswordHash: hash, Name: name}
	if err := s.admins.Create(ctx, admin); err != nil {
		return false, err
	}

	s.logger.Info().Int64("adminID", admin.ID).Str("email", email).Msg("Admin account created")
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
