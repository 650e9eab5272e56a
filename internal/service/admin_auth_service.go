package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

// AdminAuthService authenticates back-office operators.
type AdminAuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AdminLoginResponse, error)
	EnsureAccount(ctx context.Context, username, password string) error
}

type adminAuthService struct {
	repo       repository.AdminAccountRepository
	tokens     *TokenIssuer
	validator  *validator.Validate
	logger     zerolog.Logger
	bcryptCost int
}

// NewAdminAuthService constructs the admin authentication service.
func NewAdminAuthService(repo repository.AdminAccountRepository, tokens *TokenIssuer, validate *validator.Validate, logger zerolog.Logger) AdminAuthService {
	return &adminAuthService{
		repo:       repo,
		tokens:     tokens,
		validator:  validate,
		logger:     logger.With().Str("component", "admin_auth_service").Logger(),
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *adminAuthService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AdminLoginResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.AdminLoginResponse{}, err
	}

	account, err := s.repo.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminLoginResponse{}, ErrInvalidCredentials
		}
		return dto.AdminLoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Warn().Str("username", account.Username).Msg("admin login rejected")
		return dto.AdminLoginResponse{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, RoleAdmin)
	if err != nil {
		return dto.AdminLoginResponse{}, err
	}

	return dto.AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      RoleAdmin,
		Username:  account.Username,
	}, nil
}

// EnsureAccount creates the bootstrap admin or resets its password. Blank
// credentials are ignored.
func (s *adminAuthService) EnsureAccount(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}

	account, err := s.repo.Upsert(ctx, username, string(hash))
	if err != nil {
		return err
	}

	s.logger.Info().Uint("admin_id", account.ID).Str("username", account.Username).Msg("admin account ensured")
	return nil
}
