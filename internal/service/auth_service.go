package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

var (
	// ErrUsernameTaken indicates a signup collided with an existing account.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials indicates the username or password did not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrStudentNotFound indicates the authenticated user has no student profile.
	ErrStudentNotFound = errors.New("student profile not found")
)

// AuthService registers and authenticates students.
type AuthService interface {
	Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, userID uint) (models.StudentProfile, error)
}

type authService struct {
	users      repository.UserRepository
	students   repository.StudentRepository
	tokens     *TokenIssuer
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	bcryptCost int
}

// NewAuthService constructs the student authentication service.
func NewAuthService(users repository.UserRepository, students repository.StudentRepository, tokens *TokenIssuer, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		students:   students,
		tokens:     tokens,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "auth_service").Logger(),
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *authService) Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error) {
	payload.FullName = strings.TrimSpace(s.sanitizer.Sanitize(payload.FullName))
	payload.Section = strings.TrimSpace(s.sanitizer.Sanitize(payload.Section))
	payload.Username = strings.TrimSpace(payload.Username)

	if err := validateStruct(s.validator, payload); err != nil {
		return dto.AuthResponse{}, err
	}

	exists, err := s.users.ExistsByUsername(ctx, payload.Username)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if exists {
		return dto.AuthResponse{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.bcryptCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{Username: payload.Username, PasswordHash: string(hash)}
	profile := models.StudentProfile{
		FullName: payload.FullName,
		Age:      uint(payload.Age),
		Section:  payload.Section,
	}
	if err := s.students.CreateWithUser(ctx, &user, &profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, ErrUsernameTaken
		}
		s.logger.Error().Err(err).Str("username", payload.Username).Msg("failed to create student account")
		return dto.AuthResponse{}, err
	}
	profile.User = user

	s.logger.Info().Uint("student_id", profile.ID).Msg("student registered")
	return s.issue(profile)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	profile, err := s.students.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrStudentNotFound
		}
		return dto.AuthResponse{}, err
	}

	return s.issue(profile)
}

func (s *authService) Profile(ctx context.Context, userID uint) (models.StudentProfile, error) {
	profile, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StudentProfile{}, ErrStudentNotFound
		}
		return models.StudentProfile{}, err
	}
	return profile, nil
}

func (s *authService) issue(profile models.StudentProfile) (dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(profile.UserID, RoleStudent)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	student := dto.NewStudentProfileResponse(profile)
	return dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      RoleStudent,
		Student:   &student,
	}, nil
}
