package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	db := setupServiceDB(t)
	svc := NewAuthService(repository.NewUserRepository(db), repository.NewStudentRepository(db), NewTokenIssuer("secret", time.Hour), NewValidator(), testLogger())
	svc.(*authService).bcryptCost = bcrypt.MinCost
	return svc
}

func signupRequest(username string) dto.SignupRequest {
	return dto.SignupRequest{FullName: "Maria Santos", Age: 15, Section: "10-A", Username: username, Password: "s3cret!"}
}

func TestAuthServiceSignupCreatesAccountAndProfile(t *testing.T) {
	svc := newTestAuthService(t)

	response, err := svc.Signup(context.Background(), signupRequest("maria"))
	require.NoError(t, err)
	require.NotEmpty(t, response.Token)
	require.Equal(t, RoleStudent, response.Role)
	require.NotNil(t, response.Student)
	require.Equal(t, "maria", response.Student.Username)
	require.Equal(t, "10-A", response.Student.Section)
	require.Nil(t, response.Student.LastUpdate)
}

func TestAuthServiceSignupRejectsDuplicateUsername(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAuthService(repository.NewUserRepository(db), repository.NewStudentRepository(db), NewTokenIssuer("secret", time.Hour), NewValidator(), testLogger())
	svc.(*authService).bcryptCost = bcrypt.MinCost
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupRequest("maria"))
	require.NoError(t, err)

	_, err = svc.Signup(ctx, signupRequest("maria"))
	require.ErrorIs(t, err, ErrUsernameTaken)

	var users, profiles int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.StudentProfile{}).Count(&profiles).Error)
	require.EqualValues(t, 1, users)
	require.EqualValues(t, 1, profiles)
}

func TestAuthServiceSignupValidatesFields(t *testing.T) {
	svc := newTestAuthService(t)

	payload := signupRequest("")
	payload.Age = 0
	payload.FullName = "<b></b>"

	_, err := svc.Signup(context.Background(), payload)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "username")
	require.Contains(t, verr.Fields, "age")
	require.Contains(t, verr.Fields, "full_name")
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupRequest("juan"))
	require.NoError(t, err)

	response, err := svc.Login(ctx, dto.LoginRequest{Username: "juan", Password: "s3cret!"})
	require.NoError(t, err)
	require.NotEmpty(t, response.Token)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "juan", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "s3cret!"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceProfileMissing(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Profile(context.Background(), 999)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAdminAuthServiceEnsureAccountAndLogin(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAdminAuthService(repository.NewAdminAccountRepository(db), NewTokenIssuer("secret", time.Hour), NewValidator(), testLogger())
	svc.(*adminAuthService).bcryptCost = bcrypt.MinCost
	ctx := context.Background()

	require.NoError(t, svc.EnsureAccount(ctx, "coach", "first"))
	require.NoError(t, svc.EnsureAccount(ctx, "coach", "second"))
	require.NoError(t, svc.EnsureAccount(ctx, "", "ignored"))

	var count int64
	require.NoError(t, db.Model(&models.AdminAccount{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var stored models.AdminAccount
	require.NoError(t, db.Where("username = ?", "coach").First(&stored).Error)
	require.NotEqual(t, "second", stored.PasswordHash)

	_, err := svc.Login(ctx, dto.LoginRequest{Username: "coach", Password: "first"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	response, err := svc.Login(ctx, dto.LoginRequest{Username: "coach", Password: "second"})
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, response.Role)
	require.Equal(t, "coach", response.Username)
}
