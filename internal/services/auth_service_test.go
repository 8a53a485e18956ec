package services

import (
	"testing"

	"barpos_backend/internal/models"
	"barpos_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := utils.InitJWTSecret("test-secret-key-for-auth-service"); err != nil {
		panic(err)
	}
}

func newAuthServiceForTest(t *testing.T) (AuthService, *fakeAuthRepo) {
	t.Helper()
	repo := newFakeAuthRepo()
	return NewAuthService(repo, newStubDB(t)), repo
}

func TestRegisterUserDefaultsToManagerRole(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	user, err := svc.RegisterUser(RegisterUserRequest{
		Username: "alex",
		Email:    "alex@example.com",
		Password: "long-enough-password",
		FullName: "Alex Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, user.Role)
}

func TestRegisterUserRejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.RegisterUser(RegisterUserRequest{
		Username: "alex",
		Email:    "alex@example.com",
		Password: "long-enough-password",
		FullName: "Alex Doe",
		Role:     "Superuser",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRegisterUserDuplicateUsername(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	req := RegisterUserRequest{
		Username: "alex",
		Email:    "alex@example.com",
		Password: "long-enough-password",
		FullName: "Alex Doe",
	}
	_, err := svc.RegisterUser(req)
	require.NoError(t, err)

	req.Email = "other@example.com"
	_, err = svc.RegisterUser(req)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLoginUserRoundTrip(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.RegisterUser(RegisterUserRequest{
		Username: "alex",
		Email:    "alex@example.com",
		Password: "long-enough-password",
		FullName: "Alex Doe",
	})
	require.NoError(t, err)

	resp, err := svc.LoginUser(LoginRequest{Username: "alex", Password: "long-enough-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := utils.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alex", claims.Username)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestLoginUserWrongPassword(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.RegisterUser(RegisterUserRequest{
		Username: "alex",
		Email:    "alex@example.com",
		Password: "long-enough-password",
		FullName: "Alex Doe",
	})
	require.NoError(t, err)

	_, err = svc.LoginUser(LoginRequest{Username: "alex", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LoginUser(LoginRequest{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.RegisterUser(RegisterUserRequest{
		Username: "alex",
		Email:    "alex@example.com",
		Password: "long-enough-password",
		FullName: "Alex Doe",
	})
	require.NoError(t, err)

	login, err := svc.LoginUser(LoginRequest{Username: "alex", Password: "long-enough-password"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "alex", refreshed.User.Username)

	_, err = svc.RefreshToken(RefreshTokenRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
