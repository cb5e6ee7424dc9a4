package service

import (
	"context"
	"testing"

	"stocktake/internal/apierror"
	"stocktake/internal/config"
	"stocktake/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func newAuthFixture(t *testing.T) (AuthService, *stubUserRepo) {
	t.Helper()
	users := newStubUserRepo()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTExpiration:    1,
		JWTRefreshExpiry: 24,
	}
	return NewAuthService(users, cfg), users
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username:  "mgarcia",
		FirstName: "Maria",
		LastName:  "Garcia",
		Password:  "count-all-the-things",
		Role:      "counter",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Garcia", created.DisplayName)

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "mgarcia", Password: "count-all-the-things"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "counter", resp.User.Role)
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "mgarcia", Password: "count-all-the-things", Role: "counter",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "mgarcia", Password: "wrong"})
	assertKind(t, err, apierror.KindUnauthorized)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "wrong"})
	assertKind(t, err, apierror.KindUnauthorized)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "mgarcia", Password: "count-all-the-things", Role: "counter",
	})
	require.NoError(t, err)

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "mgarcia", Password: "count-all-the-things"})
	require.NoError(t, err)

	// An access token must not mint new tokens.
	_, err = svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.AccessToken})
	assertKind(t, err, apierror.KindUnauthorized)

	refreshed, err := svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestDeactivatedUserCannotLoginOrRefresh(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "mgarcia", Password: "count-all-the-things", Role: "counter",
	})
	require.NoError(t, err)

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "mgarcia", Password: "count-all-the-things"})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateUser(ctx, mustUUID(t, created.ID)))

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "mgarcia", Password: "count-all-the-things"})
	assertKind(t, err, apierror.KindUnauthorized)

	_, err = svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assertKind(t, err, apierror.KindUnauthorized)

	require.NoError(t, svc.ReactivateUser(ctx, mustUUID(t, created.ID)))
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "mgarcia", Password: "count-all-the-things"})
	require.NoError(t, err)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "mgarcia", Password: "count-all-the-things", Role: "counter",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "mgarcia", Password: "another-password", Role: "supervisor",
	})
	assertKind(t, err, apierror.KindInvalidInput)
}

func TestUpdateUserPartialFields(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "mgarcia", FirstName: "Maria", Password: "count-all-the-things", Role: "counter",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, mustUUID(t, created.ID), dto.UpdateUserRequest{
		LastName: strPtr("Garcia"),
		Role:     "supervisor",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", updated.FirstName)
	assert.Equal(t, "Garcia", updated.LastName)
	assert.Equal(t, "supervisor", updated.Role)
	assert.Equal(t, "Maria Garcia", updated.DisplayName)
}
