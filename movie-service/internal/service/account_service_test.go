package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/jwt"
)

func newAccounts(t *testing.T) (AccountService, *jwt.Manager) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := jwt.NewManagerWithKey(key, jwt.Config{AccessDuration: time.Hour, RefreshDuration: 24 * time.Hour})
	return NewAccountService(repository.NewGormAccountRepository(newTestDB(t)), tokens), tokens
}

func TestAccount_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newAccounts(t)

	res, err := svc.Signup(ctx, &domain.SignupRequest{Username: " neo ", Email: "Neo@Example.com", Password: "followthewhiterabbit"})
	require.NoError(t, err)
	assert.Equal(t, "neo", res.User.Username)
	assert.Equal(t, "neo@example.com", res.User.Email)
	assert.True(t, res.AccessExpiresAt.Before(res.RefreshExpiresAt))

	claims, err := tokens.ValidateAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "neo", claims.Username)

	login, err := svc.Login(ctx, &domain.LoginRequest{Email: "NEO@example.com", Password: "followthewhiterabbit"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "neo@example.com", Password: "bluepill"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "smith@example.com", Password: "followthewhiterabbit"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccount_SignupRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccounts(t)

	_, err := svc.Signup(ctx, &domain.SignupRequest{Username: "neo", Email: "neo@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Signup(ctx, &domain.SignupRequest{Username: "neo", Email: "neo@example.com", Password: "followthewhiterabbit"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, &domain.SignupRequest{Username: "neo2", Email: "neo@example.com", Password: "followthewhiterabbit"})
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = svc.Signup(ctx, &domain.SignupRequest{Username: "neo", Email: "other@example.com", Password: "followthewhiterabbit"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestAccount_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccounts(t)

	res, err := svc.Signup(ctx, &domain.SignupRequest{Username: "trinity", Email: "trinity@example.com", Password: "followthewhiterabbit"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "trinity", refreshed.User.Username)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, res.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken, "access tokens cannot refresh")

	svc.Logout(ctx, res.User.ID)
	_, err = svc.Refresh(ctx, refreshed.RefreshToken)
	assert.ErrorIs(t, err, jwt.ErrRevokedToken)

	user, err := svc.GetUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "trinity@example.com", user.Email)
}
