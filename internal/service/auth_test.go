package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLogin    = "student01"
	testPassword = "Secr3t!pass"
)

func newTestService(t *testing.T) (*Service, *fakeUsers, *fakeDocs) {
	t.Helper()
	users, docs := newFakeUsers(), newFakeDocs()
	svc := NewService(users, docs, cache.NewMemory(60, 300, 0), "test-secret", time.Hour, nil)
	return svc, users, docs
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newTestService(t)

	user, err := svc.Register(ctx, testLogin, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testLogin, user.Login)
	assert.NotEqual(t, testPassword, users.users[testLogin].PasswordHash)

	_, err = svc.Register(ctx, testLogin, testPassword)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
	assert.EqualError(t, err, "user with this login already exists")

	_, err = svc.Register(ctx, "short", testPassword)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, err = svc.Register(ctx, "another01", "weak")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestAuthenticateAndValidate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	user, err := svc.Register(ctx, testLogin, testPassword)
	require.NoError(t, err)

	token, expires, err := svc.Authenticate(ctx, testLogin, testPassword)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	principal, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, testLogin, principal.Login)

	me, err := svc.CurrentUser(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.Register(ctx, testLogin, testPassword)
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, testLogin, "Wr0ng!pass")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))

	_, _, err = svc.Authenticate(ctx, "nobody001", testPassword)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

func TestValidateTokenRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.Register(ctx, testLogin, testPassword)
	require.NoError(t, err)
	token, _, err := svc.Authenticate(ctx, testLogin, testPassword)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewService(newFakeUsers(), newFakeDocs(), nil, "other-secret", time.Hour, nil)
		_, err := other.ValidateToken(ctx, token)
		assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	})

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()
		_, err := svc.ValidateToken(ctx, token)
		assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	})
}

func TestLogoutBlacklistsToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.Register(ctx, testLogin, testPassword)
	require.NoError(t, err)
	token, _, err := svc.Authenticate(ctx, testLogin, testPassword)
	require.NoError(t, err)
	principal, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, principal))

	_, err = svc.ValidateToken(ctx, token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "logged out")

	// Новый вход выдаёт другой токен, он работает
	fresh, _, err := svc.Authenticate(ctx, testLogin, testPassword)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, fresh)
	assert.NoError(t, err)
}
