package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/shopfront/configs"
	"github.com/yourusername/shopfront/pkg/cache"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

func newAuth(t *testing.T, ttl time.Duration) *Authenticator {
	t.Helper()
	tokens, err := cache.NewWithOptions("tokens", cache.WithMaxEntryCount(0), cache.WithCleanupInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokens.Close() })

	cfg := configs.DefaultConfig().Auth
	cfg.TokenTTL = ttl
	a, err := New(cfg, tokens, nil)
	require.NoError(t, err)
	return a
}

func TestLoginAndAuthenticate(t *testing.T) {
	a := newAuth(t, time.Hour)
	ctx := context.Background()

	sess, err := a.Login(ctx, "Admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.User.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

	u, err := a.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, "Store Admin", u.DisplayName)

	cust, err := a.Login(ctx, "emilys", "emilyspass")
	require.NoError(t, err)
	assert.False(t, cust.User.IsAdmin())
	assert.NotEqual(t, sess.Token, cust.Token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := newAuth(t, time.Hour)
	ctx := context.Background()

	_, err := a.Login(ctx, "admin", "wrong")
	assert.True(t, shoperrors.IsUnauthorized(err))

	_, err = a.Login(ctx, "nobody", "admin123")
	assert.True(t, shoperrors.IsUnauthorized(err))
}

func TestAuthenticateRejectsUnknownToken(t *testing.T) {
	a := newAuth(t, time.Hour)
	ctx := context.Background()

	_, err := a.Authenticate(ctx, "")
	assert.True(t, shoperrors.IsUnauthorized(err))
	_, err = a.Authenticate(ctx, "not-a-token")
	assert.True(t, shoperrors.IsUnauthorized(err))
}

func TestTokenExpires(t *testing.T) {
	a := newAuth(t, 20*time.Millisecond)
	ctx := context.Background()

	sess, err := a.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)

	_, err = a.Authenticate(ctx, sess.Token)
	assert.True(t, shoperrors.IsUnauthorized(err))
}

func TestLogout(t *testing.T) {
	a := newAuth(t, time.Hour)
	ctx := context.Background()

	sess, err := a.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.NoError(t, a.Logout(ctx, sess.Token))
	require.NoError(t, a.Logout(ctx, sess.Token))

	_, err = a.Authenticate(ctx, sess.Token)
	assert.True(t, shoperrors.IsUnauthorized(err))
}

func TestNewRejectsBadUsers(t *testing.T) {
	tokens, err := cache.NewWithOptions("tokens", cache.WithCleanupInterval(0))
	require.NoError(t, err)
	defer tokens.Close()

	_, err = New(configs.AuthConfig{Users: []configs.UserConfig{{Username: "x", Role: "root"}}}, tokens, nil)
	assert.Error(t, err)
	_, err = New(configs.AuthConfig{Users: []configs.UserConfig{{Username: " "}}}, tokens, nil)
	assert.Error(t, err)
	_, err = New(configs.AuthConfig{}, nil, nil)
	assert.Error(t, err)

	a, err := New(configs.AuthConfig{Users: []configs.UserConfig{{Username: "Bob", Password: "pw"}}}, tokens, nil)
	require.NoError(t, err)
	sess, err := a.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, sess.User.Role)
	assert.Equal(t, "Bob", sess.User.DisplayName)
}
