// Package auth is the mock login flow of the storefront: configured demo
// accounts exchange their password for an opaque bearer token.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/shopfront/configs"
	"github.com/yourusername/shopfront/pkg/cache"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// Roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const tokenPrefix = "auth:token:"

// User is an authenticated account.
type User struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
}

// IsAdmin reports whether u may mutate products.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the result of a login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type account struct {
	password string
	user     User
}

// Authenticator issues and checks tokens. Tokens live in a TTL cache and
// expire after the configured token TTL.
type Authenticator struct {
	accounts map[string]account
	tokens   cache.ICache
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// New creates an authenticator for the configured accounts.
func New(cfg configs.AuthConfig, tokens cache.ICache, logger *zap.Logger) (*Authenticator, error) {
	if tokens == nil {
		return nil, fmt.Errorf("auth: token cache is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	a := &Authenticator{
		accounts: make(map[string]account, len(cfg.Users)),
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
	for _, u := range cfg.Users {
		name := strings.ToLower(strings.TrimSpace(u.Username))
		if name == "" {
			return nil, fmt.Errorf("auth: user with empty username")
		}
		role := u.Role
		if role == "" {
			role = RoleCustomer
		}
		if role != RoleAdmin && role != RoleCustomer {
			return nil, fmt.Errorf("auth: user %q has unknown role %q", u.Username, u.Role)
		}
		display := u.DisplayName
		if display == "" {
			display = u.Username
		}
		a.accounts[name] = account{
			password: u.Password,
			user:     User{Username: name, Role: role, DisplayName: display},
		}
	}
	return a, nil
}

// Login checks the credentials and issues a token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Session, error) {
	acct, ok := a.accounts[strings.ToLower(strings.TrimSpace(username))]
	if !ok || subtle.ConstantTimeCompare([]byte(acct.password), []byte(password)) != 1 {
		a.logger.Info("login rejected", zap.String("username", username))
		return Session{}, fmt.Errorf("invalid username or password: %w", shoperrors.ErrUnauthorized)
	}

	token := uuid.NewString()
	if err := a.tokens.Set(ctx, tokenPrefix+token, acct.user, a.ttl); err != nil {
		return Session{}, fmt.Errorf("auth: store token: %w", err)
	}
	a.logger.Info("login", zap.String("username", acct.user.Username), zap.String("role", acct.user.Role))
	return Session{Token: token, ExpiresAt: a.now().Add(a.ttl), User: acct.user}, nil
}

// Authenticate returns the user a live token belongs to.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, fmt.Errorf("missing token: %w", shoperrors.ErrUnauthorized)
	}
	v, ok, err := a.tokens.Get(ctx, tokenPrefix+token)
	if err != nil {
		return User{}, fmt.Errorf("auth: load token: %w", err)
	}
	if !ok {
		return User{}, fmt.Errorf("unknown or expired token: %w", shoperrors.ErrUnauthorized)
	}
	return v.(User), nil
}

// Logout revokes token. Revoking an unknown token is not an error.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	_, err := a.tokens.Delete(ctx, tokenPrefix+token)
	return err
}
