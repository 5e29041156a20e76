package accounts_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/classtrack/modules/accounts"
	"github.com/dmitrymomot/classtrack/pkg/identity"
	"github.com/dmitrymomot/classtrack/pkg/roster"
)

func newService(t *testing.T, cfg accounts.Config) (*accounts.Service, *roster.MemoryStore) {
	t.Helper()
	store := roster.NewMemoryStore()
	alloc := identity.New(store.UserIDExists, store.UsernameExists)
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = "test-secret"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	return accounts.NewService(store, alloc, cfg), store
}

func TestServiceRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("allocates identifiers and hashes the password", func(t *testing.T) {
		t.Parallel()
		svc, store := newService(t, accounts.Config{})

		user, err := svc.Register(ctx, "John Smith", roster.RoleStudent, "correct horse")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(user.ID, "STU"))
		assert.Len(t, user.ID, 9)
		assert.True(t, strings.HasPrefix(user.Username, "j.smith"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))

		stored, err := store.User(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, roster.RoleStudent, stored.Role)
	})

	t.Run("teacher ids use the teacher prefix", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, accounts.Config{})
		user, err := svc.Register(ctx, "Alex Petrov", roster.RoleTeacher, "correct horse")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(user.ID, "TCR"))
	})

	t.Run("input validation", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, accounts.Config{})

		_, err := svc.Register(ctx, "", roster.RoleStudent, "correct horse")
		assert.ErrorIs(t, err, accounts.ErrNameRequired)

		_, err = svc.Register(ctx, "John Smith", roster.Role("ADM"), "correct horse")
		assert.ErrorIs(t, err, accounts.ErrInvalidRole)

		_, err = svc.Register(ctx, "John Smith", roster.RoleStudent, "short")
		assert.ErrorIs(t, err, accounts.ErrWeakPassword)
	})
}

func TestServiceLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials mint a usable token", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, accounts.Config{})
		user, err := svc.Register(ctx, "John Smith", roster.RoleStudent, "correct horse")
		require.NoError(t, err)

		tok, got, err := svc.Login(ctx, user.Username, "correct horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := svc.ValidateToken(tok)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, roster.RoleStudent, claims.Role)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, accounts.Config{})
		user, err := svc.Register(ctx, "John Smith", roster.RoleStudent, "correct horse")
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, user.Username, "wrong")
		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)

		_, _, err = svc.Login(ctx, "nobody", "correct horse")
		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
	})
}

func TestServiceValidateToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, accounts.Config{TokenTTL: -time.Hour})
		user, err := svc.Register(ctx, "John Smith", roster.RoleStudent, "correct horse")
		require.NoError(t, err)

		tok, _, err := svc.Login(ctx, user.Username, "correct horse")
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, accounts.Config{})
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
