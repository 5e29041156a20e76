package accounts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classtrack/modules/accounts"
	"github.com/dmitrymomot/classtrack/pkg/roster"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newService(t, accounts.Config{})
	user, err := svc.Register(ctx, "John Smith", roster.RoleStudent, "correct horse")
	require.NoError(t, err)
	tok, _, err := svc.Login(ctx, user.Username, "correct horse")
	require.NoError(t, err)

	var gotClaims accounts.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = accounts.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := accounts.Middleware(svc)(next)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, user.ID, gotClaims.UserID)
		assert.Equal(t, roster.RoleStudent, gotClaims.Role)
	})

	t.Run("token query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?token="+tok, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredSvc, _ := newService(t, accounts.Config{TokenTTL: -time.Hour})
		u, err := expiredSvc.Register(ctx, "Mary Jones", roster.RoleStudent, "correct horse")
		require.NoError(t, err)
		expiredTok, _, err := expiredSvc.Login(ctx, u.Username, "correct horse")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+expiredTok)
		rec := httptest.NewRecorder()
		accounts.Middleware(expiredSvc)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
