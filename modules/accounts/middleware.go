package accounts

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrymomot/classtrack/pkg/roster"
)

type contextKey struct{ name string }

var claimsKey = contextKey{"accounts:claims"}

// TokenFromRequest extracts the access token from the Authorization header
// (with or without the Bearer prefix) or, failing that, the "token" query
// parameter. Query transport exists for websocket clients that cannot set
// headers.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// Middleware authenticates every request through the service and rejects
// unauthenticated ones with 401. Claims become available to downstream
// handlers via ClaimsFromContext.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFromRequest(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}
			claims, err := svc.ValidateToken(tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims stores the claims in the context.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims set by the middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}

// CurrentUserID returns the authenticated user's id, or empty when absent.
func CurrentUserID(ctx context.Context) string {
	claims, _ := ClaimsFromContext(ctx)
	return claims.UserID
}

// CurrentRole returns the authenticated user's role, or empty when absent.
func CurrentRole(ctx context.Context) roster.Role {
	claims, _ := ClaimsFromContext(ctx)
	return claims.Role
}
