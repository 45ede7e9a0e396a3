package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
)

type contextKey string

const sessionClaimsKey contextKey = "sessionClaims"

// TokenVerifier is satisfied by *accounts.TokenIssuer.
type TokenVerifier interface {
	Parse(token string) (*accounts.Claims, error)
}

// Session requires a valid session token as a Bearer header. When
// allowQuery is set a "token" query parameter is accepted too, for browser
// websocket clients that cannot set headers.
func Session(verifier TokenVerifier, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				writeError(w, http.StatusUnauthorized, "session auth disabled")
				return
			}
			token := bearerToken(r)
			if token == "" && allowQuery {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing session token")
				return
			}
			claims, err := verifier.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects sessions whose role is not listed with 403.
func RequireRole(roles ...accounts.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing session")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

// WithClaims stores session claims on ctx.
func WithClaims(ctx context.Context, claims *accounts.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// ClaimsFromContext returns the session claims if present.
func ClaimsFromContext(ctx context.Context) (*accounts.Claims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(*accounts.Claims)
	return claims, ok && claims != nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
