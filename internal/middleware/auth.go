package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"worldmap-server/internal/auth"
	"worldmap-server/internal/shared/errors"
	"worldmap-server/internal/shared/response"
)

type contextKey string

const UserContextKey contextKey = "user"

type Auth struct {
	issuer *auth.TokenIssuer
}

func NewAuth(issuer *auth.TokenIssuer) *Auth {
	return &Auth{issuer: issuer}
}

// JWT accepts a bearer token or, for browser clients, the auth_token cookie.
func (a *Auth) JWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "jwt",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		logger.Debug("Processing JWT authentication")

		token := bearerToken(r)
		if token == "" {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		claims, err := a.issuer.Validate(token)
		if err != nil {
			response.Error(w, r, logger, errors.Unauthorized("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		logger.Debug("JWT authentication successful", "subject", claims.Subject, "role", claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAdmin chains JWT authentication and the admin role check.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return a.JWT(AdminMiddleware(next))
}

func GetUserFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(UserContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
