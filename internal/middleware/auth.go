package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"empires-server/internal/auth"
	"empires-server/internal/shared/errors"
	"empires-server/internal/shared/response"
)

type contextKey string

const CommanderContextKey contextKey = "commander"

// JWTMiddleware accepts a commander token from the Authorization header or,
// for browser clients, the auth_token cookie.
func JWTMiddleware(next http.Handler) http.Handler {
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

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, r, logger, errors.Unauthorized("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), CommanderContextKey, claims)
		logger.Debug("JWT authentication successful",
			"empire_id", claims.EmpireID,
			"commander", claims.Commander,
			"role", claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func GetCommanderFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(CommanderContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
