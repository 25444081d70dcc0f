package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"empires-server/internal/shared/errors"
	"empires-server/internal/shared/response"
)

// RequireEmpireAccess authenticates the request and checks that the token may
// command the empire named by the {id} path value.
func RequireEmpireAccess(next http.Handler) http.Handler {
	return JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "empire_access",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetCommanderFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		empireID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid empire ID format", err))
			return
		}

		if !claims.CanCommand(empireID) {
			logger.Warn("Commander attempted to command another empire",
				"token_empire_id", claims.EmpireID,
				"empire_id", empireID,
				"commander", claims.Commander)
			response.Error(w, r, logger, errors.Forbidden("token does not command this empire"))
			return
		}

		next.ServeHTTP(w, r)
	}))
}
