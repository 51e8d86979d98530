package middleware

import (
	"fixify/pkg/auth"
	apperrors "fixify/pkg/errors"
	httputil "fixify/pkg/http"
	"fixify/pkg/logger"
	"net/http"
	"slices"
	"strings"

	"github.com/julienschmidt/httprouter"
)

type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// Authenticate attaches the bearer token identity to the request context.
// Requests without a token pass through anonymously; routes that need an
// identity wrap their handle with RequireAuth.
func Authenticate(parser TokenParser, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := parser.Parse(token)
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				writeAuthError(w, log, apperrors.Unauthorized("Not authorized, token failed"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func RequireAuth(log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := auth.IdentityFromContext(r.Context()); !ok {
			writeAuthError(w, log, apperrors.Unauthorized("Not authorized, no token"))
			return
		}
		next(w, r, ps)
	}
}

func RequireRole(log *logger.Logger, next httprouter.Handle, roles ...string) httprouter.Handle {
	return RequireAuth(log, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		identity, _ := auth.IdentityFromContext(r.Context())
		if !slices.Contains(roles, identity.Role) {
			writeAuthError(w, log, apperrors.Forbidden("Access denied"))
			return
		}
		next(w, r, ps)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func writeAuthError(w http.ResponseWriter, log *logger.Logger, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write error response",
			"handler", "middleware",
			"operation", "WriteError",
			"error", writeErr,
		)
	}
}
