package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/dukerupert/taxsim/internal/domain"
)

const basicRealm = `Basic realm="taxsim", charset="UTF-8"`

// Authenticator verifies HTTP Basic credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Principal, error)
}

// BasicAuth requires HTTP Basic credentials on every request and stores the
// resolved principal in the context. Failures answer 401 with a challenge.
func BasicAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", basicRealm)
				respondUnauthorized(w, r)
				return
			}

			principal, err := authn.Authenticate(r.Context(), username, password)
			if err != nil {
				if domain.IsCode(err, domain.EUNAUTHORIZED) {
					w.Header().Set("WWW-Authenticate", basicRealm)
				}
				respondWithError(w, r, err)
				return
			}

			ctx := domain.WithPrincipal(r.Context(), principal)
			logger := GetLogger(ctx).With(
				slog.String("principal", principal.Username),
				slog.String("role", string(principal.Role)),
			)
			ctx = withLogger(ctx, logger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole answers 403 unless the principal holds one of roles. It must
// run after BasicAuth; without a principal it answers 401.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := domain.PrincipalFromContext(r.Context())
			if principal == nil {
				w.Header().Set("WWW-Authenticate", basicRealm)
				respondUnauthorized(w, r)
				return
			}
			if !slices.Contains(roles, principal.Role) {
				respondForbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
