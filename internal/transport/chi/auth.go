package chi

import (
	"net/http"
	"strings"

	"github.com/contentdex/contentdex/internal/auth"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware extracts the Bearer session token and stores it in the
// request context. Token validation happens per operation in the session
// provider, so a revoked session is rejected on its next use, not cached.
func BearerAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "unauthenticated",
					"authorization header must use Bearer scheme")
				return
			}

			token := header[len(bearerPrefix):]
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "empty bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithToken(r.Context(), token)))
		})
	}
}
