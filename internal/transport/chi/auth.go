package chi

import (
	"net/http"
	"strings"
)

// probePaths stay reachable without credentials so load balancers,
// prometheus scrapers, and the assistant availability probe keep working
// when API keys are configured.
var probePaths = map[string]bool{
	"/health":          true,
	"/metrics":         true,
	"/api/chat/health": true,
}

const bearerPrefix = "Bearer "

// BearerAuthMiddleware validates the Authorization bearer token against
// the configured API keys. An empty key list disables authentication
// entirely; empty strings in the list are ignored.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized,
					codeUnauthorized, "missing or malformed authorization header")
				return
			}
			if !keys[token] {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Any other scheme reports false.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", false
	}
	token := auth[len(bearerPrefix):]
	return token, token != ""
}
