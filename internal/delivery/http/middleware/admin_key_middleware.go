package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminKeyMiddleware guards the admin promo endpoints with a static API key
// passed in the X-Admin-Key header. There are no user accounts in this
// service, so role-based checks have nothing to hang off; a shared key for
// the admin console is the whole story. An empty configured key disables the
// endpoints entirely.
func AdminKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				http.Error(w, "Admin API disabled", http.StatusForbidden)
				return
			}

			provided := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				http.Error(w, "Forbidden: Invalid admin key", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
