package middleware

import (
	"context"
	"net/http"
	"time"

	"aetheria-backend/internal/domain"
	"aetheria-backend/pkg/logger"
	"aetheria-backend/pkg/utils"

	"github.com/google/uuid"
)

const sessionCookie = "cartSession"

// SessionMiddleware resolves the cart session for the request. A valid signed
// session cookie is reused; anything else gets a fresh session ID minted and
// set on the response. Every downstream handler can rely on a session ID
// being present in the request context.
//
// This is cart identity only, not authentication.
func SessionMiddleware(sessionTTL time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(sessionCookie); err == nil {
				if sid, err := utils.ValidateSessionToken(cookie.Value); err == nil {
					sessionID = sid
				}
			}

			if sessionID == "" {
				sessionID = uuid.New().String()
				token, err := utils.GenerateSessionToken(sessionID, sessionTTL)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to mint session token")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(sessionTTL.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), domain.SessionContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID extracts the cart session ID placed in the context by
// SessionMiddleware.
func SessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(domain.SessionContextKey).(string)
	return sid, ok && sid != ""
}
