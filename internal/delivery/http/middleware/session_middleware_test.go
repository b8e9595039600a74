package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aetheria-backend/internal/delivery/http/middleware"
	"aetheria-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionEcho(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middleware.SessionID(r.Context())
		require.True(t, ok, "handler must always see a session")
		seen = sid
		w.WriteHeader(http.StatusOK)
	})
	return middleware.SessionMiddleware(time.Hour)(inner), &seen
}

func TestSessionMiddlewareMintsSession(t *testing.T) {
	utils.SetSecret("test-secret")
	handler, seen := sessionEcho(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, *seen)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "cartSession", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	sid, err := utils.ValidateSessionToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, *seen, sid, "cookie and context must agree on the session")
}

func TestSessionMiddlewareReusesValidCookie(t *testing.T) {
	utils.SetSecret("test-secret")
	handler, seen := sessionEcho(t)

	// First request mints the session
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	first := *seen
	cookie := rec.Result().Cookies()[0]

	// Second request presents the cookie and keeps the same session
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)

	assert.Equal(t, first, *seen)
	assert.Empty(t, rec2.Result().Cookies(), "no new cookie when the session is valid")
}

func TestSessionMiddlewareRejectsTamperedCookie(t *testing.T) {
	utils.SetSecret("test-secret")
	handler, seen := sessionEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cartSession", Value: "not-a-real-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, *seen, "a tampered cookie falls back to a fresh session")
	require.Len(t, rec.Result().Cookies(), 1, "fresh session cookie is set")
}

func TestSessionTokenRoundTrip(t *testing.T) {
	utils.SetSecret("test-secret")

	token, err := utils.GenerateSessionToken("sess-42", time.Hour)
	require.NoError(t, err)

	sid, err := utils.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-42", sid)

	// A token signed with another key is rejected
	utils.SetSecret("other-secret")
	_, err = utils.ValidateSessionToken(token)
	assert.Error(t, err)
}
