package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillwise/internal/common/security"
	"skillwise/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func setupJWT(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:        []byte("access-secret-for-tests"),
		JWTRefreshKey: []byte("refresh-secret-for-tests"),
		JWTAccessTTL:  15 * time.Minute,
		JWTRefreshTTL: time.Hour,
	}
	security.InitJWT()
}

func TestAuthenticator(t *testing.T) {
	setupJWT(t)

	var seen int64
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(Authenticator)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	access, err := security.GenerateAccessToken(42, "ada@example.com")
	require.NoError(t, err)
	refresh, err := security.GenerateRefreshToken(42)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh.Token, http.StatusUnauthorized},
		{"access token", "Bearer " + access, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, int64(42), seen)
}

func TestRateLimiter_PerIP(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	h := limiter.Middleware(http.HandlerFunc(okHandler))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000"))
}

func TestBasicAuth(t *testing.T) {
	h := BasicAuth("metrics", "ops", "secret")(http.HandlerFunc(okHandler))
	disabled := BasicAuth("metrics", "", "")(http.HandlerFunc(okHandler))

	tests := []struct {
		name       string
		handler    http.Handler
		user, pass string
		want       int
	}{
		{"valid", h, "ops", "secret", http.StatusNoContent},
		{"wrong password", h, "ops", "guess", http.StatusUnauthorized},
		{"no credentials", h, "", "", http.StatusUnauthorized},
		{"unconfigured", disabled, "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `realm="metrics"`)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("", "")
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMonitorUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Monitor)
	r.Get("/goals/{goalID}", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/goals/7", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
