package middleware

import (
	"context"
	"errors"
	"net/http"

	"skillwise/internal/common"
	"skillwise/internal/common/security"
	"skillwise/internal/platform/metrics"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const UserIDCtxKey contextKey = "userID"

// Authenticator requires a valid access token, as placed in the context by
// jwtauth.Verifier, and stores the caller's id for handlers.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			reason := "invalid"
			message := "Invalid token"
			if token == nil && (err == nil || errors.Is(err, jwtauth.ErrNoTokenFound)) {
				reason = "missing"
				message = "Authorization token required"
			}
			metrics.AuthRejections.WithLabelValues(reason).Inc()
			common.RespondWithError(w, http.StatusUnauthorized, message)
			return
		}
		if !security.IsAccessToken(claims) {
			metrics.AuthRejections.WithLabelValues("wrong_type").Inc()
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token type")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			metrics.AuthRejections.WithLabelValues("claims").Inc()
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}
