package handler

import (
	"net/http"
	"time"

	"skillwise/internal/app/service"
	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/platform/config"

	"github.com/go-chi/chi/v5"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type authResponse struct {
	User        *model.User `json:"user"`
	AccessToken string      `json:"accessToken"`
}

// RegisterRoutes mounts the public token endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Post("/refresh", h.refresh)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	setRefreshCookie(w, res)
	common.RespondWithData(w, http.StatusCreated, "User registered successfully", authResponse{User: res.User, AccessToken: res.AccessToken})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	setRefreshCookie(w, res)
	common.RespondWithData(w, http.StatusOK, "Login successful", authResponse{User: res.User, AccessToken: res.AccessToken})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.authService.Refresh(r.Context(), refreshCookieValue(r))
	if err != nil {
		clearRefreshCookie(w)
		common.RespondWithDomainError(w, err)
		return
	}
	setRefreshCookie(w, res)
	common.RespondWithData(w, http.StatusOK, "Token refreshed", authResponse{User: res.User, AccessToken: res.AccessToken})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), refreshCookieValue(r)); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	clearRefreshCookie(w)
	common.RespondWithData(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", user)
}

// RegisterProtectedRoutes mounts the endpoints that need an access token.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func refreshCookieValue(r *http.Request) string {
	c, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setRefreshCookie(w http.ResponseWriter, res *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    res.RefreshToken.Token,
		Path:     "/api/v1/auth",
		Expires:  res.RefreshToken.ExpiresAt,
		MaxAge:   int(time.Until(res.RefreshToken.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   config.AppConfig.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.AppConfig.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
