package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/middleware"
	"github.com/trailpeak/tours-api/internal/http/response"
	"github.com/trailpeak/tours-api/internal/service"
	"github.com/trailpeak/tours-api/pkg/config"
)

type AuthHandler struct {
	svc *service.AuthService
	cfg *config.Config
}

func NewAuthHandler(svc *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.Auth.CookieTTL),
		HttpOnly: true,
		Secure:   h.cfg.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, domain.ErrValidation("Invalid JSON body"))
		return
	}

	user, token, err := h.svc.Signup(r.Context(), &req)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.setTokenCookie(w, token)
	response.Auth(w, http.StatusCreated, token, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, domain.ErrValidation("Invalid JSON body"))
		return
	}

	user, token, err := h.svc.Login(r.Context(), &req)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.setTokenCookie(w, token)
	response.Auth(w, http.StatusOK, token, user)
}

// Logout overwrites the jwt cookie with a short-lived dummy value.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	response.Data(w, http.StatusOK, "message", "Logged out")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, domain.ErrValidation("Invalid JSON body"))
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "message", "Token sent to email!")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, domain.ErrValidation("Invalid JSON body"))
		return
	}

	user, token, err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), &req)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.setTokenCookie(w, token)
	response.Auth(w, http.StatusOK, token, user)
}

func (h *AuthHandler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, domain.ErrValidation("Invalid JSON body"))
		return
	}

	current := middleware.CurrentUser(r)
	user, token, err := h.svc.UpdatePassword(r.Context(), current.ID, &req)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.setTokenCookie(w, token)
	response.Auth(w, http.StatusOK, token, user)
}
