package handler

import (
	"context"
	"net/http"

	"github.com/task-tracker-api/internal/application/auth"
	"github.com/task-tracker-api/internal/domain"
	"github.com/task-tracker-api/internal/transport/http/middleware"
)

type authService interface {
	Signup(ctx context.Context, name, email, password string) (*auth.Result, error)
	Login(ctx context.Context, email, password string) (*auth.Result, error)
	CurrentUser(ctx context.Context, token string) (*domain.PublicUser, error)
}

const localModeSuffix = " (LOCAL MODE)"

// AuthHandler serves /api/auth.
type AuthHandler struct {
	svc authService
}

func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authEnvelope("User created successfully", res))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authEnvelope("Login successful", res))
}

// Me resolves the caller from the bearer token itself, so a token for a
// deleted account yields 404 rather than 401.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	u, err := h.svc.CurrentUser(r.Context(), token)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

func authEnvelope(msg string, res *auth.Result) AuthEnvelope {
	if res.LocalMode {
		msg += localModeSuffix
	}
	return AuthEnvelope{Message: msg, Token: res.Token, User: res.User}
}
