package handler

import (
	"encoding/json"
	"net/http"

	"github.com/task-tracker-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// SendOTPEnvelope answers POST /api/otp/send.
type SendOTPEnvelope struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// VerifyEnvelope answers POST /api/otp/verify, on success and on rejection.
type VerifyEnvelope struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

// ResetEnvelope answers POST /api/otp/reset-password.
type ResetEnvelope struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// AuthEnvelope wraps signup/login responses.
type AuthEnvelope struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	User    *domain.PublicUser `json:"user"`
}

// UserEnvelope wraps GET /api/auth/me.
type UserEnvelope struct {
	User *domain.PublicUser `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// decode reads a JSON body into dst and writes a 400 when it cannot.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
