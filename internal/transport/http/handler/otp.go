package handler

import (
	"context"
	"net/http"

	"github.com/task-tracker-api/internal/domain"
)

type otpService interface {
	SendCode(ctx context.Context, email string, purpose domain.OTPPurpose) error
	VerifyCode(ctx context.Context, email string, purpose domain.OTPPurpose, code string) error
}

type passwordResetter interface {
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// OTPHandler serves /api/otp.
type OTPHandler struct {
	otp   otpService
	reset passwordResetter
}

func NewOTPHandler(otp otpService, reset passwordResetter) *OTPHandler {
	return &OTPHandler{otp: otp, reset: reset}
}

type sendOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type verifyOTPRequest struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.otp.SendCode(r.Context(), req.Email, domain.OTPPurpose(req.Purpose)); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendOTPEnvelope{
		Message: "OTP sent successfully. Please check your email.",
		Email:   req.Email,
	})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	purpose := domain.OTPPurpose(req.Purpose)
	if purpose == "" {
		purpose = domain.OTPPurposeSignup
	}
	if err := h.otp.VerifyCode(r.Context(), req.Email, purpose, req.OTP); err != nil {
		status := statusOf(err)
		if status == http.StatusBadRequest {
			writeJSON(w, status, VerifyEnvelope{Message: domain.MessageOf(err, serverError)})
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Message: "OTP verified successfully", Verified: true})
}

func (h *OTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.reset.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetEnvelope{Message: "Password reset successfully", Success: true})
}
