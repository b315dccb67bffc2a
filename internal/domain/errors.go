package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDelivery              = errors.New("delivery failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrOTPRejected           = errors.New("otp rejected")
)

// OTP verification outcomes. All of them are ErrOTPRejected.
var (
	ErrOTPNotFound        = &UserError{Kind: ErrOTPRejected, Message: "No OTP found for this email (or expired)"}
	ErrOTPExpired         = &UserError{Kind: ErrOTPRejected, Message: "OTP has expired"}
	ErrOTPMismatch        = &UserError{Kind: ErrOTPRejected, Message: "Invalid OTP"}
	ErrOTPPurposeMismatch = &UserError{Kind: ErrOTPRejected, Message: "Invalid OTP purpose"}
)

// UserError carries a client-facing message alongside a sentinel kind.
// errors.Is(err, kind) keeps working while Message stays free of wrapping noise.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Kind }

// NewError builds a UserError of the given kind.
func NewError(kind error, msg string) error {
	return &UserError{Kind: kind, Message: msg}
}

// MessageOf returns the client-facing message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return fallback
}
