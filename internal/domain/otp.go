package domain

import "time"

// OTPPurpose tags what a code may be used for. A code issued for one purpose
// never validates a request for another.
type OTPPurpose string

const (
	OTPPurposeSignup OTPPurpose = "signup"
	OTPPurposeReset  OTPPurpose = "reset"
)

func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeSignup || p == OTPPurposeReset
}

// OTPRecord is the single pending code for an (email, purpose) pair.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPRecord struct {
	Email     string     `json:"email" dynamodbav:"email"`
	Purpose   OTPPurpose `json:"purpose" dynamodbav:"purpose"`
	Code      string     `json:"otp" dynamodbav:"code"`
	CreatedAt time.Time  `json:"createdAt" dynamodbav:"created_at"`
	ExpiresAt int64      `json:"expiresAt" dynamodbav:"expires_at"`
}

// Expired reports whether the record is past ttl at now. A record is expired
// from createdAt+ttl onwards.
func (r *OTPRecord) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(r.CreatedAt.Add(ttl))
}
