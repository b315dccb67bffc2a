package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPRecord_Expired(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := &OTPRecord{CreatedAt: created}
	ttl := 5 * time.Minute

	assert.False(t, r.Expired(created, ttl))
	assert.False(t, r.Expired(created.Add(ttl-time.Second), ttl))
	assert.True(t, r.Expired(created.Add(ttl), ttl))
	assert.True(t, r.Expired(created.Add(time.Hour), ttl))
}

func TestOTPPurpose_Valid(t *testing.T) {
	assert.True(t, OTPPurposeSignup.Valid())
	assert.True(t, OTPPurposeReset.Valid())
	assert.False(t, OTPPurpose("login").Valid())
	assert.False(t, OTPPurpose("").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
