package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/task-tracker-api/internal/domain"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestOTPStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore(5 * time.Minute)

	_, err := s.Get(ctx, "a@b.com", domain.OTPPurposeSignup)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "a@b.com", Purpose: domain.OTPPurposeSignup, Code: "111111", CreatedAt: base}))
	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "a@b.com", Purpose: domain.OTPPurposeSignup, Code: "222222", CreatedAt: base.Add(time.Second)}))

	rec, err := s.Get(ctx, "a@b.com", domain.OTPPurposeSignup)
	require.NoError(t, err)
	assert.Equal(t, "222222", rec.Code)
	assert.Equal(t, 1, s.Len())

	// Purposes are independent keys.
	_, err = s.Get(ctx, "a@b.com", domain.OTPPurposeReset)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "a@b.com", domain.OTPPurposeSignup))
	require.NoError(t, s.Delete(ctx, "a@b.com", domain.OTPPurposeSignup))
	assert.Equal(t, 0, s.Len())
}

func TestOTPStore_Get_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore(5 * time.Minute)
	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "a@b.com", Purpose: domain.OTPPurposeReset, Code: "111111", CreatedAt: base}))

	rec, err := s.Get(ctx, "a@b.com", domain.OTPPurposeReset)
	require.NoError(t, err)
	rec.Code = "999999"

	again, err := s.Get(ctx, "a@b.com", domain.OTPPurposeReset)
	require.NoError(t, err)
	assert.Equal(t, "111111", again.Code)
}

func TestOTPStore_Sweep_RemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore(5 * time.Minute)
	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "old@b.com", Purpose: domain.OTPPurposeSignup, Code: "111111", CreatedAt: base}))
	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "new@b.com", Purpose: domain.OTPPurposeSignup, Code: "222222", CreatedAt: base.Add(2 * time.Minute)}))

	assert.Equal(t, 0, s.Sweep(base.Add(5*time.Minute-time.Nanosecond)))
	assert.Equal(t, 1, s.Sweep(base.Add(5*time.Minute)))

	_, err := s.Get(ctx, "old@b.com", domain.OTPPurposeSignup)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Get(ctx, "new@b.com", domain.OTPPurposeSignup)
	assert.NoError(t, err)
}
