package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/task-tracker-api/internal/domain"
)

const otpPrefix = "otp:"

// kv is the subset of the go-redis client the OTP store needs.
type kv interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// OTPStore keeps pending codes as JSON values that Redis expires on its own.
type OTPStore struct {
	client kv
	ttl    time.Duration
}

func NewOTPStore(client kv, ttl time.Duration) *OTPStore {
	return &OTPStore{client: client, ttl: ttl}
}

func otpKey(email string, purpose domain.OTPPurpose) string {
	return otpPrefix + string(purpose) + ":" + email
}

func (s *OTPStore) Put(ctx context.Context, rec *domain.OTPRecord) error {
	rec.ExpiresAt = rec.CreatedAt.Add(s.ttl).Unix()
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	if err := s.client.Set(ctx, otpKey(rec.Email, rec.Purpose), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	raw, err := s.client.Get(ctx, otpKey(email, purpose)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	var rec domain.OTPRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return &rec, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	if err := s.client.Del(ctx, otpKey(email, purpose)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
