package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/task-tracker-api/internal/domain"
)

type otpKey struct {
	email   string
	purpose domain.OTPPurpose
}

// OTPStore is a process-local OTP store. Expired records are removed by
// Sweep, which the scheduler runs periodically.
type OTPStore struct {
	mu      sync.Mutex
	records map[otpKey]domain.OTPRecord
	ttl     time.Duration
}

func NewOTPStore(ttl time.Duration) *OTPStore {
	return &OTPStore{records: make(map[otpKey]domain.OTPRecord), ttl: ttl}
}

func (s *OTPStore) Put(_ context.Context, rec *domain.OTPRecord) error {
	rec.ExpiresAt = rec.CreatedAt.Add(s.ttl).Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[otpKey{rec.Email, rec.Purpose}] = *rec
	return nil
}

func (s *OTPStore) Get(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[otpKey{email, purpose}]
	if !ok {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	return &rec, nil
}

func (s *OTPStore) Delete(_ context.Context, email string, purpose domain.OTPPurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, otpKey{email, purpose})
	return nil
}

// Sweep deletes every record whose TTL has elapsed at now and returns how
// many were removed.
func (s *OTPStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, rec := range s.records {
		if rec.Expired(now, s.ttl) {
			delete(s.records, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored records, expired or not.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
