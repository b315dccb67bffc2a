package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/task-tracker-api/internal/domain"
	"go.uber.org/zap"
)

// Store holds at most one pending record per (email, purpose).
type Store interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error
}

type userLookup interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type notifier interface {
	SendOTP(ctx context.Context, to string, purpose domain.OTPPurpose, code string) error
}

type Service interface {
	SendCode(ctx context.Context, email string, purpose domain.OTPPurpose) error
	VerifyCode(ctx context.Context, email string, purpose domain.OTPPurpose, code string) error
}

// ServiceDeps holds the dependencies for the OTP service. Generate and Now
// default to the real generator and clock.
type ServiceDeps struct {
	Store    Store
	Users    userLookup
	Notifier notifier
	TTL      time.Duration
	Log      *zap.Logger
	Generate func() (string, error)
	Now      func() time.Time
}

type service struct {
	store    Store
	users    userLookup
	notifier notifier
	ttl      time.Duration
	log      *zap.Logger
	generate func() (string, error)
	now      func() time.Time
}

func NewService(d ServiceDeps) Service {
	s := &service{
		store:    d.Store,
		users:    d.Users,
		notifier: d.Notifier,
		ttl:      d.TTL,
		log:      d.Log,
		generate: d.Generate,
		now:      d.Now,
	}
	if s.generate == nil {
		s.generate = Generate
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SendCode issues a fresh code and emails it. The code is stored only after
// delivery succeeds, so a failed send leaves any earlier pending code usable.
func (s *service) SendCode(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.NewError(domain.ErrValidation, "Email is required")
	}
	if !purpose.Valid() {
		return domain.NewError(domain.ErrValidation, "Invalid purpose")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	switch {
	case purpose == domain.OTPPurposeReset && !exists:
		return domain.NewError(domain.ErrNotFound, "No account found with this email")
	case purpose == domain.OTPPurposeSignup && exists:
		return domain.NewError(domain.ErrConflict, "Email already registered")
	}

	code, err := s.generate()
	if err != nil {
		return err
	}
	if err := s.notifier.SendOTP(ctx, email, purpose, code); err != nil {
		return &domain.UserError{Kind: domain.ErrDelivery, Message: "Failed to send OTP"}
	}

	rec := &domain.OTPRecord{Email: email, Purpose: purpose, Code: code, CreatedAt: s.now().UTC()}
	if err := s.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	s.log.Info("otp issued", zap.String("email", email), zap.String("purpose", string(purpose)))
	return nil
}

// VerifyCode consumes the pending code on success. A wrong code leaves the
// record in place; an expired one is removed.
func (s *service) VerifyCode(ctx context.Context, email string, purpose domain.OTPPurpose, code string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || code == "" {
		return domain.NewError(domain.ErrValidation, "Email and OTP are required")
	}

	rec, err := s.store.Get(ctx, email, purpose)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrOTPNotFound
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if rec.Purpose != purpose {
		return domain.ErrOTPPurposeMismatch
	}
	if rec.Expired(s.now(), s.ttl) {
		if err := s.store.Delete(ctx, email, purpose); err != nil {
			s.log.Warn("failed to delete expired otp", zap.String("email", email), zap.Error(err))
		}
		return domain.ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return domain.ErrOTPMismatch
	}
	if err := s.store.Delete(ctx, email, purpose); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	s.log.Info("otp verified", zap.String("email", email), zap.String("purpose", string(purpose)))
	return nil
}
