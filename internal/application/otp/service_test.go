package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/task-tracker-api/internal/domain"
	"github.com/task-tracker-api/internal/infrastructure/memory"
)

// --- mocks ---

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendOTP(ctx context.Context, to string, purpose domain.OTPPurpose, code string) error {
	return m.Called(ctx, to, purpose, code).Error(0)
}

type mockLookup struct{ mock.Mock }

func (m *mockLookup) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// --- helpers ---

const ttl = 5 * time.Minute

type fixture struct {
	svc      Service
	store    *memory.OTPStore
	users    *memory.UserRepo
	notifier *mockNotifier
	clock    *time.Time
	codes    []string
}

func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewOTPStore(ttl),
		users:    memory.NewUserRepo(),
		notifier: new(mockNotifier),
		codes:    codes,
	}
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f.clock = &clock
	f.svc = NewService(ServiceDeps{
		Store:    f.store,
		Users:    f.users,
		Notifier: f.notifier,
		TTL:      ttl,
		Now:      func() time.Time { return *f.clock },
		Generate: func() (string, error) {
			if len(f.codes) == 0 {
				return Generate()
			}
			c := f.codes[0]
			f.codes = f.codes[1:]
			return c, nil
		},
	})
	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func (f *fixture) addUser(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), &domain.User{UserID: "u-" + email, Email: email}))
}

// --- SendCode ---

func TestSendCode_ThenVerifyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var sent string
	f.notifier.On("SendOTP", ctx, "alice@example.com", domain.OTPPurposeSignup, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.String(3) }).Return(nil)

	require.NoError(t, f.svc.SendCode(ctx, "alice@example.com", domain.OTPPurposeSignup))
	require.Len(t, sent, 6)

	require.NoError(t, f.svc.VerifyCode(ctx, "alice@example.com", domain.OTPPurposeSignup, sent))
	err := f.svc.VerifyCode(ctx, "alice@example.com", domain.OTPPurposeSignup, sent)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
	assert.ErrorIs(t, err, domain.ErrOTPRejected)
}

func TestSendCode_SecondSendInvalidatesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "111111", "222222")
	f.notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup))
	require.NoError(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup))

	assert.ErrorIs(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "111111"), domain.ErrOTPMismatch)
	assert.NoError(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "222222"))
}

func TestSendCode_NormalisesEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "123456")
	f.notifier.On("SendOTP", ctx, "alice@example.com", domain.OTPPurposeSignup, "123456").Return(nil)

	require.NoError(t, f.svc.SendCode(ctx, "  Alice@Example.COM ", domain.OTPPurposeSignup))
	assert.NoError(t, f.svc.VerifyCode(ctx, "ALICE@example.com", domain.OTPPurposeSignup, "123456"))
	f.notifier.AssertExpectations(t)
}

func TestSendCode_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.SendCode(ctx, "   ", domain.OTPPurposeSignup)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Email is required", domain.MessageOf(err, ""))

	err = f.svc.SendCode(ctx, "a@b.com", domain.OTPPurpose("login"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	f.notifier.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendCode_ResetRequiresAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.SendCode(ctx, "ghost@b.com", domain.OTPPurposeReset)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "No account found with this email", domain.MessageOf(err, ""))
	assert.Equal(t, 0, f.store.Len())
}

func TestSendCode_SignupRejectsExistingAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "taken@b.com")

	err := f.svc.SendCode(ctx, "Taken@B.com", domain.OTPPurposeSignup)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Email already registered", domain.MessageOf(err, ""))
}

func TestSendCode_ResetForExistingAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "654321")
	f.addUser(t, "bo@b.com")
	f.notifier.On("SendOTP", ctx, "bo@b.com", domain.OTPPurposeReset, "654321").Return(nil)

	require.NoError(t, f.svc.SendCode(ctx, "bo@b.com", domain.OTPPurposeReset))
	assert.NoError(t, f.svc.VerifyCode(ctx, "bo@b.com", domain.OTPPurposeReset, "654321"))
}

func TestSendCode_DeliveryFailureKeepsPreviousCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "111111", "222222")
	f.notifier.On("SendOTP", ctx, "a@b.com", domain.OTPPurposeSignup, "111111").Return(nil).Once()
	f.notifier.On("SendOTP", ctx, "a@b.com", domain.OTPPurposeSignup, "222222").
		Return(errors.New("smtp down")).Once()

	require.NoError(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup))
	err := f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup)
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.Equal(t, "Failed to send OTP", domain.MessageOf(err, ""))

	assert.NoError(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "111111"))
}

func TestSendCode_DeliveryFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "111111")
	f.notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))

	assert.ErrorIs(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup), domain.ErrDelivery)
	assert.Equal(t, 0, f.store.Len())
}

func TestSendCode_LookupError(t *testing.T) {
	ctx := context.Background()
	lookup := new(mockLookup)
	lookup.On("ExistsByEmail", ctx, "a@b.com").Return(false, errors.New("db down"))
	svc := NewService(ServiceDeps{Store: memory.NewOTPStore(ttl), Users: lookup, Notifier: new(mockNotifier), TTL: ttl})

	err := svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup)
	assert.ErrorContains(t, err, "db down")
}

// --- VerifyCode ---

func TestVerifyCode_NothingSent(t *testing.T) {
	f := newFixture(t)
	err := f.svc.VerifyCode(context.Background(), "a@b.com", domain.OTPPurposeSignup, "123456")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
	assert.Equal(t, "No OTP found for this email (or expired)", domain.MessageOf(err, ""))
}

func TestVerifyCode_MissingFields(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.VerifyCode(context.Background(), "", domain.OTPPurposeSignup, "123456"), domain.ErrValidation)
	assert.ErrorIs(t, f.svc.VerifyCode(context.Background(), "a@b.com", domain.OTPPurposeSignup, ""), domain.ErrValidation)
}

func TestVerifyCode_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "123456", "654321")
	f.notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// One nanosecond before the TTL the code still works.
	require.NoError(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup))
	f.advance(ttl - time.Nanosecond)
	assert.NoError(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "123456"))

	// Exactly at createdAt+TTL it is expired and then gone.
	require.NoError(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup))
	f.advance(300 * time.Second)
	assert.ErrorIs(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "654321"), domain.ErrOTPExpired)
	assert.ErrorIs(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "654321"), domain.ErrOTPNotFound)
}

func TestVerifyCode_WrongCodeKeepsRecordPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "123456")
	f.notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup))

	err := f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "000000")
	assert.ErrorIs(t, err, domain.ErrOTPMismatch)
	assert.Equal(t, "Invalid OTP", domain.MessageOf(err, ""))
	assert.NoError(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "123456"))
}

func TestVerifyCode_PurposesAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "123456")
	f.notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.SendCode(ctx, "a@b.com", domain.OTPPurposeSignup))

	assert.ErrorIs(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeReset, "123456"), domain.ErrOTPNotFound)
	assert.NoError(t, f.svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "123456"))
}

type skewedStore struct{ *memory.OTPStore }

func (s skewedStore) Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	rec, err := s.OTPStore.Get(ctx, email, purpose)
	if rec != nil {
		rec.Purpose = domain.OTPPurposeReset
	}
	return rec, err
}

func TestVerifyCode_StoredPurposeMismatch(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewOTPStore(ttl)
	require.NoError(t, inner.Put(ctx, &domain.OTPRecord{Email: "a@b.com", Purpose: domain.OTPPurposeSignup, Code: "123456", CreatedAt: time.Now()}))
	svc := NewService(ServiceDeps{Store: skewedStore{inner}, Users: memory.NewUserRepo(), Notifier: new(mockNotifier), TTL: ttl})

	err := svc.VerifyCode(ctx, "a@b.com", domain.OTPPurposeSignup, "123456")
	assert.ErrorIs(t, err, domain.ErrOTPPurposeMismatch)
}
