package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/task-tracker-api/internal/domain"
	jwtinfra "github.com/task-tracker-api/internal/infrastructure/jwt"
	"github.com/task-tracker-api/internal/pkg/id"
	"github.com/task-tracker-api/internal/pkg/validate"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	welcomeTimeout = time.Minute
)

var (
	errMissingSignupFields = domain.NewError(domain.ErrValidation, "Please provide all required fields")
	errMissingCredentials  = domain.NewError(domain.ErrValidation, "Please provide email and password")
	errMissingResetFields  = domain.NewError(domain.ErrValidation, "Email, OTP, and new password are required")
	errShortPassword       = domain.NewError(domain.ErrValidation, "Password must be at least 6 characters")
	errInvalidEmail        = domain.NewError(domain.ErrValidation, "Please provide a valid email")
	errEmailTaken          = domain.NewError(domain.ErrConflict, "User with this email already exists")
	errBadCredentials      = domain.NewError(domain.ErrUnauthorized, "Invalid email or password")
	errInvalidToken        = domain.NewError(domain.ErrUnauthorized, "Invalid token")
	errUserNotFound        = domain.NewError(domain.ErrNotFound, "User not found")
)

// UserRepository persists user accounts. Durable reports whether accounts
// survive a process restart.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Durable() bool
}

type tokenProvider interface {
	Sign(userID, email, name string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type otpVerifier interface {
	VerifyCode(ctx context.Context, email string, purpose domain.OTPPurpose, code string) error
}

type welcomer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// Result is returned by Signup and Login.
type Result struct {
	Token string
	User  *domain.PublicUser
	// LocalMode is set when accounts live in process memory only.
	LocalMode bool
}

type Service interface {
	Signup(ctx context.Context, name, email, password string) (*Result, error)
	Login(ctx context.Context, email, password string) (*Result, error)
	CurrentUser(ctx context.Context, token string) (*domain.PublicUser, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// ServiceDeps holds the dependencies for the auth service. Welcomer is
// optional. BcryptCost defaults to bcrypt.DefaultCost.
type ServiceDeps struct {
	Users      UserRepository
	Tokens     tokenProvider
	OTP        otpVerifier
	Welcomer   welcomer
	Log        *zap.Logger
	BcryptCost int
}

type service struct {
	users     UserRepository
	tokens    tokenProvider
	otp       otpVerifier
	welcomer  welcomer
	log       *zap.Logger
	cost      int
	dummyHash []byte
}

func NewService(d ServiceDeps) Service {
	s := &service{
		users:    d.Users,
		tokens:   d.Tokens,
		otp:      d.OTP,
		welcomer: d.Welcomer,
		log:      d.Log,
		cost:     d.BcryptCost,
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	// Compared against on unknown emails so both login failures cost the same.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equaliser"), s.cost)
	return s
}

func (s *service) Signup(ctx context.Context, name, email, password string) (*Result, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, errMissingSignupFields
	}
	if len(password) < minPasswordLen {
		return nil, errShortPassword
	}
	if !validate.Email(email) {
		return nil, errInvalidEmail
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if exists {
		return nil, errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent signup.
		if errors.Is(err, domain.ErrConflict) {
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	local := !s.users.Durable()
	tokenName := ""
	if local {
		tokenName = u.Name
	}
	token, err := s.tokens.Sign(u.UserID, u.Email, tokenName)
	if err != nil {
		return nil, err
	}
	s.log.Info("user signed up", zap.String("user_id", u.UserID), zap.Bool("local_mode", local))
	s.sendWelcome(ctx, u)
	return &Result{Token: token, User: u.Public(), LocalMode: local}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, errMissingCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}

	token, err := s.tokens.Sign(u.UserID, u.Email, "")
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: u.Public(), LocalMode: !s.users.Durable()}, nil
}

func (s *service) CurrentUser(ctx context.Context, token string) (*domain.PublicUser, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, errInvalidToken
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u.Public(), nil
}

// ResetPassword checks the new password before the code so a weak password
// never consumes a valid OTP.
func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return errMissingResetFields
	}
	if len(newPassword) < minPasswordLen {
		return errShortPassword
	}
	if err := s.otp.VerifyCode(ctx, email, domain.OTPPurposeReset, code); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return errUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.UserID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info("password reset", zap.String("user_id", u.UserID))
	return nil
}

// sendWelcome mails the new user in the background. Failures are logged only.
func (s *service) sendWelcome(ctx context.Context, u *domain.User) {
	if s.welcomer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeTimeout)
	go func() {
		defer cancel()
		if err := s.welcomer.SendWelcome(ctx, u.Email, u.Name); err != nil {
			s.log.Warn("welcome email failed", zap.String("user_id", u.UserID), zap.Error(err))
		}
	}()
}
