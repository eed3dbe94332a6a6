package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/shelfwise/bookstore/internal/domain"
	"github.com/shelfwise/bookstore/internal/mailer"
	"github.com/shelfwise/bookstore/internal/otp"
	"github.com/shelfwise/bookstore/internal/repo/postgres"
	"github.com/shelfwise/bookstore/pkg/auth"
	"github.com/shelfwise/bookstore/pkg/config"
	"github.com/shelfwise/bookstore/pkg/events"
	"github.com/shelfwise/bookstore/pkg/logger"
)

type AuthService interface {
	// Register creates a user. created is false when the email is already
	// taken, which is a soft outcome rather than an error.
	Register(ctx context.Context, req *domain.RegisterRequest) (user *domain.User, created bool, err error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	// VerifyResetCode consumes the pending OTP and, on a match, mints a
	// single-use reset ticket the caller must present to ResetPassword.
	VerifyResetCode(ctx context.Context, email, code string) (resetToken string, err error)
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
}

type authService struct {
	users   postgres.UserRepository
	codes   otp.Registry
	tickets otp.Registry
	mailer  mailer.Service
	bus     events.Publisher
	config  *config.Config
}

func NewAuthService(
	users postgres.UserRepository,
	codes otp.Registry,
	tickets otp.Registry,
	mailer mailer.Service,
	bus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		users:   users,
		codes:   codes,
		tickets: tickets,
		mailer:  mailer,
		bus:     bus,
		config:  config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, bool, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, false, nil
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Name, req.Email, passwordHash, req.Role)
	if err != nil {
		// The unique index decides concurrent signups; losing the race is
		// the same soft outcome as the existence check above.
		if errors.Is(err, domain.ErrEmailExists) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.bus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish registration event", "error", err, "user_id", user.ID)
	}

	return user, true, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, domain.ErrPasswordMismatch
	}

	token, err := auth.NewAccessToken(
		user.ID,
		user.Email,
		user.Role,
		s.config.Auth.JWTSecret,
		s.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	if err := s.bus.Publish(ctx, events.UserLoggedIn, events.UserLoggedInEvent{
		UserID:     user.ID,
		Email:      user.Email,
		LoggedInAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish login event", "error", err, "user_id", user.ID)
	}

	return &domain.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:      user.ToUserInfo(),
	}, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return domain.ErrNotFound
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	// A new request replaces any pending code for the email.
	if err := s.codes.Put(ctx, user.Email, code, s.config.Auth.OTPTTL); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	// The code is already live at this point; a dispatch failure is
	// reported on its own so the caller can tell the two apart.
	if err := s.mailer.SendPasswordResetOTP(user.Email, user.Name, code); err != nil {
		logger.ErrorContext(ctx, "failed to send otp email", "error", err, "user_id", user.ID)
		return fmt.Errorf("%w: %v", domain.ErrMailDispatch, err)
	}

	return nil
}

func (s *authService) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	switch err := s.codes.Consume(ctx, email, code); {
	case err == nil:
	case errors.Is(err, otp.ErrNotRequested):
		return "", domain.ErrOTPNotRequested
	case errors.Is(err, otp.ErrExpired):
		return "", domain.ErrOTPExpired
	case errors.Is(err, otp.ErrMismatch):
		return "", domain.ErrOTPInvalid
	default:
		return "", fmt.Errorf("failed to verify otp: %w", err)
	}

	ticket := uuid.NewString()
	if err := s.tickets.Put(ctx, email, ticket, s.config.Auth.ResetTicketTTL); err != nil {
		return "", fmt.Errorf("failed to store reset ticket: %w", err)
	}
	return ticket, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// The ticket proves the OTP step succeeded for this email recently.
	// Every failure collapses into one outcome so a caller cannot probe
	// whether a ticket exists for someone else's address.
	if err := s.tickets.Consume(ctx, req.Email, req.ResetToken); err != nil {
		if errors.Is(err, otp.ErrNotRequested) || errors.Is(err, otp.ErrExpired) || errors.Is(err, otp.ErrMismatch) {
			return domain.ErrResetNotAuthorized
		}
		return fmt.Errorf("failed to consume reset ticket: %w", err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return domain.ErrNotFound
	}

	passwordHash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.Email, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.bus.Publish(ctx, events.PasswordReset, events.PasswordResetEvent{
		UserID:  user.ID,
		Email:   user.Email,
		ResetAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish password reset event", "error", err, "user_id", user.ID)
	}

	return nil
}

func (s *authService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}
