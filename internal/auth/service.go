// Package auth drives the account lifecycle: signup with email
// verification, code resend, password reset and login.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"smartspend/internal/core"
	"smartspend/internal/log"
	"smartspend/internal/mail"
	"smartspend/internal/otp"
	"smartspend/internal/token"
)

// Service owns the verification and reset state transitions. The two
// code slots on a user are independent: a pending password reset never
// touches the signup verification code and vice versa.
type Service struct {
	users      core.UserRepository
	codes      *otp.Issuer
	mailer     mail.Sender
	tokens     *token.Service
	autoVerify bool
	logger     *log.Logger
	now        func() time.Time
}

func NewService(users core.UserRepository, codes *otp.Issuer, mailer mail.Sender, tokens *token.Service, autoVerify bool, logger *log.Logger) *Service {
	return &Service{
		users:      users,
		codes:      codes,
		mailer:     mailer,
		tokens:     tokens,
		autoVerify: autoVerify,
		logger:     logger.WithComponent(log.ComponentAuth),
		now:        time.Now,
	}
}

// Register creates an account. With auto-verify off the account starts
// unverified and a signup code is issued, stored and emailed; the raw
// code never travels back to the caller.
func (s *Service) Register(ctx context.Context, name, email, password string) (*core.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, core.ErrEmptyEmail
	}
	if password == "" {
		return nil, core.ErrEmptyPassword
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, core.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []core.Role{core.RoleUser},
	}

	if s.autoVerify {
		user.Verified = true
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.logger.InfoContext(ctx, "user registered auto-verified", log.FieldEmail, email, log.FieldOperation, log.OpSignup)
		return user, nil
	}

	code, expiry, err := s.codes.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue signup code: %w", err)
	}
	user.SignupCode = &core.CodeSlot{Value: code, ExpiresAt: expiry}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.deliverSignupCode(ctx, email, code)
	s.logger.InfoContext(ctx, "user registered pending verification", log.FieldEmail, email, log.FieldOperation, log.OpSignup)
	return user, nil
}

// VerifyOTP checks the signup code and flips the account to verified.
// Idempotent once verified: any further call succeeds without looking
// at the code.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.Verified {
		return nil
	}
	if user.SignupCode == nil {
		return core.ErrNoPendingCode
	}
	if user.SignupCode.Expired(s.now()) {
		return core.ErrCodeExpired
	}
	if !user.SignupCode.Matches(code) {
		return core.ErrCodeMismatch
	}

	user.Verified = true
	user.SignupCode = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user verified", log.FieldEmail, email, log.FieldOperation, log.OpVerify)
	return nil
}

// ResendOTP issues a fresh signup code, replacing any previous one.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return core.ErrAlreadyVerified
	}

	code, expiry, err := s.codes.Issue()
	if err != nil {
		return fmt.Errorf("issue signup code: %w", err)
	}
	user.SignupCode = &core.CodeSlot{Value: code, ExpiresAt: expiry}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.deliverSignupCode(ctx, email, code)
	s.logger.InfoContext(ctx, "signup code resent", log.FieldEmail, email, log.FieldOperation, log.OpResend)
	return nil
}

// RequestPasswordReset issues a reset code into the reset slot. Allowed
// regardless of verification state.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, expiry, err := s.codes.Issue()
	if err != nil {
		return fmt.Errorf("issue reset code: %w", err)
	}
	user.ResetCode = &core.CodeSlot{Value: code, ExpiresAt: expiry}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	subject, body := mail.ResetOTPMessage(code, int(s.codes.TTL().Minutes()))
	s.deliver(ctx, email, subject, body)
	s.logger.InfoContext(ctx, "password reset requested", log.FieldEmail, email, log.FieldOperation, log.OpReset)
	return nil
}

// ResetPassword consumes the reset code and stores the new password hash.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return core.ErrEmptyPassword
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.ResetCode == nil {
		return core.ErrNoPendingCode
	}
	if user.ResetCode.Expired(s.now()) {
		return core.ErrCodeExpired
	}
	if !user.ResetCode.Matches(code) {
		return core.ErrCodeMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.ResetCode = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset", log.FieldEmail, email, log.FieldOperation, log.OpReset)
	return nil
}

// Login checks credentials and mints a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *core.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, core.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, core.ErrInvalidCredentials
	}
	if !user.Verified {
		return "", nil, core.ErrNotVerified
	}

	tok, err := s.tokens.Mint(user.Email, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("mint token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldEmail, email, log.FieldOperation, log.OpLogin)
	return tok, user, nil
}

// GetUserByEmail exposes account lookup to the HTTP layer.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *Service) deliverSignupCode(ctx context.Context, email, code string) {
	subject, body := mail.SignupOTPMessage(code, int(s.codes.TTL().Minutes()))
	s.deliver(ctx, email, subject, body)
}

// deliver sends best effort. Email failures never fail the transition
// that triggered them.
func (s *Service) deliver(ctx context.Context, email, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		s.logger.WarnContext(ctx, "email delivery failed", log.FieldEmail, email, log.FieldError, err)
	}
}
