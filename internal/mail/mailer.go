// Package mail defines the outbound email capability. Real delivery is
// an external collaborator; the shipped sender logs instead of sending.
package mail

import (
	"context"
	"fmt"

	"smartspend/internal/log"
)

// Sender delivers one message. Implementations must not fail the caller
// on transient delivery problems; the caller logs and continues.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes outbound mail to the log. Used in development and as
// the default when no delivery backend is configured.
type LogSender struct {
	logger *log.Logger
	from   string
}

func NewLogSender(logger *log.Logger, from string) *LogSender {
	return &LogSender{
		logger: logger.WithComponent(log.ComponentMailer),
		from:   from,
	}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return nil
	}
	s.logger.InfoContext(ctx, "outbound email",
		"from", s.from,
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}

// SignupOTPMessage builds the verification code email.
func SignupOTPMessage(code string, ttlMinutes int) (subject, body string) {
	subject = "SmartSpend Registration OTP"
	body = fmt.Sprintf("Your OTP for SmartSpend registration is: %s\n\nThis OTP expires in %d minutes.", code, ttlMinutes)
	return subject, body
}

// ResetOTPMessage builds the password reset code email.
func ResetOTPMessage(code string, ttlMinutes int) (subject, body string) {
	subject = "SmartSpend Password Reset OTP"
	body = fmt.Sprintf("Your OTP to reset password is: %s\n\nThis OTP expires in %d minutes.", code, ttlMinutes)
	return subject, body
}

// AlertMessage builds the email copy of a budget alert.
func AlertMessage(title, detail string) (subject, body string) {
	subject = title
	body = fmt.Sprintf("Hi,\n\n%s\n\n- SmartSpend", detail)
	return subject, body
}
