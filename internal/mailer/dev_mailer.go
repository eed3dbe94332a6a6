package mailer

import (
	"github.com/shelfwise/bookstore/pkg/logger"
)

// DevMailer logs the code instead of sending anything. Default in
// development so the flow works without SMTP or an API key.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendPasswordResetOTP(toEmail, toName, code string) error {
	logger.Info("[DEV MAIL] password reset OTP",
		"to", toEmail,
		"name", toName,
		"code", code,
	)
	return nil
}
