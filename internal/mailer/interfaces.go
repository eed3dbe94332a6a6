package mailer

// Service delivers the one-time reset code to a user's inbox. Delivery is
// best effort; the caller decides what a failure means for the flow.
type Service interface {
	SendPasswordResetOTP(toEmail, toName, code string) error
}
