package domain

import "errors"

// Sentinel errors for the auth and catalog flows. Services wrap these with
// context; the HTTP layer maps them to a status and a stable error code.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("password not matched")
	ErrOTPNotRequested    = errors.New("no otp requested for this email")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrResetNotAuthorized = errors.New("password reset not authorized")
	ErrMailDispatch       = errors.New("otp email delivery failed")
)
