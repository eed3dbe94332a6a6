package handlers

import (
	"errors"
	"net/http"

	"github.com/shelfwise/bookstore/internal/domain"
	"github.com/shelfwise/bookstore/internal/http/middleware"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/pkg/logger"
)

// Register handles POST /api/registration.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, created, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			response.BadRequest(w, err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "registration failed", "error", err)
		response.InternalError(w, "user signup error")
		return
	}

	// Duplicate email is a soft outcome, not a failure.
	if !created {
		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "user already registered, please login",
		})
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "user signup successful",
		"user":    user.ToUserInfo(),
	})
}

// Login handles POST /api/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			response.BadRequest(w, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "user does not exist")
		case errors.Is(err, domain.ErrPasswordMismatch):
			response.WriteError(w, http.StatusBadRequest, "password not matched", response.CodePasswordMismatch)
		default:
			logger.ErrorContext(r.Context(), "login failed", "error", err)
			response.InternalError(w, "user login error")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "user login successful",
		"user":       resp.User,
		"token":      resp.Token,
		"expires_in": resp.ExpiresIn,
	})
}

// ForgotPassword handles POST /api/forgot-password.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if req.Email == "" {
		response.BadRequest(w, "email is required")
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "user not found")
		case errors.Is(err, domain.ErrMailDispatch):
			response.WriteError(w, http.StatusInternalServerError, "failed to send OTP email", response.CodeMailDispatchFailed)
		default:
			logger.ErrorContext(r.Context(), "forgot password failed", "error", err)
			response.InternalError(w, "failed to send OTP email")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent, check your email",
	})
}

// VerifyOTP handles POST /api/verify-otp.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if req.Email == "" || req.OTP == "" {
		response.BadRequest(w, "email and otp are required")
		return
	}

	ticket, err := h.auth.VerifyResetCode(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOTPNotRequested):
			response.WriteError(w, http.StatusBadRequest, "no OTP requested for this email", response.CodeOTPNotRequested)
		case errors.Is(err, domain.ErrOTPExpired):
			response.WriteError(w, http.StatusBadRequest, "OTP expired, please request a new one", response.CodeOTPExpired)
		case errors.Is(err, domain.ErrOTPInvalid):
			response.WriteError(w, http.StatusBadRequest, "invalid OTP", response.CodeOTPInvalid)
		default:
			logger.ErrorContext(r.Context(), "otp verification failed", "error", err)
			response.InternalError(w, "failed to verify OTP")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"message":     "OTP verified, you can now reset your password",
		"reset_token": ticket,
	})
}

// ResetPassword handles POST /api/reset-password.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), &req); err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			response.BadRequest(w, err.Error())
		case errors.Is(err, domain.ErrResetNotAuthorized):
			response.Unauthorized(w, "password reset not authorized", response.CodeResetNotAuthorized)
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "user not found")
		default:
			logger.ErrorContext(r.Context(), "password reset failed", "error", err)
			response.InternalError(w, "failed to reset password")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "password reset successful",
	})
}

// Profile handles GET /api/profile.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "missing or invalid authorization header", response.CodeUnauthorized)
		return
	}

	user, err := h.auth.GetProfile(r.Context(), claims.Sub)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		logger.ErrorContext(r.Context(), "profile lookup failed", "error", err)
		response.InternalError(w, "failed to load profile")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user": user.ToUserInfo(),
	})
}
