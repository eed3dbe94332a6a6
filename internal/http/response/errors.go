package response

import (
	"encoding/json"
	"net/http"

	"github.com/shelfwise/bookstore/pkg/logger"
)

// ErrorResponse is the JSON body of every failed request: a human-readable
// message plus a stable machine-readable code.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeExpiredToken        = "EXPIRED_TOKEN"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodePasswordMismatch    = "PASSWORD_MISMATCH"
	CodeOTPNotRequested     = "OTP_NOT_REQUESTED"
	CodeOTPExpired          = "OTP_EXPIRED"
	CodeOTPInvalid          = "OTP_INVALID"
	CodeResetNotAuthorized  = "RESET_NOT_AUTHORIZED"
	CodeMailDispatchFailed  = "MAIL_DISPATCH_FAILED"
	CodeInternalError       = "INTERNAL_ERROR"
)

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message, code string) {
	WriteError(w, http.StatusUnauthorized, message, code)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}
