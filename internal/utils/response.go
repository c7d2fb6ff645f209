package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload         = "invalid_payload"
	ErrCodeValidation             = "validation_error"
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeInternal               = "internal_server_error"
	ErrCodeNotFound               = "not_found"
	ErrCodeInvalidPhone           = "invalid_phone"
	ErrCodeRateLimitExceeded      = "rate_limit_exceeded"
	ErrCodeExternalServiceFailure = "external_service_failure"
	ErrCodeNoPendingVerification  = "no_pending_verification"
	ErrCodeVerificationExpired    = "verification_expired"
	ErrCodeMaxAttemptsReached     = "max_attempts_reached"
	ErrCodeInvalidCode            = "invalid_code"
)

// ErrorResponse carries an optional Details payload next to the code and message.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Result is the envelope returned by action endpoints.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message. The optional `details` is included if non-nil.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	errBody := ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	}
	if details != nil {
		errBody.Details = details
	}
	writeJSON(w, status, errBody)
	logFailure(status, publicMessage, devErrs...)
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload)
}

// RespondWithResult writes a successful Result envelope.
func RespondWithResult(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Result{Success: true, Data: data})
}

// RespondWithResultError writes a failed Result envelope. AppErrors keep their
// status, code and message; anything else becomes a generic 500.
func RespondWithResultError(w http.ResponseWriter, err error, fallback string) {
	status := http.StatusInternalServerError
	code := ErrCodeInternal
	msg := fallback

	var appErr *AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		code = appErr.Code
		if appErr.Message != "" {
			msg = appErr.Message
		}
	}

	writeJSON(w, status, Result{Success: false, Error: msg, Code: code})
	logFailure(status, msg, err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func logFailure(status int, publicMessage string, devErrs ...error) {
	entry := Logger.WithField("status", status)
	if len(devErrs) > 0 && devErrs[0] != nil {
		entry = entry.WithFields(logrus.Fields{"error": devErrs[0].Error()})
	}
	if status >= http.StatusInternalServerError {
		entry.Error(publicMessage)
		return
	}
	entry.Warn(publicMessage)
}
