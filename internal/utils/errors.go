package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrInvalidPhone       = errors.New("invalid_phone")
	ErrNotFound           = errors.New("not_found")
	ErrRowVersionConflict = errors.New("row_version_conflict")
	ErrNoRowsUpdated      = errors.New("no_rows_updated")

	ErrRateLimitExceeded      = errors.New("rate_limit_exceeded")
	ErrExternalServiceFailure = errors.New("external_service_failure")

	// Phone verification outcomes
	ErrNoPendingVerification = errors.New("no_pending_verification")
	ErrVerificationExpired   = errors.New("verification_expired")
	ErrMaxAttemptsReached    = errors.New("max_attempts_reached")
	ErrInvalidCode           = errors.New("invalid_code")
	ErrSendFailed            = errors.New("send_failed")
	ErrVerifyFailed          = errors.New("verify_failed")
)

// AppError carries a public message and status code from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{StatusCode: status, Code: code, Message: message, Err: err}
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
		return
	}
	RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
}

// PublicMessage returns the caller-safe text for err.
func PublicMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// WrapExternal tags an upstream failure so errors.Is(err, ErrExternalServiceFailure) holds.
func WrapExternal(err error) error {
	if err == nil {
		return ErrExternalServiceFailure
	}
	return fmt.Errorf("%w: %v", ErrExternalServiceFailure, err)
}
