package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yachtly/charter-service/internal/constants"
	"github.com/yachtly/charter-service/internal/utils"
)

// Caller-facing verification failures. Every error VerificationService
// returns is one of these or a provider *utils.AppError.
var (
	errInvalidPhone = utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidPhone,
		"Invalid phone number", utils.ErrInvalidPhone)
	errRateLimited = utils.NewAppError(http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded,
		"Too many verification requests. Please try again later.", utils.ErrRateLimitExceeded)
	errNoPending = utils.NewAppError(http.StatusNotFound, utils.ErrCodeNoPendingVerification,
		"No pending verification found. Please request a new code.", utils.ErrNoPendingVerification)
	errExpired = utils.NewAppError(http.StatusGone, utils.ErrCodeVerificationExpired,
		"Verification code has expired. Please request a new code.", utils.ErrVerificationExpired)
	errMaxAttempts = utils.NewAppError(http.StatusTooManyRequests, utils.ErrCodeMaxAttemptsReached,
		"Maximum verification attempts reached. Please request a new code.", utils.ErrMaxAttemptsReached)
	errInvalidCode = utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidCode,
		"Invalid verification code", utils.ErrInvalidCode)
)

func sendFailure(cause error) error {
	return utils.NewAppError(http.StatusInternalServerError, utils.ErrCodeInternal,
		constants.MsgSendFailed, fmt.Errorf("%w: %v", utils.ErrSendFailed, cause))
}

func verifyFailure(cause error) error {
	return utils.NewAppError(http.StatusInternalServerError, utils.ErrCodeInternal,
		constants.MsgVerifyFailed, fmt.Errorf("%w: %v", utils.ErrVerifyFailed, cause))
}

// providerFailure keeps the provider's own message when it has one.
func providerFailure(err error, fallback string) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr
	}
	return utils.NewAppError(http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
		fallback, utils.WrapExternal(err))
}
