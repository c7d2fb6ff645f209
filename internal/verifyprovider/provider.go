// Package verifyprovider talks to the service that generates, delivers and
// checks one-time codes. Nothing here ever sees a code except on its way to
// the provider.
package verifyprovider

import (
	"context"
	"net/http"

	"github.com/yachtly/charter-service/internal/utils"
)

const ChannelSMS = "sms"

// Provider status strings, as Twilio Verify reports them.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusCanceled = "canceled"
)

type StartResult struct {
	SID    string
	Status string
}

type CheckResult struct {
	Approved bool
	Status   string
}

// Provider errors are *utils.AppError wrapping utils.ErrExternalServiceFailure,
// with the provider's own message when it gave one.
type Provider interface {
	StartVerification(ctx context.Context, phone, channel string) (*StartResult, error)
	CheckVerification(ctx context.Context, phone, code string) (*CheckResult, error)
}

func providerError(message string, cause error) error {
	return utils.NewAppError(
		http.StatusBadGateway,
		utils.ErrCodeExternalServiceFailure,
		message,
		utils.WrapExternal(cause),
	)
}
