package verifyprovider

import (
	"context"
	"errors"

	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
	"github.com/yachtly/charter-service/internal/utils"
)

type twilioVerify struct {
	client     *twilio.RestClient
	serviceSID string
}

// NewTwilioVerify returns a Provider backed by a Twilio Verify v2 service.
func NewTwilioVerify(client *twilio.RestClient, serviceSID string) Provider {
	return &twilioVerify{client: client, serviceSID: serviceSID}
}

func (t *twilioVerify) StartVerification(ctx context.Context, phone, channel string) (*StartResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel(channel)

	resp, err := t.client.VerifyV2.CreateVerification(t.serviceSID, params)
	if err != nil {
		utils.Logger.WithError(err).WithField("phone", phone).Warn("Twilio Verify start failed")
		return nil, providerError(twilioMessage(err), err)
	}
	return &StartResult{SID: utils.Val(resp.Sid), Status: utils.Val(resp.Status)}, nil
}

func (t *twilioVerify) CheckVerification(ctx context.Context, phone, code string) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := t.client.VerifyV2.CreateVerificationCheck(t.serviceSID, params)
	if err != nil {
		utils.Logger.WithError(err).WithField("phone", phone).Warn("Twilio Verify check failed")
		return nil, providerError(twilioMessage(err), err)
	}
	status := utils.Val(resp.Status)
	return &CheckResult{
		Approved: status == StatusApproved && (resp.Valid == nil || *resp.Valid),
		Status:   status,
	}, nil
}

// twilioMessage extracts Twilio's human-readable message, or "" so callers
// fall back to their own wording.
func twilioMessage(err error) string {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return restErr.Message
	}
	return ""
}
