package controllers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/yachtly/charter-service/internal/constants"
	"github.com/yachtly/charter-service/internal/dtos"
	"github.com/yachtly/charter-service/internal/middleware"
	"github.com/yachtly/charter-service/internal/services"
	"github.com/yachtly/charter-service/internal/utils"
)

// VerificationController answers in the {success, data, error} envelope
// on every path, including validation failures.
type VerificationController struct {
	verificationService services.VerificationService
}

func NewVerificationController(s services.VerificationService) *VerificationController {
	return &VerificationController{verificationService: s}
}

// POST /api/v1/verification/phone/send
func (c *VerificationController) SendPhoneCodeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		utils.RespondWithResultError(w, err, constants.MsgSendFailed)
		return
	}

	var req dtos.SendPhoneCodeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		utils.RespondWithResultError(w, err, constants.MsgSendFailed)
		return
	}

	res, err := c.verificationService.SendCode(r.Context(), userID, req.PhoneNumber, middleware.ClientID(r))
	if err != nil {
		utils.RespondWithResultError(w, err, constants.MsgSendFailed)
		return
	}

	utils.Logger.WithFields(logrus.Fields{"userID": userID, "phone": res.PhoneNumber}).Info("Verification code sent")
	utils.RespondWithResult(w, res)
}

// POST /api/v1/verification/phone/check
func (c *VerificationController) CheckPhoneCodeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		utils.RespondWithResultError(w, err, constants.MsgVerifyFailed)
		return
	}

	var req dtos.CheckPhoneCodeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		utils.RespondWithResultError(w, err, constants.MsgVerifyFailed)
		return
	}

	res, err := c.verificationService.CheckCode(r.Context(), userID, req.PhoneNumber, req.Code)
	if err != nil {
		utils.RespondWithResultError(w, err, constants.MsgVerifyFailed)
		return
	}

	utils.Logger.WithFields(logrus.Fields{"userID": userID, "phone": res.PhoneNumber}).Info("Phone verified")
	utils.RespondWithResult(w, res)
}
