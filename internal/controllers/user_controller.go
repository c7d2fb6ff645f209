package controllers

import (
	"net/http"

	"github.com/yachtly/charter-service/internal/services"
	"github.com/yachtly/charter-service/internal/utils"
)

type UserController struct {
	userService services.UserService
}

func NewUserController(s services.UserService) *UserController {
	return &UserController{userService: s}
}

// GET /api/v1/users/me/phone
func (c *UserController) GetMyPhoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	res, err := c.userService.GetPhoneStatus(r.Context(), userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
