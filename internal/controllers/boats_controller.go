package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/yachtly/charter-service/internal/search"
	"github.com/yachtly/charter-service/internal/services"
	"github.com/yachtly/charter-service/internal/utils"
)

type BoatsController struct {
	boatSearchService services.BoatSearchService
}

func NewBoatsController(s services.BoatSearchService) *BoatsController {
	return &BoatsController{boatSearchService: s}
}

// GET /api/v1/boats
//
// Bad query values are ignored rather than rejected, so this always
// answers 200.
func (c *BoatsController) ListBoatsHandler(w http.ResponseWriter, r *http.Request) {
	f := search.ParseParams(r.URL.Query())
	utils.RespondWithJSON(w, http.StatusOK, c.boatSearchService.Search(r.Context(), f))
}

// GET /api/v1/boats/{id}
func (c *BoatsController) GetBoatHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Boat not found", nil)
		return
	}

	boat, err := c.boatSearchService.GetBoat(r.Context(), id)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to retrieve boat", nil, err)
		return
	}
	if boat == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Boat not found", nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, boat)
}
