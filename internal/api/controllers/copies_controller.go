package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sajangnote/internal/models/request_models"
	"sajangnote/internal/services"
	"sajangnote/pkg/utils"
)

type CopiesController struct {
	copyService services.CopyServiceInterface
}

func NewCopiesController(copyService services.CopyServiceInterface) *CopiesController {
	return &CopiesController{
		copyService: copyService,
	}
}

// Generate godoc
// @Summary Generate marketing copy for a place
// @Description Writes a piece of marketing text grounded on the place's analyzed data. Requires a completed analysis.
// @Tags Copies
// @Accept json
// @Produce json
// @Param request body request_models.GenerateCopyRequest true "Copy generation payload"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /copies/generate [post]
func (cc *CopiesController) Generate(c *gin.Context) {
	var req request_models.GenerateCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	result, err := cc.copyService.GenerateCopy(c.Request.Context(), accountID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Copy generated successfully")
}

// ListForPlace godoc
// @Summary List generated copies for a place
// @Tags Copies
// @Produce json
// @Param placeId path string true "Place ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /places/{placeId}/copies [get]
func (cc *CopiesController) ListForPlace(c *gin.Context) {
	placeID, err := uuid.Parse(c.Param("placeId"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid place id")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	copies, err := cc.copyService.ListCopies(c.Request.Context(), accountID, placeID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, copies, "Copies fetched successfully")
}

// Delete godoc
// @Summary Delete a generated copy
// @Tags Copies
// @Produce json
// @Param copyId path string true "Copy ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /copies/{copyId} [delete]
func (cc *CopiesController) Delete(c *gin.Context) {
	copyID, err := uuid.Parse(c.Param("copyId"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid copy id")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	if err := cc.copyService.DeleteCopy(c.Request.Context(), accountID, copyID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Copy deleted")
}
