package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sajangnote/internal/models/request_models"
	"sajangnote/internal/services"
	"sajangnote/pkg/utils"
)

type PlacesController struct {
	placeService services.PlaceServiceInterface
}

func NewPlacesController(placeService services.PlaceServiceInterface) *PlacesController {
	return &PlacesController{
		placeService: placeService,
	}
}

// RegisterOrGet godoc
// @Summary Register a place URL, or return the existing registration
// @Description Extracts the provider place id from the URL. A new place starts crawling and returns 202; an already-registered place returns its current state.
// @Tags Places
// @Accept json
// @Produce json
// @Param request body request_models.RegisterPlaceRequest true "Place registration payload"
// @Success 200 {object} utils.APIResponse
// @Success 202 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /places/register-or-get [post]
func (p *PlacesController) RegisterOrGet(c *gin.Context) {
	var req request_models.RegisterPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	result, err := p.placeService.RegisterOrGetPlace(c.Request.Context(), accountID, req.URL)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	if result.IsNew {
		utils.RespondAccepted(c, result, "Place registered, analysis in progress")
		return
	}
	utils.RespondSuccess(c, result, "Place already registered")
}

// GetPlace godoc
// @Summary Get one place with its analyzed data
// @Tags Places
// @Produce json
// @Param placeId path string true "Place ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /places/{placeId} [get]
func (p *PlacesController) GetPlace(c *gin.Context) {
	placeID, err := uuid.Parse(c.Param("placeId"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid place id")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	place, err := p.placeService.GetPlace(c.Request.Context(), accountID, placeID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, place, "Place fetched successfully")
}

// ListMyPlaces godoc
// @Summary List the authenticated account's places
// @Tags Places
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /my-places [get]
func (p *PlacesController) ListMyPlaces(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	places, err := p.placeService.ListMyPlaces(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, places, "Places fetched successfully")
}

// PrepareChange godoc
// @Summary Re-point a registered place at a new storefront URL
// @Description Phase one of a place change. The row is re-pointed and re-crawled but no change quota is spent until complete-change confirms.
// @Tags Places
// @Accept json
// @Produce json
// @Param request body request_models.ChangePlaceRequest true "Place change payload"
// @Success 202 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /my-places/change [post]
func (p *PlacesController) PrepareChange(c *gin.Context) {
	var req request_models.ChangePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	result, err := p.placeService.PreparePlaceChange(c.Request.Context(), accountID, req.PlaceID, req.NewPlaceURL)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondAccepted(c, result, "Place change started, analysis in progress")
}

// CompleteChange godoc
// @Summary Confirm a prepared place change and spend the quota
// @Tags Places
// @Accept json
// @Produce json
// @Param request body request_models.CompletePlaceChangeRequest true "Complete change payload"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /my-places/complete-change [post]
func (p *PlacesController) CompleteChange(c *gin.Context) {
	var req request_models.CompletePlaceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	if err := p.placeService.CompletePlaceChange(c.Request.Context(), accountID, req.PlaceID, req.IsFirstChange); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Place change completed")
}

// Refresh godoc
// @Summary Re-crawl and re-analyze a place
// @Tags Places
// @Accept json
// @Produce json
// @Param request body request_models.RefreshPlaceRequest true "Refresh payload"
// @Success 202 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /refresh-place [post]
func (p *PlacesController) Refresh(c *gin.Context) {
	var req request_models.RefreshPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	if err := p.placeService.RefreshPlace(c.Request.Context(), accountID, req.PlaceID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondAccepted(c, gin.H{"place_id": req.PlaceID}, "Refresh started")
}

// Delete godoc
// @Summary Delete a place and everything derived from it
// @Description Deleting counts as a place change for cooldown purposes.
// @Tags Places
// @Produce json
// @Param placeId path string true "Place ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /places/{placeId} [delete]
func (p *PlacesController) Delete(c *gin.Context) {
	placeID, err := uuid.Parse(c.Param("placeId"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid place id")
		return
	}

	accountID, ok := currentAccountID(c)
	if !ok {
		return
	}

	if err := p.placeService.DeletePlace(c.Request.Context(), accountID, placeID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Place deleted")
}
