package request_models

import "github.com/google/uuid"

type RegisterPlaceRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ChangePlaceRequest struct {
	PlaceID     uuid.UUID `json:"placeId" binding:"required"`
	NewPlaceURL string    `json:"newPlaceUrl" binding:"required,url"`
}

type CompletePlaceChangeRequest struct {
	PlaceID       uuid.UUID `json:"placeId" binding:"required"`
	IsFirstChange bool      `json:"isFirstChange"`
}

type RefreshPlaceRequest struct {
	PlaceID uuid.UUID `json:"placeId" binding:"required"`
}
