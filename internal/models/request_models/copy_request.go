package request_models

import "github.com/google/uuid"

type GenerateCopyRequest struct {
	PlaceID  uuid.UUID `json:"placeId" binding:"required"`
	CopyType string    `json:"copyType" binding:"required,oneof=sns blog event review_reply"`
	Tone     string    `json:"tone" binding:"omitempty,max=50"`

	// Optional extra pages (event notices, smartstore listings) crawled and
	// folded into the prompt after cleaning.
	ReferenceURLs []string `json:"referenceUrls" binding:"omitempty,max=3,dive,url"`
}
