package response_models

import "gorm.io/datatypes"

type PlaceResponse struct {
	ID                 string         `json:"id"`
	ProviderPlaceID    string         `json:"provider_place_id"`
	Name               string         `json:"name"`
	Address            string         `json:"address"`
	CanonicalURL       string         `json:"canonical_url"`
	Status             string         `json:"status"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	CrawledData        datatypes.JSON `json:"crawled_data,omitempty"`
	LastCrawledAt      string         `json:"last_crawled_at,omitempty"`
	RemainingRefreshes int            `json:"remaining_refreshes"`
}

type RegisterPlaceResponse struct {
	PlaceID string `json:"place_id"`
	Status  string `json:"status"`
	IsNew   bool   `json:"is_new"`
}

type ChangePlaceResponse struct {
	PlaceID string `json:"place_id"`
	Status  string `json:"status"`
}
