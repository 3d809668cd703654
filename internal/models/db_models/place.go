package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlaceStatus string

const (
	PlaceStatusProcessing PlaceStatus = "processing"
	PlaceStatusCompleted  PlaceStatus = "completed"
	PlaceStatusFailed     PlaceStatus = "failed"
)

// Place is a registered storefront tracked through the crawl/analyze lifecycle.
// Status moves processing -> completed|failed, and back to processing on a
// refresh or change. New rows always start with nil CrawledData; a change or
// refresh reuses the row and may keep the old CrawledData until overwritten.
type Place struct {
	BaseModel
	AccountID       uuid.UUID `gorm:"index;uniqueIndex:idx_places_account_provider"`
	ProviderPlaceID string    `gorm:"uniqueIndex:idx_places_account_provider"`

	Name         string
	Address      string
	CanonicalURL string
	Images       datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	// Written by the analysis worker, never by request handlers.
	CrawledData datatypes.JSON `gorm:"type:jsonb"`

	Status       PlaceStatus `gorm:"type:place_status;index;default:'processing'"`
	ErrorMessage *string     `gorm:"size:255"`

	LastCrawledAt        *int64
	ContentLastChangedAt *int64

	// Daily refresh allowance for paying tiers.
	RemainingRefreshes int `gorm:"default:0"`

	Account Account         `gorm:"foreignKey:AccountID"`
	Copies  []MarketingCopy `gorm:"foreignKey:PlaceID"`
}
