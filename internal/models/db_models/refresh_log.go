package db_models

import "github.com/google/uuid"

// RefreshLog is append-only: one row per refresh attempt, success or not,
// kept for audit and daily rate limiting. Never updated or deleted.
type RefreshLog struct {
	BaseModel
	PlaceID   uuid.UUID `gorm:"index"`
	AccountID uuid.UUID `gorm:"index"`
	Success   bool
	Detail    string `gorm:"size:255"`
}
