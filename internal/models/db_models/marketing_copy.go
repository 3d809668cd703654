package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CopyType string

const (
	CopyTypeSNS         CopyType = "sns"
	CopyTypeBlog        CopyType = "blog"
	CopyTypeEvent       CopyType = "event"
	CopyTypeReviewReply CopyType = "review_reply"
)

// MarketingCopy is a generated piece of copy for a place. Rows are removed in
// the same transaction as their place.
type MarketingCopy struct {
	BaseModel
	PlaceID   uuid.UUID `gorm:"index"`
	AccountID uuid.UUID `gorm:"index"`

	CopyType CopyType `gorm:"index"`
	Tone     string
	Content  string `gorm:"type:text"`
	Model    string

	// Snapshot of what went into the prompt (reference URLs, retrieved chunks)
	// for traceability.
	PromptContext datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Place   Place   `gorm:"foreignKey:PlaceID"`
	Account Account `gorm:"foreignKey:AccountID"`
}
