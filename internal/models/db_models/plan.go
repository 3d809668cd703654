package db_models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

type BillingPeriod string

const (
	PeriodMonth BillingPeriod = "month"
	PeriodYear  BillingPeriod = "year"
)

// PlanFeatures is the entitlement grant a paid plan applies to an account
// when its subscription activates.
type PlanFeatures struct {
	Tier           SubscriptionTier `json:"tier"`
	MaxPlaces      int              `json:"max_places"`
	MonthlyChanges int              `json:"monthly_changes"`
	DailyRefreshes int              `json:"daily_refreshes"`
}

type Plan struct {
	BaseModel
	Code        string `gorm:"uniqueIndex"` // "basic_monthly", "premium_yearly"
	Name        string
	Description *string
	Period      BillingPeriod `gorm:"type:billing_period"`
	PriceMinor  int64         // KRW has no minor unit; stored as-is
	Currency    string        `gorm:"size:3;default:'KRW'"`
	TrialDays   int32         `gorm:"default:0"`
	IsActive    bool          `gorm:"default:true"`

	Features datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}

// ParseFeatures decodes the jsonb grant. Missing fields keep zero values so a
// malformed plan never widens entitlements.
func (p *Plan) ParseFeatures() (PlanFeatures, error) {
	var f PlanFeatures
	err := json.Unmarshal(p.Features, &f)
	return f, err
}
