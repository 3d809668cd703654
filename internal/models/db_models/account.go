package db_models

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierBasic   SubscriptionTier = "basic"
	TierPremium SubscriptionTier = "premium"
)

type AccountSubState string

const (
	AccountSubNone     AccountSubState = "none"
	AccountSubActive   AccountSubState = "active"
	AccountSubCanceled AccountSubState = "canceled"
)

// Account carries the entitlement state the place lifecycle checks before any
// external call: place quota, remaining change allowance and the change
// cooldown. NextPlaceChangeDate is only consulted once FirstPlaceChangeUsed is
// true; the first change is always free of the cooldown.
type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"unique"`
	PasswordHash string
	Role         string `gorm:"default:'user'"`

	SubscriptionTier   SubscriptionTier `gorm:"type:subscription_tier;default:'free'"`
	SubscriptionStatus AccountSubState  `gorm:"default:'none'"`
	BillingCustomerRef string

	MaxPlaces             int    `gorm:"default:1"`
	RemainingPlaceChanges int    `gorm:"default:0"`
	FirstPlaceChangeUsed  bool   `gorm:"default:false"`
	NextPlaceChangeDate   *int64 // unix seconds; nil until a cooldown is set

	Places []Place `gorm:"foreignKey:AccountID"`
}
