package services

import (
	"time"

	"sajangnote/internal/models/db_models"
)

// Entitlement checks are pure functions over account state, run before any
// external I/O so requests fail fast.

func CanRegister(maxPlaces int, activePlaceCount int64) bool {
	return activePlaceCount < int64(maxPlaces)
}

// CanChangeOrDelete: the first change is always allowed and only consumes the
// first-change flag; afterwards the cooldown date gates every change or
// delete.
func CanChangeOrDelete(account *db_models.Account, now time.Time) bool {
	if !account.FirstPlaceChangeUsed {
		return true
	}
	if account.NextPlaceChangeDate == nil {
		return true
	}
	return now.Unix() >= *account.NextPlaceChangeDate
}

func CanRefresh(account *db_models.Account, place *db_models.Place) bool {
	return account.SubscriptionTier != db_models.TierFree && place.RemainingRefreshes > 0
}
