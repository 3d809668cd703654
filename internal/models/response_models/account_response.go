package response_models

type AccountLoginResponse struct {
	Token            string `json:"token"`
	SubscriptionTier string `json:"subscription_tier"`
}

type AccountResponse struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	SubscriptionTier      string `json:"subscription_tier"`
	SubscriptionStatus    string `json:"subscription_status"`
	MaxPlaces             int    `json:"max_places"`
	RemainingPlaceChanges int    `json:"remaining_place_changes"`
	FirstPlaceChangeUsed  bool   `json:"first_place_change_used"`
	NextPlaceChangeDate   string `json:"next_place_change_date,omitempty"`
}
