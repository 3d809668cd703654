package response_models

type PlanResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Period      string `json:"period"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	TrialDays   int32  `json:"trial_days"`
}

type CreateCheckoutResponse struct {
	OrderCode    int64  `json:"order_code"`
	Amount       int64  `json:"amount"`
	PaymentURL   string `json:"payment_url"`
	ProviderName string `json:"provider_name"`
}
