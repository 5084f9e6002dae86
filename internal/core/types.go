package core

// PlanAPIKey is reported as the plan of API-key accounts, which have no usage endpoint.
const PlanAPIKey = "api_key"

// UsageInfo is one account's usage snapshot. When Error is set the other
// optional fields carry no meaning.
type UsageInfo struct {
	AccountID string  `json:"account_id"`
	PlanType  *string `json:"plan_type,omitempty"`

	PrimaryUsedPercent   *float64 `json:"primary_used_percent,omitempty"`
	PrimaryWindowMinutes *int64   `json:"primary_window_minutes,omitempty"`
	PrimaryResetsAt      *int64   `json:"primary_resets_at,omitempty"` // unix seconds

	SecondaryUsedPercent   *float64 `json:"secondary_used_percent,omitempty"`
	SecondaryWindowMinutes *int64   `json:"secondary_window_minutes,omitempty"`
	SecondaryResetsAt      *int64   `json:"secondary_resets_at,omitempty"` // unix seconds

	HasCredits       *bool    `json:"has_credits,omitempty"`
	UnlimitedCredits *bool    `json:"unlimited_credits,omitempty"`
	CreditsBalance   *float64 `json:"credits_balance,omitempty"`

	Error *string `json:"error,omitempty"`
}

func NewUsageError(accountID, msg string) UsageInfo {
	return UsageInfo{AccountID: accountID, Error: &msg}
}

func (u UsageInfo) Failed() bool {
	return u.Error != nil
}
