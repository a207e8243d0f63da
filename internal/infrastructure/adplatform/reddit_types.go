package adplatform

// ---------------------------------------------------------------------------
// Common Reddit API Response Types
// ---------------------------------------------------------------------------

// RedditError is the error payload attached to failed Reddit API responses
type RedditError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// RedditResponse is the base response wrapper for all Reddit Ads API calls
type RedditResponse struct {
	Success bool         `json:"success"`
	Error   *RedditError `json:"error,omitempty"`
}

// ErrorMessage returns the error message, or empty when absent
func (r *RedditResponse) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// RedditEntityResponse is the response for entity create/update calls
type RedditEntityResponse struct {
	RedditResponse
	Data *RedditEntityData `json:"data,omitempty"`
}

// RedditEntityData carries the platform-assigned identifier
type RedditEntityData struct {
	ID string `json:"id"`
}

// ---------------------------------------------------------------------------
// Campaign Types
// ---------------------------------------------------------------------------

// RedditCampaignPayload is the request body for campaign create/update
type RedditCampaignPayload struct {
	AccountID string `json:"account_id,omitempty"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	// BudgetMicros is the budget amount in micro currency units
	BudgetMicros int64  `json:"budget_micros"`
	BudgetType   string `json:"budget_type"`
	Currency     string `json:"currency"`
}

// RedditCampaignDetailResponse is the response for campaign detail fetches
type RedditCampaignDetailResponse struct {
	RedditResponse
	Data *RedditCampaignDetail `json:"data,omitempty"`
}

// RedditCampaignDetail is the platform-side view of a campaign
type RedditCampaignDetail struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	BudgetMicros int64  `json:"budget_micros"`
	Currency     string `json:"currency"`
	Deleted      bool   `json:"deleted"`
}

// Reddit campaign status values
const (
	RedditStatusActive    = "ACTIVE"
	RedditStatusPaused    = "PAUSED"
	RedditStatusCompleted = "COMPLETED"
	RedditStatusDeleted   = "DELETED"
	RedditStatusError     = "ERROR"
)

// ---------------------------------------------------------------------------
// Ad Group / Ad / Keyword Types
// ---------------------------------------------------------------------------

// RedditAdGroupPayload is the request body for ad group create/update
type RedditAdGroupPayload struct {
	CampaignID string `json:"campaign_id,omitempty"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	// BidMicros is the default bid in micro currency units, zero when unset
	BidMicros int64 `json:"bid_micros,omitempty"`
}

// RedditAdPayload is the request body for ad create/update
type RedditAdPayload struct {
	AdGroupID   string `json:"ad_group_id,omitempty"`
	Headline    string `json:"headline"`
	Description string `json:"description,omitempty"`
	DisplayURL  string `json:"display_url,omitempty"`
	FinalURL    string `json:"destination_url"`
	Status      string `json:"status"`
}

// RedditKeywordPayload is the request body for keyword create/update
type RedditKeywordPayload struct {
	AdGroupID string `json:"ad_group_id,omitempty"`
	Text      string `json:"text"`
	MatchType string `json:"match_type"`
	// BidMicros is the keyword bid in micro currency units, zero when unset
	BidMicros int64  `json:"bid_micros,omitempty"`
	Status    string `json:"status"`
}
