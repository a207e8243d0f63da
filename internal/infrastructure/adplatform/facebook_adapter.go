package adplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adsync/backend/internal/domain/campaign"
)

// FacebookProductionAPIURL is the production Graph API endpoint
const FacebookProductionAPIURL = "https://graph.facebook.com/v19.0"

// centsPerUnit converts major currency units to cents, the Graph API's
// budget representation
const centsPerUnit = 100

// ErrFacebookConfigMissingAccessToken is returned when no token is configured
var ErrFacebookConfigMissingAccessToken = errors.New("facebook: access token is required")

// FacebookConfig holds configuration for the Facebook Marketing API integration
type FacebookConfig struct {
	AccessToken    string
	APIBaseURL     string
	TimeoutSeconds int
}

// Validate validates the Facebook configuration
func (c *FacebookConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrFacebookConfigMissingAccessToken
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = FacebookProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

type facebookError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// facebookEntityResponse is the Graph API response for entity writes
type facebookEntityResponse struct {
	ID      string         `json:"id,omitempty"`
	Success bool           `json:"success,omitempty"`
	Error   *facebookError `json:"error,omitempty"`
}

// facebookCampaignDetail is the platform-side view of a campaign
type facebookCampaignDetail struct {
	ID              string         `json:"id"`
	EffectiveStatus string         `json:"effective_status"`
	DailyBudget     string         `json:"daily_budget,omitempty"`
	LifetimeBudget  string         `json:"lifetime_budget,omitempty"`
	Error           *facebookError `json:"error,omitempty"`
}

// FacebookAdapter implements the PlatformAdapter interface for the Facebook
// Marketing API. Ad groups map to Graph API ad sets; keywords map to
// interest targeting entries.
type FacebookAdapter struct {
	config     *FacebookConfig
	httpClient *http.Client
}

// NewFacebookAdapter creates a new Facebook adapter
func NewFacebookAdapter(config *FacebookConfig) (*FacebookAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FacebookAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *FacebookAdapter) PlatformCode() campaign.PlatformCode {
	return campaign.PlatformCodeFacebook
}

func (a *FacebookAdapter) CreateCampaign(ctx context.Context, adAccountID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	payload := map[string]any{
		"name":   c.Name,
		"status": mapToFacebookStatus(c.Status),
	}
	payload[facebookBudgetField(c.Budget.Type)] = toCents(c.Budget.Amount)
	return a.writeEntity(ctx, "/act_"+adAccountID+"/campaigns", payload)
}

func (a *FacebookAdapter) UpdateCampaign(ctx context.Context, platformCampaignID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	payload := map[string]any{
		"name":   c.Name,
		"status": mapToFacebookStatus(c.Status),
	}
	payload[facebookBudgetField(c.Budget.Type)] = toCents(c.Budget.Amount)
	return a.writeEntity(ctx, "/"+platformCampaignID, payload)
}

func (a *FacebookAdapter) PauseCampaign(ctx context.Context, platformCampaignID string) error {
	return a.setStatus(ctx, platformCampaignID, "PAUSED")
}

func (a *FacebookAdapter) ResumeCampaign(ctx context.Context, platformCampaignID string) error {
	return a.setStatus(ctx, platformCampaignID, "ACTIVE")
}

func (a *FacebookAdapter) DeleteCampaign(ctx context.Context, platformCampaignID string) error {
	return a.removeEntity(ctx, "/"+platformCampaignID)
}

func (a *FacebookAdapter) CreateAdGroup(ctx context.Context, platformCampaignID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	payload := map[string]any{
		"campaign_id": platformCampaignID,
		"name":        g.Name,
		"status":      mapToFacebookStatus(g.Status),
	}
	if g.DefaultBid != nil {
		payload["bid_amount"] = toCents(*g.DefaultBid)
	}
	return a.writeEntity(ctx, "/adsets", payload)
}

func (a *FacebookAdapter) UpdateAdGroup(ctx context.Context, platformAdGroupID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	payload := map[string]any{
		"name":   g.Name,
		"status": mapToFacebookStatus(g.Status),
	}
	if g.DefaultBid != nil {
		payload["bid_amount"] = toCents(*g.DefaultBid)
	}
	return a.writeEntity(ctx, "/"+platformAdGroupID, payload)
}

func (a *FacebookAdapter) DeleteAdGroup(ctx context.Context, platformAdGroupID string) error {
	return a.removeEntity(ctx, "/"+platformAdGroupID)
}

func (a *FacebookAdapter) CreateAd(ctx context.Context, platformAdGroupID string, ad *campaign.Ad) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, "/ads", map[string]any{
		"adset_id": platformAdGroupID,
		"name":     ad.Headline,
		"creative": map[string]any{
			"title":    ad.Headline,
			"body":     ad.Description,
			"link_url": ad.FinalURL,
		},
		"status": mapToFacebookStatus(ad.Status),
	})
}

func (a *FacebookAdapter) UpdateAd(ctx context.Context, platformAdID string, ad *campaign.Ad) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, "/"+platformAdID, map[string]any{
		"name": ad.Headline,
		"creative": map[string]any{
			"title":    ad.Headline,
			"body":     ad.Description,
			"link_url": ad.FinalURL,
		},
		"status": mapToFacebookStatus(ad.Status),
	})
}

func (a *FacebookAdapter) DeleteAd(ctx context.Context, platformAdID string) error {
	return a.removeEntity(ctx, "/"+platformAdID)
}

func (a *FacebookAdapter) CreateKeyword(ctx context.Context, platformAdGroupID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	payload := map[string]any{
		"adset_id":   platformAdGroupID,
		"text":       k.Text,
		"match_type": string(k.MatchType),
		"status":     mapToFacebookStatus(k.Status),
	}
	if k.Bid != nil {
		payload["bid_amount"] = toCents(*k.Bid)
	}
	return a.writeEntity(ctx, "/targeting_keywords", payload)
}

func (a *FacebookAdapter) UpdateKeyword(ctx context.Context, platformKeywordID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	payload := map[string]any{
		"text":       k.Text,
		"match_type": string(k.MatchType),
		"status":     mapToFacebookStatus(k.Status),
	}
	if k.Bid != nil {
		payload["bid_amount"] = toCents(*k.Bid)
	}
	return a.writeEntity(ctx, "/"+platformKeywordID, payload)
}

func (a *FacebookAdapter) DeleteKeyword(ctx context.Context, platformKeywordID string) error {
	return a.removeEntity(ctx, "/"+platformKeywordID)
}

// GetCampaignState fetches the platform-side state of a synced campaign
func (a *FacebookAdapter) GetCampaignState(ctx context.Context, adAccountID string, platformCampaignID string) (*campaign.PlatformCampaignState, error) {
	path := "/" + platformCampaignID + "?fields=id,effective_status,daily_budget,lifetime_budget"
	respBody, status, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &campaign.PlatformCampaignState{Exists: false}, nil
	}

	var detail facebookCampaignDetail
	if err := json.Unmarshal(respBody, &detail); err != nil {
		return nil, fmt.Errorf("facebook: failed to parse response: %w", err)
	}
	if detail.Error != nil {
		// Graph API reports missing objects as code 100 on a 400 response
		if detail.Error.Code == 100 {
			return &campaign.PlatformCampaignState{Exists: false}, nil
		}
		return nil, fmt.Errorf("facebook: campaign fetch failed: %s", detail.Error.Message)
	}
	if detail.EffectiveStatus == "DELETED" || detail.EffectiveStatus == "ARCHIVED" {
		return &campaign.PlatformCampaignState{Exists: false}, nil
	}

	budget := detail.DailyBudget
	if budget == "" {
		budget = detail.LifetimeBudget
	}
	amount := decimal.Zero
	if budget != "" {
		cents, err := decimal.NewFromString(budget)
		if err != nil {
			return nil, fmt.Errorf("facebook: invalid budget %q: %w", budget, err)
		}
		amount = cents.Div(decimal.NewFromInt(centsPerUnit))
	}

	return &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       mapFacebookStatusToEntityStatus(detail.EffectiveStatus),
		BudgetAmount: amount,
		// The Graph API reports budgets in the ad account currency and
		// omits the code on this endpoint
		Currency: "",
	}, nil
}

func (a *FacebookAdapter) writeEntity(ctx context.Context, path string, payload any) (*campaign.AdapterResult, error) {
	respBody, status, err := a.doRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var resp facebookEntityResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("facebook: failed to parse response: %w", err)
	}
	if status >= 400 || resp.Error != nil {
		msg := ""
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return &campaign.AdapterResult{Success: false, Error: msg}, nil
	}
	return &campaign.AdapterResult{Success: true, PlatformID: resp.ID}, nil
}

func (a *FacebookAdapter) setStatus(ctx context.Context, platformID, status string) error {
	res, err := a.writeEntity(ctx, "/"+platformID, map[string]string{"status": status})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("facebook: status update rejected: %s", res.Error)
	}
	return nil
}

func (a *FacebookAdapter) removeEntity(ctx context.Context, path string) error {
	respBody, status, err := a.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status >= 400 {
		var resp facebookEntityResponse
		msg := ""
		if json.Unmarshal(respBody, &resp) == nil && resp.Error != nil {
			msg = resp.Error.Message
		}
		return fmt.Errorf("facebook: delete rejected: %s", msg)
	}
	return nil
}

func (a *FacebookAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("facebook: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("facebook: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", campaign.ErrAdapterUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRedditResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("facebook: failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", campaign.ErrAdapterUnavailable, resp.StatusCode)
	}
	return respBody, resp.StatusCode, nil
}

func facebookBudgetField(t campaign.BudgetType) string {
	if t == campaign.BudgetTypeLifetime {
		return "lifetime_budget"
	}
	return "daily_budget"
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(centsPerUnit)).IntPart()
}

// mapToFacebookStatus maps a local status onto the Graph API status enum
func mapToFacebookStatus(status campaign.CampaignStatus) string {
	switch status {
	case campaign.CampaignStatusActive:
		return "ACTIVE"
	case campaign.CampaignStatusCompleted:
		return "ARCHIVED"
	default:
		return "PAUSED"
	}
}

func mapFacebookStatusToEntityStatus(status string) campaign.PlatformEntityStatus {
	switch status {
	case "ACTIVE":
		return campaign.PlatformEntityStatusActive
	case "PAUSED", "CAMPAIGN_PAUSED", "ADSET_PAUSED":
		return campaign.PlatformEntityStatusPaused
	case "ARCHIVED":
		return campaign.PlatformEntityStatusCompleted
	case "DELETED":
		return campaign.PlatformEntityStatusDeleted
	default:
		return campaign.PlatformEntityStatusError
	}
}

// Ensure FacebookAdapter implements the PlatformAdapter interface
var _ campaign.PlatformAdapter = (*FacebookAdapter)(nil)
