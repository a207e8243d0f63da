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

	"github.com/adsync/backend/internal/domain/campaign"
)

// GoogleProductionAPIURL is the production Google Ads API endpoint
const GoogleProductionAPIURL = "https://googleads.googleapis.com/v16"

// Errors for Google configuration
var (
	ErrGoogleConfigMissingDeveloperToken = errors.New("google: developer token is required")
	ErrGoogleConfigMissingAccessToken    = errors.New("google: access token is required")
)

// GoogleConfig holds configuration for the Google Ads API integration
type GoogleConfig struct {
	DeveloperToken string
	AccessToken    string
	APIBaseURL     string
	TimeoutSeconds int
}

// Validate validates the Google configuration
func (c *GoogleConfig) Validate() error {
	if c.DeveloperToken == "" {
		return ErrGoogleConfigMissingDeveloperToken
	}
	if c.AccessToken == "" {
		return ErrGoogleConfigMissingAccessToken
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = GoogleProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// googleEntityResponse is the response envelope for entity writes
type googleEntityResponse struct {
	ID    string       `json:"id,omitempty"`
	Error *googleError `json:"error,omitempty"`
}

// googleCampaignDetail is the platform-side view of a campaign
type googleCampaignDetail struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	BudgetMicros int64        `json:"budget_micros"`
	Currency     string       `json:"currency_code"`
	Error        *googleError `json:"error,omitempty"`
}

type googleError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GoogleAdapter implements the PlatformAdapter interface for Google Ads
type GoogleAdapter struct {
	config     *GoogleConfig
	httpClient *http.Client
}

// NewGoogleAdapter creates a new Google Ads adapter
func NewGoogleAdapter(config *GoogleConfig) (*GoogleAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &GoogleAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *GoogleAdapter) PlatformCode() campaign.PlatformCode {
	return campaign.PlatformCodeGoogle
}

func (a *GoogleAdapter) CreateCampaign(ctx context.Context, adAccountID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPost, "/customers/"+adAccountID+"/campaigns", map[string]any{
		"name":          c.Name,
		"status":        mapToGoogleStatus(c.Status),
		"budget_micros": toMicros(c.Budget.Amount),
		"currency_code": c.Budget.Currency,
	})
}

func (a *GoogleAdapter) UpdateCampaign(ctx context.Context, platformCampaignID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPatch, "/campaigns/"+platformCampaignID, map[string]any{
		"name":          c.Name,
		"status":        mapToGoogleStatus(c.Status),
		"budget_micros": toMicros(c.Budget.Amount),
	})
}

func (a *GoogleAdapter) PauseCampaign(ctx context.Context, platformCampaignID string) error {
	return a.setStatus(ctx, "/campaigns/"+platformCampaignID, "PAUSED")
}

func (a *GoogleAdapter) ResumeCampaign(ctx context.Context, platformCampaignID string) error {
	return a.setStatus(ctx, "/campaigns/"+platformCampaignID, "ENABLED")
}

func (a *GoogleAdapter) DeleteCampaign(ctx context.Context, platformCampaignID string) error {
	return a.removeEntity(ctx, "/campaigns/"+platformCampaignID)
}

func (a *GoogleAdapter) CreateAdGroup(ctx context.Context, platformCampaignID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPost, "/ad_groups", map[string]any{
		"campaign_id":    platformCampaignID,
		"name":           g.Name,
		"status":         mapToGoogleStatus(g.Status),
		"cpc_bid_micros": toMicrosPtr(g.DefaultBid),
	})
}

func (a *GoogleAdapter) UpdateAdGroup(ctx context.Context, platformAdGroupID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPatch, "/ad_groups/"+platformAdGroupID, map[string]any{
		"name":           g.Name,
		"status":         mapToGoogleStatus(g.Status),
		"cpc_bid_micros": toMicrosPtr(g.DefaultBid),
	})
}

func (a *GoogleAdapter) DeleteAdGroup(ctx context.Context, platformAdGroupID string) error {
	return a.removeEntity(ctx, "/ad_groups/"+platformAdGroupID)
}

func (a *GoogleAdapter) CreateAd(ctx context.Context, platformAdGroupID string, ad *campaign.Ad) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPost, "/ads", map[string]any{
		"ad_group_id": platformAdGroupID,
		"headline":    ad.Headline,
		"description": ad.Description,
		"display_url": ad.DisplayURL,
		"final_url":   ad.FinalURL,
		"status":      mapToGoogleStatus(ad.Status),
	})
}

func (a *GoogleAdapter) UpdateAd(ctx context.Context, platformAdID string, ad *campaign.Ad) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPatch, "/ads/"+platformAdID, map[string]any{
		"headline":    ad.Headline,
		"description": ad.Description,
		"display_url": ad.DisplayURL,
		"final_url":   ad.FinalURL,
		"status":      mapToGoogleStatus(ad.Status),
	})
}

func (a *GoogleAdapter) DeleteAd(ctx context.Context, platformAdID string) error {
	return a.removeEntity(ctx, "/ads/"+platformAdID)
}

func (a *GoogleAdapter) CreateKeyword(ctx context.Context, platformAdGroupID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPost, "/keywords", map[string]any{
		"ad_group_id":    platformAdGroupID,
		"text":           k.Text,
		"match_type":     string(k.MatchType),
		"cpc_bid_micros": toMicrosPtr(k.Bid),
		"status":         mapToGoogleStatus(k.Status),
	})
}

func (a *GoogleAdapter) UpdateKeyword(ctx context.Context, platformKeywordID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPatch, "/keywords/"+platformKeywordID, map[string]any{
		"text":           k.Text,
		"match_type":     string(k.MatchType),
		"cpc_bid_micros": toMicrosPtr(k.Bid),
		"status":         mapToGoogleStatus(k.Status),
	})
}

func (a *GoogleAdapter) DeleteKeyword(ctx context.Context, platformKeywordID string) error {
	return a.removeEntity(ctx, "/keywords/"+platformKeywordID)
}

// GetCampaignState fetches the platform-side state of a synced campaign
func (a *GoogleAdapter) GetCampaignState(ctx context.Context, adAccountID string, platformCampaignID string) (*campaign.PlatformCampaignState, error) {
	path := fmt.Sprintf("/customers/%s/campaigns/%s", adAccountID, platformCampaignID)
	respBody, status, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &campaign.PlatformCampaignState{Exists: false}, nil
	}

	var detail googleCampaignDetail
	if err := json.Unmarshal(respBody, &detail); err != nil {
		return nil, fmt.Errorf("google: failed to parse response: %w", err)
	}
	if detail.Error != nil {
		return nil, fmt.Errorf("google: campaign fetch failed: %s", detail.Error.Message)
	}
	if detail.Status == "REMOVED" {
		return &campaign.PlatformCampaignState{Exists: false}, nil
	}

	return &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       mapGoogleStatusToEntityStatus(detail.Status),
		BudgetAmount: fromMicros(detail.BudgetMicros),
		Currency:     detail.Currency,
	}, nil
}

func (a *GoogleAdapter) writeEntity(ctx context.Context, method, path string, payload any) (*campaign.AdapterResult, error) {
	respBody, status, err := a.doRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	var resp googleEntityResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("google: failed to parse response: %w", err)
	}
	if status >= 400 || resp.Error != nil {
		msg := ""
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return &campaign.AdapterResult{Success: false, Error: msg}, nil
	}
	if method == http.MethodPost && resp.ID == "" {
		return nil, fmt.Errorf("google: response missing entity id")
	}
	return &campaign.AdapterResult{Success: true, PlatformID: resp.ID}, nil
}

func (a *GoogleAdapter) setStatus(ctx context.Context, path, status string) error {
	res, err := a.writeEntity(ctx, http.MethodPatch, path, map[string]string{"status": status})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("google: status update rejected: %s", res.Error)
	}
	return nil
}

func (a *GoogleAdapter) removeEntity(ctx context.Context, path string) error {
	respBody, status, err := a.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status >= 400 {
		var resp googleEntityResponse
		msg := ""
		if json.Unmarshal(respBody, &resp) == nil && resp.Error != nil {
			msg = resp.Error.Message
		}
		return fmt.Errorf("google: delete rejected: %s", msg)
	}
	return nil
}

func (a *GoogleAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("google: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("google: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	req.Header.Set("developer-token", a.config.DeveloperToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", campaign.ErrAdapterUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRedditResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("google: failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", campaign.ErrAdapterUnavailable, resp.StatusCode)
	}
	return respBody, resp.StatusCode, nil
}

// mapToGoogleStatus maps a local status onto the Google Ads status enum
func mapToGoogleStatus(status campaign.CampaignStatus) string {
	switch status {
	case campaign.CampaignStatusActive:
		return "ENABLED"
	case campaign.CampaignStatusCompleted:
		return "REMOVED"
	default:
		return "PAUSED"
	}
}

func mapGoogleStatusToEntityStatus(status string) campaign.PlatformEntityStatus {
	switch status {
	case "ENABLED":
		return campaign.PlatformEntityStatusActive
	case "PAUSED":
		return campaign.PlatformEntityStatusPaused
	case "REMOVED":
		return campaign.PlatformEntityStatusDeleted
	default:
		return campaign.PlatformEntityStatusError
	}
}

// Ensure GoogleAdapter implements the PlatformAdapter interface
var _ campaign.PlatformAdapter = (*GoogleAdapter)(nil)
