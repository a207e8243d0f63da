package adplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adsync/backend/internal/domain/campaign"
)

// Constants for the Reddit Ads API
const (
	// maxRedditResponseSize limits the response body size to prevent memory exhaustion
	maxRedditResponseSize = 10 * 1024 * 1024 // 10MB max response
	// microsPerUnit converts major currency units to micro units
	microsPerUnit = 1_000_000
)

// RedditAdapter implements the PlatformAdapter interface for Reddit Ads
type RedditAdapter struct {
	config     *RedditConfig
	httpClient *http.Client
}

// NewRedditAdapter creates a new Reddit adapter with the given configuration
func NewRedditAdapter(config *RedditConfig) (*RedditAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RedditAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *RedditAdapter) PlatformCode() campaign.PlatformCode {
	return campaign.PlatformCodeReddit
}

// ---------------------------------------------------------------------------
// Campaign Operations
// ---------------------------------------------------------------------------

// CreateCampaign creates a campaign on Reddit
func (a *RedditAdapter) CreateCampaign(ctx context.Context, adAccountID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	payload := RedditCampaignPayload{
		AccountID:    adAccountID,
		Name:         c.Name,
		Status:       mapToRedditStatus(c.Status),
		BudgetMicros: toMicros(c.Budget.Amount),
		BudgetType:   string(c.Budget.Type),
		Currency:     c.Budget.Currency,
	}
	return a.createEntity(ctx, "/campaigns", payload)
}

// UpdateCampaign updates a campaign on Reddit
func (a *RedditAdapter) UpdateCampaign(ctx context.Context, platformCampaignID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	payload := RedditCampaignPayload{
		Name:         c.Name,
		Status:       mapToRedditStatus(c.Status),
		BudgetMicros: toMicros(c.Budget.Amount),
		BudgetType:   string(c.Budget.Type),
		Currency:     c.Budget.Currency,
	}
	return a.updateEntity(ctx, "/campaigns/"+platformCampaignID, payload)
}

// PauseCampaign pauses a campaign on Reddit
func (a *RedditAdapter) PauseCampaign(ctx context.Context, platformCampaignID string) error {
	return a.patchStatus(ctx, "/campaigns/"+platformCampaignID, RedditStatusPaused)
}

// ResumeCampaign resumes a paused campaign on Reddit
func (a *RedditAdapter) ResumeCampaign(ctx context.Context, platformCampaignID string) error {
	return a.patchStatus(ctx, "/campaigns/"+platformCampaignID, RedditStatusActive)
}

// DeleteCampaign deletes a campaign on Reddit
func (a *RedditAdapter) DeleteCampaign(ctx context.Context, platformCampaignID string) error {
	return a.deleteEntity(ctx, "/campaigns/"+platformCampaignID)
}

// ---------------------------------------------------------------------------
// Ad Group Operations
// ---------------------------------------------------------------------------

// CreateAdGroup creates an ad group under an existing Reddit campaign
func (a *RedditAdapter) CreateAdGroup(ctx context.Context, platformCampaignID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	payload := RedditAdGroupPayload{
		CampaignID: platformCampaignID,
		Name:       g.Name,
		Status:     mapToRedditStatus(g.Status),
		BidMicros:  toMicrosPtr(g.DefaultBid),
	}
	return a.createEntity(ctx, "/ad_groups", payload)
}

// UpdateAdGroup updates an ad group on Reddit
func (a *RedditAdapter) UpdateAdGroup(ctx context.Context, platformAdGroupID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	payload := RedditAdGroupPayload{
		Name:      g.Name,
		Status:    mapToRedditStatus(g.Status),
		BidMicros: toMicrosPtr(g.DefaultBid),
	}
	return a.updateEntity(ctx, "/ad_groups/"+platformAdGroupID, payload)
}

// DeleteAdGroup deletes an ad group on Reddit
func (a *RedditAdapter) DeleteAdGroup(ctx context.Context, platformAdGroupID string) error {
	return a.deleteEntity(ctx, "/ad_groups/"+platformAdGroupID)
}

// ---------------------------------------------------------------------------
// Ad Operations
// ---------------------------------------------------------------------------

// CreateAd creates an ad under an existing Reddit ad group
func (a *RedditAdapter) CreateAd(ctx context.Context, platformAdGroupID string, ad *campaign.Ad) (*campaign.AdapterResult, error) {
	payload := RedditAdPayload{
		AdGroupID:   platformAdGroupID,
		Headline:    ad.Headline,
		Description: ad.Description,
		DisplayURL:  ad.DisplayURL,
		FinalURL:    ad.FinalURL,
		Status:      mapToRedditStatus(ad.Status),
	}
	return a.createEntity(ctx, "/ads", payload)
}

// UpdateAd updates an ad on Reddit
func (a *RedditAdapter) UpdateAd(ctx context.Context, platformAdID string, ad *campaign.Ad) (*campaign.AdapterResult, error) {
	payload := RedditAdPayload{
		Headline:    ad.Headline,
		Description: ad.Description,
		DisplayURL:  ad.DisplayURL,
		FinalURL:    ad.FinalURL,
		Status:      mapToRedditStatus(ad.Status),
	}
	return a.updateEntity(ctx, "/ads/"+platformAdID, payload)
}

// DeleteAd deletes an ad on Reddit
func (a *RedditAdapter) DeleteAd(ctx context.Context, platformAdID string) error {
	return a.deleteEntity(ctx, "/ads/"+platformAdID)
}

// ---------------------------------------------------------------------------
// Keyword Operations
// ---------------------------------------------------------------------------

// CreateKeyword creates a keyword under an existing Reddit ad group
func (a *RedditAdapter) CreateKeyword(ctx context.Context, platformAdGroupID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	payload := RedditKeywordPayload{
		AdGroupID: platformAdGroupID,
		Text:      k.Text,
		MatchType: string(k.MatchType),
		BidMicros: toMicrosPtr(k.Bid),
		Status:    mapToRedditStatus(k.Status),
	}
	return a.createEntity(ctx, "/keywords", payload)
}

// UpdateKeyword updates a keyword on Reddit
func (a *RedditAdapter) UpdateKeyword(ctx context.Context, platformKeywordID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	payload := RedditKeywordPayload{
		Text:      k.Text,
		MatchType: string(k.MatchType),
		BidMicros: toMicrosPtr(k.Bid),
		Status:    mapToRedditStatus(k.Status),
	}
	return a.updateEntity(ctx, "/keywords/"+platformKeywordID, payload)
}

// DeleteKeyword deletes a keyword on Reddit
func (a *RedditAdapter) DeleteKeyword(ctx context.Context, platformKeywordID string) error {
	return a.deleteEntity(ctx, "/keywords/"+platformKeywordID)
}

// ---------------------------------------------------------------------------
// State Fetch (drift detection)
// ---------------------------------------------------------------------------

// GetCampaignState fetches the platform-side state of a synced campaign
func (a *RedditAdapter) GetCampaignState(ctx context.Context, adAccountID string, platformCampaignID string) (*campaign.PlatformCampaignState, error) {
	path := fmt.Sprintf("/accounts/%s/campaigns/%s", adAccountID, platformCampaignID)
	respBody, status, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &campaign.PlatformCampaignState{Exists: false}, nil
	}

	var resp RedditCampaignDetailResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("reddit: failed to parse response: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("reddit: campaign fetch failed: %s", resp.ErrorMessage())
	}
	if resp.Data.Deleted {
		return &campaign.PlatformCampaignState{Exists: false}, nil
	}

	return &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       mapRedditStatusToEntityStatus(resp.Data.Status),
		BudgetAmount: fromMicros(resp.Data.BudgetMicros),
		Currency:     resp.Data.Currency,
	}, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// createEntity posts the payload and extracts the platform-assigned id
func (a *RedditAdapter) createEntity(ctx context.Context, path string, payload any) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPost, path, payload)
}

// updateEntity puts the payload against an existing entity
func (a *RedditAdapter) updateEntity(ctx context.Context, path string, payload any) (*campaign.AdapterResult, error) {
	return a.writeEntity(ctx, http.MethodPut, path, payload)
}

func (a *RedditAdapter) writeEntity(ctx context.Context, method, path string, payload any) (*campaign.AdapterResult, error) {
	respBody, status, err := a.doRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	var resp RedditEntityResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("reddit: failed to parse response: %w", err)
	}

	// Client errors and payload-level failures are business rejections,
	// not transport problems
	if status >= 400 || !resp.Success {
		return &campaign.AdapterResult{Success: false, Error: resp.ErrorMessage()}, nil
	}
	if resp.Data == nil || resp.Data.ID == "" {
		if method == http.MethodPost {
			return nil, fmt.Errorf("reddit: response missing entity id")
		}
		return &campaign.AdapterResult{Success: true}, nil
	}
	return &campaign.AdapterResult{Success: true, PlatformID: resp.Data.ID}, nil
}

func (a *RedditAdapter) patchStatus(ctx context.Context, path, status string) error {
	res, err := a.updateEntity(ctx, path, map[string]string{"status": status})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("reddit: status update rejected: %s", res.Error)
	}
	return nil
}

func (a *RedditAdapter) deleteEntity(ctx context.Context, path string) error {
	respBody, status, err := a.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	// Deleting an already-deleted entity is treated as success
	if status == http.StatusNotFound {
		return nil
	}

	var resp RedditResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("reddit: failed to parse response: %w", err)
	}
	if status >= 400 || !resp.Success {
		return fmt.Errorf("reddit: delete rejected: %s", resp.ErrorMessage())
	}
	return nil
}

// doRequest performs an HTTP request against the Reddit Ads API. Network
// failures and server-side errors return a Go error; client errors are
// returned to the caller with their status code for business handling.
func (a *RedditAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("reddit: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	url := a.config.APIBaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("reddit: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", campaign.ErrAdapterUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRedditResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("reddit: failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", campaign.ErrAdapterUnavailable, resp.StatusCode)
	}

	return respBody, resp.StatusCode, nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

// mapToRedditStatus maps a local status onto the Reddit status enum
func mapToRedditStatus(status campaign.CampaignStatus) string {
	switch status {
	case campaign.CampaignStatusActive:
		return RedditStatusActive
	case campaign.CampaignStatusPaused:
		return RedditStatusPaused
	case campaign.CampaignStatusCompleted:
		return RedditStatusCompleted
	default:
		// Draft and pending entities are created paused; activation is a
		// separate local transition
		return RedditStatusPaused
	}
}

// mapRedditStatusToEntityStatus maps a Reddit status onto the platform
// status enum the poller consumes
func mapRedditStatusToEntityStatus(status string) campaign.PlatformEntityStatus {
	switch status {
	case RedditStatusActive:
		return campaign.PlatformEntityStatusActive
	case RedditStatusPaused:
		return campaign.PlatformEntityStatusPaused
	case RedditStatusCompleted:
		return campaign.PlatformEntityStatusCompleted
	case RedditStatusDeleted:
		return campaign.PlatformEntityStatusDeleted
	default:
		return campaign.PlatformEntityStatusError
	}
}

func toMicros(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(microsPerUnit)).IntPart()
}

func toMicrosPtr(amount *decimal.Decimal) int64 {
	if amount == nil {
		return 0
	}
	return toMicros(*amount)
}

func fromMicros(micros int64) decimal.Decimal {
	return decimal.NewFromInt(micros).Div(decimal.NewFromInt(microsPerUnit))
}

// Ensure RedditAdapter implements the PlatformAdapter interface
var _ campaign.PlatformAdapter = (*RedditAdapter)(nil)
