package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsync/backend/internal/domain/campaign"
	"github.com/adsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Diff Sync Request
// ---------------------------------------------------------------------------

// SyncDiffRequest carries the target hierarchy for a diff-based sync.
// Entities are matched against the stored hierarchy strictly by their
// durable generation-time IDs, so every entity must carry one.
type SyncDiffRequest struct {
	// Campaigns may be empty: an empty target removes everything
	Campaigns []TargetCampaign `json:"campaigns" binding:"dive"`
}

// TargetCampaign is the desired state of one campaign
type TargetCampaign struct {
	ID             string          `json:"id" binding:"required,uuid"`
	AdAccountID    string          `json:"ad_account_id" binding:"required"`
	Platform       string          `json:"platform" binding:"required,oneof=REDDIT GOOGLE FACEBOOK"`
	Name           string          `json:"name" binding:"required"`
	Status         string          `json:"status" binding:"required,oneof=DRAFT PENDING ACTIVE PAUSED COMPLETED ERROR"`
	BudgetAmount   decimal.Decimal `json:"budget_amount"`
	BudgetCurrency string          `json:"budget_currency" binding:"required,len=3"`
	BudgetType     string          `json:"budget_type" binding:"required,oneof=DAILY LIFETIME"`
	AdGroups       []TargetAdGroup `json:"ad_groups" binding:"dive"`
}

// TargetAdGroup is the desired state of one ad group
type TargetAdGroup struct {
	ID         string           `json:"id" binding:"required,uuid"`
	Name       string           `json:"name" binding:"required"`
	Status     string           `json:"status" binding:"required,oneof=DRAFT PENDING ACTIVE PAUSED COMPLETED ERROR"`
	DefaultBid *decimal.Decimal `json:"default_bid,omitempty"`
	Ads        []TargetAd       `json:"ads" binding:"dive"`
	Keywords   []TargetKeyword  `json:"keywords" binding:"dive"`
}

// TargetAd is the desired state of one ad
type TargetAd struct {
	ID          string `json:"id" binding:"required,uuid"`
	Headline    string `json:"headline" binding:"required"`
	Description string `json:"description"`
	DisplayURL  string `json:"display_url"`
	FinalURL    string `json:"final_url"`
	Status      string `json:"status" binding:"required,oneof=DRAFT PENDING ACTIVE PAUSED COMPLETED ERROR"`
}

// TargetKeyword is the desired state of one keyword
type TargetKeyword struct {
	ID        string           `json:"id" binding:"required,uuid"`
	Text      string           `json:"text" binding:"required"`
	MatchType string           `json:"match_type" binding:"required,oneof=EXACT PHRASE BROAD"`
	Bid       *decimal.Decimal `json:"bid,omitempty"`
	Status    string           `json:"status" binding:"required,oneof=DRAFT PENDING ACTIVE PAUSED COMPLETED ERROR"`
}

// ToDomain builds the target hierarchy for diffing against the stored set.
// Set-level fields are taken from the stored set; only the campaign tree
// comes from the request.
func (r *SyncDiffRequest) ToDomain(current *campaign.CampaignSet) (*campaign.CampaignSet, error) {
	target := &campaign.CampaignSet{
		TenantEntity: current.TenantEntity,
		Name:         current.Name,
		Status:       current.Status,
		SyncStatus:   current.SyncStatus,
		Config:       current.Config,
		Campaigns:    make([]campaign.Campaign, 0, len(r.Campaigns)),
	}

	for _, tc := range r.Campaigns {
		c, err := tc.toDomain(current.TenantID, current.ID)
		if err != nil {
			return nil, err
		}
		target.Campaigns = append(target.Campaigns, *c)
	}
	return target, nil
}

func (t *TargetCampaign) toDomain(tenantID, setID uuid.UUID) (*campaign.Campaign, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, err
	}

	c := &campaign.Campaign{
		TenantEntity:  tenantEntityWithID(id, tenantID),
		CampaignSetID: setID,
		AdAccountID:   t.AdAccountID,
		Platform:      campaign.PlatformCode(t.Platform),
		Name:          t.Name,
		Status:        campaign.CampaignStatus(t.Status),
		SyncStatus:    campaign.SyncStatusPending,
		Budget: campaign.Budget{
			Amount:   t.BudgetAmount,
			Currency: t.BudgetCurrency,
			Type:     campaign.BudgetType(t.BudgetType),
		},
		AdGroups: make([]campaign.AdGroup, 0, len(t.AdGroups)),
	}

	for _, tg := range t.AdGroups {
		g, err := tg.toDomain(id)
		if err != nil {
			return nil, err
		}
		c.AdGroups = append(c.AdGroups, *g)
	}
	return c, nil
}

func (t *TargetAdGroup) toDomain(campaignID uuid.UUID) (*campaign.AdGroup, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, err
	}

	g := &campaign.AdGroup{
		BaseEntity: baseEntityWithID(id),
		CampaignID: campaignID,
		Name:       t.Name,
		Status:     campaign.CampaignStatus(t.Status),
		DefaultBid: t.DefaultBid,
		Ads:        make([]campaign.Ad, 0, len(t.Ads)),
		Keywords:   make([]campaign.Keyword, 0, len(t.Keywords)),
	}

	for _, ta := range t.Ads {
		adID, err := uuid.Parse(ta.ID)
		if err != nil {
			return nil, err
		}
		g.Ads = append(g.Ads, campaign.Ad{
			BaseEntity:  baseEntityWithID(adID),
			AdGroupID:   id,
			Headline:    ta.Headline,
			Description: ta.Description,
			DisplayURL:  ta.DisplayURL,
			FinalURL:    ta.FinalURL,
			Status:      campaign.CampaignStatus(ta.Status),
		})
	}

	for _, tk := range t.Keywords {
		kwID, err := uuid.Parse(tk.ID)
		if err != nil {
			return nil, err
		}
		g.Keywords = append(g.Keywords, campaign.Keyword{
			BaseEntity: baseEntityWithID(kwID),
			AdGroupID:  id,
			Text:       tk.Text,
			MatchType:  campaign.MatchType(tk.MatchType),
			Bid:        tk.Bid,
			Status:     campaign.CampaignStatus(tk.Status),
		})
	}
	return g, nil
}

func baseEntityWithID(id uuid.UUID) shared.BaseEntity {
	return shared.BaseEntity{ID: id}
}

func tenantEntityWithID(id, tenantID uuid.UUID) shared.TenantEntity {
	return shared.TenantEntity{BaseEntity: shared.BaseEntity{ID: id}, TenantID: tenantID}
}

// ---------------------------------------------------------------------------
// Sync Status Response
// ---------------------------------------------------------------------------

// CampaignSyncStatus is the per-campaign slice of a sync status report
type CampaignSyncStatus struct {
	CampaignID         uuid.UUID  `json:"campaign_id"`
	Name               string     `json:"name"`
	Platform           string     `json:"platform"`
	Status             string     `json:"status"`
	SyncStatus         string     `json:"sync_status"`
	PlatformCampaignID *string    `json:"platform_campaign_id,omitempty"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
	SyncError          string     `json:"sync_error,omitempty"`
}

// SyncStatusResponse reports the sync state of a set and its campaigns
type SyncStatusResponse struct {
	CampaignSetID uuid.UUID            `json:"campaign_set_id"`
	Name          string               `json:"name"`
	Status        string               `json:"status"`
	SyncStatus    string               `json:"sync_status"`
	Campaigns     []CampaignSyncStatus `json:"campaigns"`
}

// NewSyncStatusResponse builds a status report from a loaded hierarchy
func NewSyncStatusResponse(set *campaign.CampaignSet) SyncStatusResponse {
	resp := SyncStatusResponse{
		CampaignSetID: set.ID,
		Name:          set.Name,
		Status:        set.Status.String(),
		SyncStatus:    set.SyncStatus.String(),
		Campaigns:     make([]CampaignSyncStatus, 0, len(set.Campaigns)),
	}
	for i := range set.Campaigns {
		c := &set.Campaigns[i]
		resp.Campaigns = append(resp.Campaigns, CampaignSyncStatus{
			CampaignID:         c.ID,
			Name:               c.Name,
			Platform:           string(c.Platform),
			Status:             c.Status.String(),
			SyncStatus:         c.SyncStatus.String(),
			PlatformCampaignID: c.PlatformCampaignID,
			LastSyncedAt:       c.LastSyncedAt,
			SyncError:          c.SyncError,
		})
	}
	return resp
}
