package campaign

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Status Enums
// ---------------------------------------------------------------------------

// CampaignSetStatus represents the lifecycle status of a campaign set
type CampaignSetStatus string

const (
	CampaignSetStatusDraft     CampaignSetStatus = "DRAFT"
	CampaignSetStatusPending   CampaignSetStatus = "PENDING"
	CampaignSetStatusSyncing   CampaignSetStatus = "SYNCING"
	CampaignSetStatusActive    CampaignSetStatus = "ACTIVE"
	CampaignSetStatusPaused    CampaignSetStatus = "PAUSED"
	CampaignSetStatusCompleted CampaignSetStatus = "COMPLETED"
	CampaignSetStatusArchived  CampaignSetStatus = "ARCHIVED"
	CampaignSetStatusError     CampaignSetStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s CampaignSetStatus) IsValid() bool {
	switch s {
	case CampaignSetStatusDraft, CampaignSetStatusPending, CampaignSetStatusSyncing,
		CampaignSetStatusActive, CampaignSetStatusPaused, CampaignSetStatusCompleted,
		CampaignSetStatusArchived, CampaignSetStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of CampaignSetStatus
func (s CampaignSetStatus) String() string {
	return string(s)
}

// CampaignStatus represents the lifecycle status of a single campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusPending   CampaignStatus = "PENDING"
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusError     CampaignStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusPending, CampaignStatusActive,
		CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of CampaignStatus
func (s CampaignStatus) String() string {
	return string(s)
}

// SyncStatus represents the synchronization status of a set or campaign.
//
// State machine: PENDING → SYNCING → {SYNCED | FAILED | CONFLICT}.
// FAILED may transition back to PENDING via retry bookkeeping.
// CONFLICT is terminal until a human resolves it; it is never auto-retried.
type SyncStatus string

const (
	SyncStatusPending  SyncStatus = "PENDING"
	SyncStatusSyncing  SyncStatus = "SYNCING"
	SyncStatusSynced   SyncStatus = "SYNCED"
	SyncStatusFailed   SyncStatus = "FAILED"
	SyncStatusConflict SyncStatus = "CONFLICT"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSyncing, SyncStatusSynced, SyncStatusFailed, SyncStatusConflict:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// IsTerminalForAutomation returns true if automated retries must not touch
// a record in this status.
func (s SyncStatus) IsTerminalForAutomation() bool {
	return s == SyncStatusConflict
}

// MatchType represents how a keyword matches search queries
type MatchType string

const (
	MatchTypeExact  MatchType = "EXACT"
	MatchTypePhrase MatchType = "PHRASE"
	MatchTypeBroad  MatchType = "BROAD"
)

// IsValid returns true if the match type is valid
func (m MatchType) IsValid() bool {
	switch m {
	case MatchTypeExact, MatchTypePhrase, MatchTypeBroad:
		return true
	default:
		return false
	}
}

// BudgetType distinguishes daily budgets from lifetime budgets
type BudgetType string

const (
	BudgetTypeDaily    BudgetType = "DAILY"
	BudgetTypeLifetime BudgetType = "LIFETIME"
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Budget is a money snapshot attached to a campaign at generation time
type Budget struct {
	// Amount is the budget amount in major currency units
	Amount decimal.Decimal
	// Currency is the ISO 4217 currency code
	Currency string
	// Type distinguishes daily from lifetime budgets
	Type BudgetType
}

// Equal returns true if two budgets are identical
func (b Budget) Equal(other Budget) bool {
	return b.Amount.Equal(other.Amount) && b.Currency == other.Currency && b.Type == other.Type
}

// SetConfig is the configuration snapshot a campaign set was generated from
type SetConfig struct {
	// Platforms are the platform codes this set targets
	Platforms []PlatformCode `json:"platforms"`
	// NamingPattern is the template used to derive campaign names
	NamingPattern string `json:"naming_pattern"`
	// HierarchyRules is an opaque snapshot of the generation rules
	HierarchyRules map[string]any `json:"hierarchy_rules,omitempty"`
}

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

// CampaignSet is the top-level locally-owned hierarchy of generated
// campaigns destined for one or more ad platforms.
type CampaignSet struct {
	shared.TenantEntity
	Name       string
	Status     CampaignSetStatus
	SyncStatus SyncStatus
	Config     SetConfig
	// Campaigns are ordered; sync walks them sequentially
	Campaigns []Campaign
}

// NewCampaignSet creates a campaign set in draft state
func NewCampaignSet(tenantID uuid.UUID, name string, config SetConfig) *CampaignSet {
	return &CampaignSet{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Status:       CampaignSetStatusDraft,
		SyncStatus:   SyncStatusPending,
		Config:       config,
		Campaigns:    make([]Campaign, 0),
	}
}

// FindCampaign returns the campaign with the given ID, or nil.
// Identity is always the durable generation-time ID, never the name.
func (s *CampaignSet) FindCampaign(id uuid.UUID) *Campaign {
	for i := range s.Campaigns {
		if s.Campaigns[i].ID == id {
			return &s.Campaigns[i]
		}
	}
	return nil
}

// Campaign is a platform-bound campaign inside a set
type Campaign struct {
	shared.TenantEntity
	CampaignSetID uuid.UUID
	// AdAccountID is the external ad account this campaign belongs to
	AdAccountID string
	Platform    PlatformCode
	Name        string
	Status      CampaignStatus
	SyncStatus  SyncStatus
	// PlatformCampaignID is set once the platform has acknowledged the
	// campaign; its presence is the sole create-vs-update signal.
	PlatformCampaignID *string
	Budget             Budget
	AdGroups           []AdGroup
	LastSyncedAt       *time.Time
	SyncError          string
}

// IsSynced returns true if the campaign has a platform identifier
func (c *Campaign) IsSynced() bool {
	return c.PlatformCampaignID != nil && *c.PlatformCampaignID != ""
}

// ModifiedSinceSync returns true if the local record changed after its
// last successful sync. Campaigns that never synced count as unmodified.
func (c *Campaign) ModifiedSinceSync() bool {
	if c.LastSyncedAt == nil {
		return false
	}
	return c.UpdatedAt.After(*c.LastSyncedAt)
}

// FindAdGroup returns the ad group with the given ID, or nil
func (c *Campaign) FindAdGroup(id uuid.UUID) *AdGroup {
	for i := range c.AdGroups {
		if c.AdGroups[i].ID == id {
			return &c.AdGroups[i]
		}
	}
	return nil
}

// AdGroup groups ads and keywords under a campaign
type AdGroup struct {
	shared.BaseEntity
	CampaignID uuid.UUID
	Name       string
	Status     CampaignStatus
	DefaultBid *decimal.Decimal
	// PlatformAdGroupID is set once the platform has acknowledged the group
	PlatformAdGroupID *string
	Ads               []Ad
	Keywords          []Keyword
}

// IsSynced returns true if the ad group has a platform identifier
func (g *AdGroup) IsSynced() bool {
	return g.PlatformAdGroupID != nil && *g.PlatformAdGroupID != ""
}

// FindAd returns the ad with the given ID, or nil
func (g *AdGroup) FindAd(id uuid.UUID) *Ad {
	for i := range g.Ads {
		if g.Ads[i].ID == id {
			return &g.Ads[i]
		}
	}
	return nil
}

// FindKeyword returns the keyword with the given ID, or nil
func (g *AdGroup) FindKeyword(id uuid.UUID) *Keyword {
	for i := range g.Keywords {
		if g.Keywords[i].ID == id {
			return &g.Keywords[i]
		}
	}
	return nil
}

// Ad is a creative inside an ad group
type Ad struct {
	shared.BaseEntity
	AdGroupID   uuid.UUID
	Headline    string
	Description string
	DisplayURL  string
	FinalURL    string
	Status      CampaignStatus
	// PlatformAdID is set once the platform has acknowledged the ad
	PlatformAdID *string
}

// IsSynced returns true if the ad has a platform identifier
func (a *Ad) IsSynced() bool {
	return a.PlatformAdID != nil && *a.PlatformAdID != ""
}

// Keyword is a targeting keyword inside an ad group
type Keyword struct {
	shared.BaseEntity
	AdGroupID uuid.UUID
	Text      string
	MatchType MatchType
	Bid       *decimal.Decimal
	Status    CampaignStatus
	// PlatformKeywordID is set once the platform has acknowledged the keyword
	PlatformKeywordID *string
}

// IsSynced returns true if the keyword has a platform identifier
func (k *Keyword) IsSynced() bool {
	return k.PlatformKeywordID != nil && *k.PlatformKeywordID != ""
}
