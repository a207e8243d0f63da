package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsync/backend/internal/domain/campaign"
	"github.com/adsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// CampaignSetModel
// ---------------------------------------------------------------------------

// CampaignSetModel is the persistence model for the CampaignSet aggregate
type CampaignSetModel struct {
	ID         uuid.UUID                  `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID                  `gorm:"type:uuid;not null;index:idx_campaign_sets_tenant"`
	Name       string                     `gorm:"type:varchar(255);not null"`
	Status     campaign.CampaignSetStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	SyncStatus campaign.SyncStatus        `gorm:"type:varchar(20);not null;default:'PENDING'"`
	ConfigJSON string                     `gorm:"type:jsonb;column:config"`
	CreatedAt  time.Time                  `gorm:"not null"`
	UpdatedAt  time.Time                  `gorm:"not null"`

	Campaigns []CampaignModel `gorm:"foreignKey:CampaignSetID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CampaignSetModel) TableName() string {
	return "campaign_sets"
}

// ToDomain converts the persistence model to a domain CampaignSet
func (m *CampaignSetModel) ToDomain() *campaign.CampaignSet {
	set := &campaign.CampaignSet{
		TenantEntity: shared.TenantEntity{
			BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			TenantID:   m.TenantID,
		},
		Name:       m.Name,
		Status:     m.Status,
		SyncStatus: m.SyncStatus,
		Campaigns:  make([]campaign.Campaign, 0, len(m.Campaigns)),
	}

	if m.ConfigJSON != "" {
		var config campaign.SetConfig
		if err := json.Unmarshal([]byte(m.ConfigJSON), &config); err == nil {
			set.Config = config
		}
	}

	for i := range m.Campaigns {
		set.Campaigns = append(set.Campaigns, *m.Campaigns[i].ToDomain())
	}
	return set
}

// FromDomain populates the persistence model from a domain CampaignSet.
// Child campaigns are not mapped; they are persisted through their own
// models.
func (m *CampaignSetModel) FromDomain(set *campaign.CampaignSet) {
	m.ID = set.ID
	m.TenantID = set.TenantID
	m.Name = set.Name
	m.Status = set.Status
	m.SyncStatus = set.SyncStatus
	m.CreatedAt = set.CreatedAt
	m.UpdatedAt = set.UpdatedAt

	if jsonBytes, err := json.Marshal(set.Config); err == nil {
		m.ConfigJSON = string(jsonBytes)
	}
}

// ---------------------------------------------------------------------------
// CampaignModel
// ---------------------------------------------------------------------------

// CampaignModel is the persistence model for the Campaign entity
type CampaignModel struct {
	ID                 uuid.UUID               `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID               `gorm:"type:uuid;not null;index:idx_campaigns_tenant_account,priority:1"`
	CampaignSetID      uuid.UUID               `gorm:"type:uuid;not null;index:idx_campaigns_set"`
	AdAccountID        string                  `gorm:"type:varchar(100);not null;index:idx_campaigns_tenant_account,priority:2"`
	Platform           campaign.PlatformCode   `gorm:"type:varchar(20);not null"`
	Name               string                  `gorm:"type:varchar(255);not null"`
	Status             campaign.CampaignStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	SyncStatus         campaign.SyncStatus     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	PlatformCampaignID *string                 `gorm:"type:varchar(100);index"`
	BudgetAmount       decimal.Decimal         `gorm:"type:decimal(20,4);not null"`
	BudgetCurrency     string                  `gorm:"type:varchar(3);not null"`
	BudgetType         campaign.BudgetType     `gorm:"type:varchar(20);not null;default:'DAILY'"`
	LastSyncedAt       *time.Time
	SyncError          string    `gorm:"type:text"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`

	AdGroups []AdGroupModel `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign
func (m *CampaignModel) ToDomain() *campaign.Campaign {
	c := &campaign.Campaign{
		TenantEntity: shared.TenantEntity{
			BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			TenantID:   m.TenantID,
		},
		CampaignSetID:      m.CampaignSetID,
		AdAccountID:        m.AdAccountID,
		Platform:           m.Platform,
		Name:               m.Name,
		Status:             m.Status,
		SyncStatus:         m.SyncStatus,
		PlatformCampaignID: m.PlatformCampaignID,
		Budget: campaign.Budget{
			Amount:   m.BudgetAmount,
			Currency: m.BudgetCurrency,
			Type:     m.BudgetType,
		},
		LastSyncedAt: m.LastSyncedAt,
		SyncError:    m.SyncError,
		AdGroups:     make([]campaign.AdGroup, 0, len(m.AdGroups)),
	}
	for i := range m.AdGroups {
		c.AdGroups = append(c.AdGroups, *m.AdGroups[i].ToDomain())
	}
	return c
}

// FromDomain populates the persistence model from a domain Campaign
func (m *CampaignModel) FromDomain(c *campaign.Campaign) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.CampaignSetID = c.CampaignSetID
	m.AdAccountID = c.AdAccountID
	m.Platform = c.Platform
	m.Name = c.Name
	m.Status = c.Status
	m.SyncStatus = c.SyncStatus
	m.PlatformCampaignID = c.PlatformCampaignID
	m.BudgetAmount = c.Budget.Amount
	m.BudgetCurrency = c.Budget.Currency
	m.BudgetType = c.Budget.Type
	m.LastSyncedAt = c.LastSyncedAt
	m.SyncError = c.SyncError
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// AdGroupModel
// ---------------------------------------------------------------------------

// AdGroupModel is the persistence model for the AdGroup entity
type AdGroupModel struct {
	ID                uuid.UUID               `gorm:"type:uuid;primary_key"`
	CampaignID        uuid.UUID               `gorm:"type:uuid;not null;index:idx_ad_groups_campaign"`
	Name              string                  `gorm:"type:varchar(255);not null"`
	Status            campaign.CampaignStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	DefaultBid        *decimal.Decimal        `gorm:"type:decimal(20,4)"`
	PlatformAdGroupID *string                 `gorm:"type:varchar(100);index"`
	CreatedAt         time.Time               `gorm:"not null"`
	UpdatedAt         time.Time               `gorm:"not null"`

	Ads      []AdModel      `gorm:"foreignKey:AdGroupID;constraint:OnDelete:CASCADE"`
	Keywords []KeywordModel `gorm:"foreignKey:AdGroupID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (AdGroupModel) TableName() string {
	return "ad_groups"
}

// ToDomain converts the persistence model to a domain AdGroup
func (m *AdGroupModel) ToDomain() *campaign.AdGroup {
	g := &campaign.AdGroup{
		BaseEntity:        shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		CampaignID:        m.CampaignID,
		Name:              m.Name,
		Status:            m.Status,
		DefaultBid:        m.DefaultBid,
		PlatformAdGroupID: m.PlatformAdGroupID,
		Ads:               make([]campaign.Ad, 0, len(m.Ads)),
		Keywords:          make([]campaign.Keyword, 0, len(m.Keywords)),
	}
	for i := range m.Ads {
		g.Ads = append(g.Ads, *m.Ads[i].ToDomain())
	}
	for i := range m.Keywords {
		g.Keywords = append(g.Keywords, *m.Keywords[i].ToDomain())
	}
	return g
}

// FromDomain populates the persistence model from a domain AdGroup
func (m *AdGroupModel) FromDomain(g *campaign.AdGroup) {
	m.ID = g.ID
	m.CampaignID = g.CampaignID
	m.Name = g.Name
	m.Status = g.Status
	m.DefaultBid = g.DefaultBid
	m.PlatformAdGroupID = g.PlatformAdGroupID
	m.CreatedAt = g.CreatedAt
	m.UpdatedAt = g.UpdatedAt
}

// ---------------------------------------------------------------------------
// AdModel
// ---------------------------------------------------------------------------

// AdModel is the persistence model for the Ad entity
type AdModel struct {
	ID           uuid.UUID               `gorm:"type:uuid;primary_key"`
	AdGroupID    uuid.UUID               `gorm:"type:uuid;not null;index:idx_ads_ad_group"`
	Headline     string                  `gorm:"type:varchar(255);not null"`
	Description  string                  `gorm:"type:text"`
	DisplayURL   string                  `gorm:"type:varchar(500)"`
	FinalURL     string                  `gorm:"type:varchar(2000);not null"`
	Status       campaign.CampaignStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	PlatformAdID *string                 `gorm:"type:varchar(100);index"`
	CreatedAt    time.Time               `gorm:"not null"`
	UpdatedAt    time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AdModel) TableName() string {
	return "ads"
}

// ToDomain converts the persistence model to a domain Ad
func (m *AdModel) ToDomain() *campaign.Ad {
	return &campaign.Ad{
		BaseEntity:   shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		AdGroupID:    m.AdGroupID,
		Headline:     m.Headline,
		Description:  m.Description,
		DisplayURL:   m.DisplayURL,
		FinalURL:     m.FinalURL,
		Status:       m.Status,
		PlatformAdID: m.PlatformAdID,
	}
}

// FromDomain populates the persistence model from a domain Ad
func (m *AdModel) FromDomain(a *campaign.Ad) {
	m.ID = a.ID
	m.AdGroupID = a.AdGroupID
	m.Headline = a.Headline
	m.Description = a.Description
	m.DisplayURL = a.DisplayURL
	m.FinalURL = a.FinalURL
	m.Status = a.Status
	m.PlatformAdID = a.PlatformAdID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// ---------------------------------------------------------------------------
// KeywordModel
// ---------------------------------------------------------------------------

// KeywordModel is the persistence model for the Keyword entity
type KeywordModel struct {
	ID                uuid.UUID               `gorm:"type:uuid;primary_key"`
	AdGroupID         uuid.UUID               `gorm:"type:uuid;not null;index:idx_keywords_ad_group"`
	Text              string                  `gorm:"type:varchar(255);not null"`
	MatchType         campaign.MatchType      `gorm:"type:varchar(20);not null;default:'BROAD'"`
	Bid               *decimal.Decimal        `gorm:"type:decimal(20,4)"`
	Status            campaign.CampaignStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	PlatformKeywordID *string                 `gorm:"type:varchar(100);index"`
	CreatedAt         time.Time               `gorm:"not null"`
	UpdatedAt         time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (KeywordModel) TableName() string {
	return "keywords"
}

// ToDomain converts the persistence model to a domain Keyword
func (m *KeywordModel) ToDomain() *campaign.Keyword {
	return &campaign.Keyword{
		BaseEntity:        shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		AdGroupID:         m.AdGroupID,
		Text:              m.Text,
		MatchType:         m.MatchType,
		Bid:               m.Bid,
		Status:            m.Status,
		PlatformKeywordID: m.PlatformKeywordID,
	}
}

// FromDomain populates the persistence model from a domain Keyword
func (m *KeywordModel) FromDomain(k *campaign.Keyword) {
	m.ID = k.ID
	m.AdGroupID = k.AdGroupID
	m.Text = k.Text
	m.MatchType = k.MatchType
	m.Bid = k.Bid
	m.Status = k.Status
	m.PlatformKeywordID = k.PlatformKeywordID
	m.CreatedAt = k.CreatedAt
	m.UpdatedAt = k.UpdatedAt
}

// ---------------------------------------------------------------------------
// SyncRecordModel
// ---------------------------------------------------------------------------

// SyncRecordModel is the persistence model for the SyncRecord entity
type SyncRecordModel struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key"`
	CampaignID       uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_sync_records_campaign"`
	TenantID         uuid.UUID             `gorm:"type:uuid;not null;index:idx_sync_records_tenant"`
	Platform         campaign.PlatformCode `gorm:"type:varchar(20);not null"`
	SyncStatus       campaign.SyncStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_sync_records_status"`
	PlatformID       string                `gorm:"type:varchar(100)"`
	ErrorLog         string                `gorm:"type:text"`
	RetryCount       int                   `gorm:"not null;default:0"`
	LastRetryAt      *time.Time
	NextRetryAt      *time.Time `gorm:"index"`
	PermanentFailure bool       `gorm:"not null;default:false"`
	LastSyncedAt     *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncRecordModel) TableName() string {
	return "sync_records"
}

// ToDomain converts the persistence model to a domain SyncRecord
func (m *SyncRecordModel) ToDomain() *campaign.SyncRecord {
	return &campaign.SyncRecord{
		ID:               m.ID,
		CampaignID:       m.CampaignID,
		TenantID:         m.TenantID,
		Platform:         m.Platform,
		SyncStatus:       m.SyncStatus,
		PlatformID:       m.PlatformID,
		ErrorLog:         m.ErrorLog,
		RetryCount:       m.RetryCount,
		LastRetryAt:      m.LastRetryAt,
		NextRetryAt:      m.NextRetryAt,
		PermanentFailure: m.PermanentFailure,
		LastSyncedAt:     m.LastSyncedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncRecord
func (m *SyncRecordModel) FromDomain(r *campaign.SyncRecord) {
	m.ID = r.ID
	m.CampaignID = r.CampaignID
	m.TenantID = r.TenantID
	m.Platform = r.Platform
	m.SyncStatus = r.SyncStatus
	m.PlatformID = r.PlatformID
	m.ErrorLog = r.ErrorLog
	m.RetryCount = r.RetryCount
	m.LastRetryAt = r.LastRetryAt
	m.NextRetryAt = r.NextRetryAt
	m.PermanentFailure = r.PermanentFailure
	m.LastSyncedAt = r.LastSyncedAt
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}

// ---------------------------------------------------------------------------
// ConflictDetailModel
// ---------------------------------------------------------------------------

// ConflictDetailModel is the persistence model for the ConflictDetail
// entity. Conflicts are stored as their own queryable rows, not serialized
// into the sync record's error log.
type ConflictDetailModel struct {
	ID                 uuid.UUID             `gorm:"type:uuid;primary_key"`
	CampaignID         uuid.UUID             `gorm:"type:uuid;not null;index:idx_conflicts_campaign"`
	TenantID           uuid.UUID             `gorm:"type:uuid;not null;index:idx_conflicts_tenant"`
	Platform           campaign.PlatformCode `gorm:"type:varchar(20);not null"`
	FieldsJSON         string                `gorm:"type:jsonb;column:fields"`
	LocalValuesJSON    string                `gorm:"type:jsonb;column:local_values"`
	PlatformValuesJSON string                `gorm:"type:jsonb;column:platform_values"`
	LocalUpdatedAt     time.Time             `gorm:"not null"`
	DetectedAt         time.Time             `gorm:"not null"`
	Resolved           bool                  `gorm:"not null;default:false;index:idx_conflicts_resolved"`
}

// TableName returns the table name for GORM
func (ConflictDetailModel) TableName() string {
	return "sync_conflicts"
}

// ToDomain converts the persistence model to a domain ConflictDetail
func (m *ConflictDetailModel) ToDomain() *campaign.ConflictDetail {
	detail := &campaign.ConflictDetail{
		ID:             m.ID,
		CampaignID:     m.CampaignID,
		TenantID:       m.TenantID,
		Platform:       m.Platform,
		Fields:         make([]string, 0),
		LocalValues:    make(map[string]any),
		PlatformValues: make(map[string]any),
		LocalUpdatedAt: m.LocalUpdatedAt,
		DetectedAt:     m.DetectedAt,
		Resolved:       m.Resolved,
	}
	if m.FieldsJSON != "" {
		var fields []string
		if err := json.Unmarshal([]byte(m.FieldsJSON), &fields); err == nil {
			detail.Fields = fields
		}
	}
	if m.LocalValuesJSON != "" {
		var values map[string]any
		if err := json.Unmarshal([]byte(m.LocalValuesJSON), &values); err == nil {
			detail.LocalValues = values
		}
	}
	if m.PlatformValuesJSON != "" {
		var values map[string]any
		if err := json.Unmarshal([]byte(m.PlatformValuesJSON), &values); err == nil {
			detail.PlatformValues = values
		}
	}
	return detail
}

// FromDomain populates the persistence model from a domain ConflictDetail
func (m *ConflictDetailModel) FromDomain(d *campaign.ConflictDetail) {
	m.ID = d.ID
	m.CampaignID = d.CampaignID
	m.TenantID = d.TenantID
	m.Platform = d.Platform
	m.LocalUpdatedAt = d.LocalUpdatedAt
	m.DetectedAt = d.DetectedAt
	m.Resolved = d.Resolved

	if jsonBytes, err := json.Marshal(d.Fields); err == nil {
		m.FieldsJSON = string(jsonBytes)
	}
	if jsonBytes, err := json.Marshal(d.LocalValues); err == nil {
		m.LocalValuesJSON = string(jsonBytes)
	}
	if jsonBytes, err := json.Marshal(d.PlatformValues); err == nil {
		m.PlatformValuesJSON = string(jsonBytes)
	}
}
