package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adsync/backend/internal/domain/campaign"
	"github.com/adsync/backend/internal/infrastructure/persistence/models"
	"github.com/adsync/backend/internal/infrastructure/resilience"
)

// GormCampaignRepository implements campaign.CampaignRepository using GORM.
// Retry bookkeeping computes next-retry timestamps with the injected
// backoff configuration, so schedulers never duplicate the policy.
type GormCampaignRepository struct {
	db      *gorm.DB
	backoff resilience.BackoffConfig
	now     func() time.Time
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB, backoff resilience.BackoffConfig) (*GormCampaignRepository, error) {
	if err := backoff.Validate(); err != nil {
		return nil, err
	}
	return &GormCampaignRepository{
		db:      db,
		backoff: backoff,
		now:     time.Now,
	}, nil
}

// ---------------------------------------------------------------------------
// Hierarchy loading
// ---------------------------------------------------------------------------

// GetCampaignSetWithRelations loads a set with its full ordered hierarchy
func (r *GormCampaignRepository) GetCampaignSetWithRelations(ctx context.Context, setID uuid.UUID) (*campaign.CampaignSet, error) {
	var model models.CampaignSetModel
	err := r.db.WithContext(ctx).
		Preload("Campaigns", func(db *gorm.DB) *gorm.DB {
			return db.Order("campaigns.created_at ASC")
		}).
		Preload("Campaigns.AdGroups", func(db *gorm.DB) *gorm.DB {
			return db.Order("ad_groups.created_at ASC")
		}).
		Preload("Campaigns.AdGroups.Ads", func(db *gorm.DB) *gorm.DB {
			return db.Order("ads.created_at ASC")
		}).
		Preload("Campaigns.AdGroups.Keywords", func(db *gorm.DB) *gorm.DB {
			return db.Order("keywords.created_at ASC")
		}).
		First(&model, "id = ?", setID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, campaign.ErrCampaignSetNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetCampaignByID loads a single campaign without children
func (r *GormCampaignRepository) GetCampaignByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	var model models.CampaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, campaign.ErrCampaignNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ---------------------------------------------------------------------------
// Sync state persistence
// ---------------------------------------------------------------------------

// UpdateCampaignSetStatus persists set status and sync status together
func (r *GormCampaignRepository) UpdateCampaignSetStatus(ctx context.Context, setID uuid.UUID, status campaign.CampaignSetStatus, syncStatus campaign.SyncStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.CampaignSetModel{}).
		Where("id = ?", setID).
		Updates(map[string]any{
			"status":      status,
			"sync_status": syncStatus,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return campaign.ErrCampaignSetNotFound
	}
	return nil
}

// UpdateCampaignSyncStatus persists a campaign's sync status and error log,
// creating the sync record lazily if absent. A transition to SYNCED also
// stamps LastSyncedAt.
func (r *GormCampaignRepository) UpdateCampaignSyncStatus(ctx context.Context, campaignID uuid.UUID, status campaign.SyncStatus, syncError string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CampaignModel
		if err := tx.First(&model, "id = ?", campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return campaign.ErrCampaignNotFound
			}
			return err
		}

		now := r.now()
		updates := map[string]any{
			"sync_status": status,
			"sync_error":  syncError,
		}
		if status == campaign.SyncStatusSynced {
			updates["last_synced_at"] = now
		}
		if err := tx.Model(&models.CampaignModel{}).Where("id = ?", campaignID).Updates(updates).Error; err != nil {
			return err
		}

		record, err := r.loadOrCreateSyncRecord(tx, &model)
		if err != nil {
			return err
		}
		record.SyncStatus = status
		record.ErrorLog = syncError
		if status == campaign.SyncStatusSynced {
			record.LastSyncedAt = &now
			if model.PlatformCampaignID != nil {
				record.PlatformID = *model.PlatformCampaignID
			}
		}
		return tx.Save(record).Error
	})
}

// UpdateCampaignPlatformID persists a campaign's platform identifier and
// mirrors it onto the sync record
func (r *GormCampaignRepository) UpdateCampaignPlatformID(ctx context.Context, campaignID uuid.UUID, platformID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CampaignModel
		if err := tx.First(&model, "id = ?", campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return campaign.ErrCampaignNotFound
			}
			return err
		}

		if err := tx.Model(&models.CampaignModel{}).
			Where("id = ?", campaignID).
			Update("platform_campaign_id", platformID).Error; err != nil {
			return err
		}

		record, err := r.loadOrCreateSyncRecord(tx, &model)
		if err != nil {
			return err
		}
		record.PlatformID = platformID
		return tx.Save(record).Error
	})
}

// UpdateAdGroupPlatformID persists an ad group's platform identifier
func (r *GormCampaignRepository) UpdateAdGroupPlatformID(ctx context.Context, adGroupID uuid.UUID, platformID string) error {
	return r.updatePlatformID(ctx, &models.AdGroupModel{}, "platform_ad_group_id", adGroupID, platformID)
}

// UpdateAdPlatformID persists an ad's platform identifier
func (r *GormCampaignRepository) UpdateAdPlatformID(ctx context.Context, adID uuid.UUID, platformID string) error {
	return r.updatePlatformID(ctx, &models.AdModel{}, "platform_ad_id", adID, platformID)
}

// UpdateKeywordPlatformID persists a keyword's platform identifier
func (r *GormCampaignRepository) UpdateKeywordPlatformID(ctx context.Context, keywordID uuid.UUID, platformID string) error {
	return r.updatePlatformID(ctx, &models.KeywordModel{}, "platform_keyword_id", keywordID, platformID)
}

func (r *GormCampaignRepository) updatePlatformID(ctx context.Context, model any, column string, id uuid.UUID, platformID string) error {
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Update(column, platformID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Poller queries and resolutions
// ---------------------------------------------------------------------------

// GetSyncedCampaignsForAccount returns campaigns with a platform
// identifier, scoped strictly to the tenant's ad account
func (r *GormCampaignRepository) GetSyncedCampaignsForAccount(ctx context.Context, tenantID uuid.UUID, adAccountID string) ([]campaign.Campaign, error) {
	var campaignModels []models.CampaignModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND ad_account_id = ? AND platform_campaign_id IS NOT NULL", tenantID, adAccountID).
		Order("created_at ASC").
		Find(&campaignModels).Error
	if err != nil {
		return nil, err
	}

	campaigns := make([]campaign.Campaign, len(campaignModels))
	for i := range campaignModels {
		campaigns[i] = *campaignModels[i].ToDomain()
	}
	return campaigns, nil
}

// MarkCampaignDeletedOnPlatform records a platform-side delete
func (r *GormCampaignRepository) MarkCampaignDeletedOnPlatform(ctx context.Context, campaignID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CampaignModel
		if err := tx.First(&model, "id = ?", campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return campaign.ErrCampaignNotFound
			}
			return err
		}

		if err := tx.Model(&models.CampaignModel{}).
			Where("id = ?", campaignID).
			Updates(map[string]any{
				"status":      campaign.CampaignStatusError,
				"sync_status": campaign.SyncStatusFailed,
				"sync_error":  reason,
			}).Error; err != nil {
			return err
		}

		record, err := r.loadOrCreateSyncRecord(tx, &model)
		if err != nil {
			return err
		}
		record.SyncStatus = campaign.SyncStatusFailed
		record.ErrorLog = reason
		return tx.Save(record).Error
	})
}

// MarkCampaignConflict records a divergence needing human resolution.
// The campaign's local status is left untouched.
func (r *GormCampaignRepository) MarkCampaignConflict(ctx context.Context, campaignID uuid.UUID, detail *campaign.ConflictDetail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CampaignModel
		if err := tx.First(&model, "id = ?", campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return campaign.ErrCampaignNotFound
			}
			return err
		}

		if err := tx.Model(&models.CampaignModel{}).
			Where("id = ?", campaignID).
			Update("sync_status", campaign.SyncStatusConflict).Error; err != nil {
			return err
		}

		record, err := r.loadOrCreateSyncRecord(tx, &model)
		if err != nil {
			return err
		}
		record.SyncStatus = campaign.SyncStatusConflict
		if err := tx.Save(record).Error; err != nil {
			return err
		}

		var conflictModel models.ConflictDetailModel
		conflictModel.FromDomain(detail)
		return tx.Create(&conflictModel).Error
	})
}

// UpdateCampaignFromPlatform applies a platform-wins resolution
func (r *GormCampaignRepository) UpdateCampaignFromPlatform(ctx context.Context, campaignID uuid.UUID, update campaign.PlatformDriftUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CampaignModel
		if err := tx.First(&model, "id = ?", campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return campaign.ErrCampaignNotFound
			}
			return err
		}

		now := r.now()
		updates := map[string]any{
			"status":         update.Status,
			"sync_status":    campaign.SyncStatusSynced,
			"sync_error":     "",
			"last_synced_at": now,
		}
		if !update.BudgetAmount.IsZero() {
			updates["budget_amount"] = update.BudgetAmount
		}
		if update.Currency != "" {
			updates["budget_currency"] = update.Currency
		}
		if err := tx.Model(&models.CampaignModel{}).Where("id = ?", campaignID).Updates(updates).Error; err != nil {
			return err
		}

		record, err := r.loadOrCreateSyncRecord(tx, &model)
		if err != nil {
			return err
		}
		record.SyncStatus = campaign.SyncStatusSynced
		record.ErrorLog = ""
		record.LastSyncedAt = &now
		return tx.Save(record).Error
	})
}

// ---------------------------------------------------------------------------
// Retry bookkeeping
// ---------------------------------------------------------------------------

// GetFailedCampaignsForRetry returns sync records eligible for retry
func (r *GormCampaignRepository) GetFailedCampaignsForRetry(ctx context.Context, tenantID uuid.UUID, maxRetries int) ([]campaign.SyncRecord, error) {
	var recordModels []models.SyncRecordModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sync_status = ? AND permanent_failure = ? AND retry_count < ?",
			tenantID, campaign.SyncStatusFailed, false, maxRetries).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", r.now()).
		Order("next_retry_at ASC NULLS FIRST").
		Find(&recordModels).Error
	if err != nil {
		return nil, err
	}

	records := make([]campaign.SyncRecord, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomain()
	}
	return records, nil
}

// IncrementRetryCount bumps the retry count, stamps LastRetryAt and
// computes NextRetryAt from the new count using the configured backoff
func (r *GormCampaignRepository) IncrementRetryCount(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var newCount int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.SyncRecordModel
		if err := tx.First(&record, "campaign_id = ?", campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return campaign.ErrSyncRecordNotFound
			}
			return err
		}

		now := r.now()
		newCount = record.RetryCount + 1
		nextRetry := now.Add(resilience.CalculateBackoffDelay(newCount, r.backoff))

		return tx.Model(&models.SyncRecordModel{}).
			Where("id = ?", record.ID).
			Updates(map[string]any{
				"retry_count":   newCount,
				"last_retry_at": now,
				"next_retry_at": nextRetry,
			}).Error
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}

// MarkPermanentFailure excludes the campaign from further automatic
// retries and sets its local status to ERROR
func (r *GormCampaignRepository) MarkPermanentFailure(ctx context.Context, campaignID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.SyncRecordModel
		if err := tx.First(&record, "campaign_id = ?", campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return campaign.ErrSyncRecordNotFound
			}
			return err
		}

		domainRecord := record.ToDomain()
		domainRecord.MarkPermanent(reason)
		record.FromDomain(domainRecord)
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		return tx.Model(&models.CampaignModel{}).
			Where("id = ?", campaignID).
			Updates(map[string]any{
				"status":     campaign.CampaignStatusError,
				"sync_error": domainRecord.ErrorLog,
			}).Error
	})
}

// ResetSyncForRetry clears the error log and returns the sync record to
// PENDING
func (r *GormCampaignRepository) ResetSyncForRetry(ctx context.Context, campaignID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SyncRecordModel{}).
			Where("campaign_id = ?", campaignID).
			Updates(map[string]any{
				"sync_status": campaign.SyncStatusPending,
				"error_log":   "",
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return campaign.ErrSyncRecordNotFound
		}

		return tx.Model(&models.CampaignModel{}).
			Where("id = ?", campaignID).
			Updates(map[string]any{
				"sync_status": campaign.SyncStatusPending,
				"sync_error":  "",
			}).Error
	})
}

// ---------------------------------------------------------------------------
// Sync target enumeration
// ---------------------------------------------------------------------------

// ListRetryTenants returns the distinct tenants holding failed,
// non-permanent sync records
func (r *GormCampaignRepository) ListRetryTenants(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.SyncRecordModel{}).
		Where("sync_status = ? AND permanent_failure = ?", campaign.SyncStatusFailed, false).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// ListSyncedAccounts returns the distinct ad accounts holding at least
// one campaign with a platform identifier
func (r *GormCampaignRepository) ListSyncedAccounts(ctx context.Context) ([]campaign.AccountRef, error) {
	var refs []campaign.AccountRef
	err := r.db.WithContext(ctx).
		Model(&models.CampaignModel{}).
		Where("platform_campaign_id IS NOT NULL").
		Distinct("tenant_id", "ad_account_id").
		Find(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// loadOrCreateSyncRecord loads the campaign's sync record, creating a
// pending one on first use
func (r *GormCampaignRepository) loadOrCreateSyncRecord(tx *gorm.DB, campaignModel *models.CampaignModel) (*models.SyncRecordModel, error) {
	var record models.SyncRecordModel
	err := tx.First(&record, "campaign_id = ?", campaignModel.ID).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record.FromDomain(campaign.NewSyncRecord(campaignModel.ToDomain()))
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Ensure GormCampaignRepository implements the repository contracts
var (
	_ campaign.CampaignRepository = (*GormCampaignRepository)(nil)
	_ campaign.SyncTargetSource   = (*GormCampaignRepository)(nil)
)
