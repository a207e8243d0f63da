package campaign

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformDriftUpdate carries the platform-side state the poller maps onto
// a local campaign when the platform wins a drift resolution.
type PlatformDriftUpdate struct {
	Status CampaignStatus
	// BudgetAmount is the platform-reported budget; zero means unreported,
	// in which case the campaign's existing budget amount is preserved.
	BudgetAmount decimal.Decimal
	// Currency is empty when the platform payload omits it, in which case
	// the campaign's existing currency is preserved.
	Currency string
}

// CampaignRepository is the persistence contract the sync core depends on.
// The storage technology behind it is not part of this core; only the
// capability set is.
type CampaignRepository interface {
	// ---------------------------------------------------------------------------
	// Hierarchy loading
	// ---------------------------------------------------------------------------

	// GetCampaignSetWithRelations loads a set with its full ordered
	// hierarchy (campaigns, ad groups, ads, keywords).
	// Returns ErrCampaignSetNotFound when absent.
	GetCampaignSetWithRelations(ctx context.Context, setID uuid.UUID) (*CampaignSet, error)

	// GetCampaignByID loads a single campaign without children.
	// Returns ErrCampaignNotFound when absent.
	GetCampaignByID(ctx context.Context, id uuid.UUID) (*Campaign, error)

	// ---------------------------------------------------------------------------
	// Sync state persistence
	// ---------------------------------------------------------------------------

	// UpdateCampaignSetStatus persists set status and sync status together
	UpdateCampaignSetStatus(ctx context.Context, setID uuid.UUID, status CampaignSetStatus, syncStatus SyncStatus) error

	// UpdateCampaignSyncStatus persists a campaign's sync status and error
	// log, creating the sync record lazily if absent. A transition to
	// SYNCED also stamps LastSyncedAt.
	UpdateCampaignSyncStatus(ctx context.Context, campaignID uuid.UUID, status SyncStatus, syncError string) error

	// Platform identifier persistence. Each is called immediately after a
	// successful create, before any child operation is attempted, so that
	// interrupted syncs never produce duplicates.
	UpdateCampaignPlatformID(ctx context.Context, campaignID uuid.UUID, platformID string) error
	UpdateAdGroupPlatformID(ctx context.Context, adGroupID uuid.UUID, platformID string) error
	UpdateAdPlatformID(ctx context.Context, adID uuid.UUID, platformID string) error
	UpdateKeywordPlatformID(ctx context.Context, keywordID uuid.UUID, platformID string) error

	// ---------------------------------------------------------------------------
	// Poller queries and resolutions
	// ---------------------------------------------------------------------------

	// GetSyncedCampaignsForAccount returns campaigns with a non-nil
	// platform identifier, scoped strictly to the tenant's ad account.
	GetSyncedCampaignsForAccount(ctx context.Context, tenantID uuid.UUID, adAccountID string) ([]Campaign, error)

	// MarkCampaignDeletedOnPlatform records a platform-side delete: sync
	// record FAILED with the explanatory error, campaign status ERROR.
	MarkCampaignDeletedOnPlatform(ctx context.Context, campaignID uuid.UUID, reason string) error

	// MarkCampaignConflict records a divergence needing human resolution:
	// sync record CONFLICT, structured detail persisted. The campaign's
	// local status is left untouched.
	MarkCampaignConflict(ctx context.Context, campaignID uuid.UUID, detail *ConflictDetail) error

	// UpdateCampaignFromPlatform applies a platform-wins resolution:
	// campaign status and budget updated, sync record SYNCED with errors
	// cleared.
	UpdateCampaignFromPlatform(ctx context.Context, campaignID uuid.UUID, update PlatformDriftUpdate) error

	// ---------------------------------------------------------------------------
	// Retry bookkeeping
	// ---------------------------------------------------------------------------
	// All four return ErrSyncRecordNotFound when no sync record exists for
	// the campaign: a missing record here indicates an inconsistent call,
	// not a transient platform issue.

	// GetFailedCampaignsForRetry returns sync records with status FAILED,
	// PermanentFailure false, RetryCount below maxRetries, and NextRetryAt
	// nil or due.
	GetFailedCampaignsForRetry(ctx context.Context, tenantID uuid.UUID, maxRetries int) ([]SyncRecord, error)

	// IncrementRetryCount bumps the retry count, stamps LastRetryAt and
	// computes NextRetryAt from the new count using the configured backoff.
	// Returns the new count.
	IncrementRetryCount(ctx context.Context, campaignID uuid.UUID) (int, error)

	// MarkPermanentFailure excludes the campaign from further automatic
	// retries and sets its local status to ERROR.
	MarkPermanentFailure(ctx context.Context, campaignID uuid.UUID, reason string) error

	// ResetSyncForRetry clears the error log and returns the sync record
	// to PENDING.
	ResetSyncForRetry(ctx context.Context, campaignID uuid.UUID) error
}

// AccountRef identifies one ad account within a tenant
type AccountRef struct {
	TenantID    uuid.UUID
	AdAccountID string
}

// SyncTargetSource enumerates the work targets for background sync
// drivers: tenants holding due retry candidates and ad accounts holding
// synced campaigns worth polling for drift.
type SyncTargetSource interface {
	// ListRetryTenants returns the distinct tenants that currently hold
	// failed, non-permanent sync records
	ListRetryTenants(ctx context.Context) ([]uuid.UUID, error)

	// ListSyncedAccounts returns the distinct ad accounts that hold at
	// least one campaign with a platform identifier
	ListSyncedAccounts(ctx context.Context) ([]AccountRef, error)
}
