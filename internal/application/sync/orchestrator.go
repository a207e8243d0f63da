package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adsync/backend/internal/domain/campaign"
)

// Orchestrator performs full-hierarchy synchronization of a campaign set
// against its target platforms. Used for first syncs and full resyncs.
//
// The walk is strictly sequential and depth-first: campaign, then its ad
// groups, then each group's ads and keywords. After every successful
// create the platform-assigned identifier is persisted before any child
// operation is attempted, so an interrupted sync can be re-run without
// producing duplicates. A failure on one entity never stops processing of
// its siblings; outcomes are aggregated into a single SyncResult.
//
// Callers must serialize syncs per campaign set (see cache.SyncLock);
// concurrent full syncs of the same set are not defined as safe.
type Orchestrator struct {
	repo     campaign.CampaignRepository
	adapters campaign.AdapterRegistry
	logger   *zap.Logger
}

// NewOrchestrator creates a sync orchestrator
func NewOrchestrator(repo campaign.CampaignRepository, adapters campaign.AdapterRegistry, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		adapters: adapters,
		logger:   logger,
	}
}

// SyncCampaignSet synchronizes every entity in the set's hierarchy.
// Returns campaign.ErrCampaignSetNotFound when the set does not exist.
func (o *Orchestrator) SyncCampaignSet(ctx context.Context, setID uuid.UUID) (*SyncResult, error) {
	set, err := o.repo.GetCampaignSetWithRelations(ctx, setID)
	if err != nil {
		return nil, err
	}

	if err := o.repo.UpdateCampaignSetStatus(ctx, setID, campaign.CampaignSetStatusSyncing, campaign.SyncStatusSyncing); err != nil {
		return nil, err
	}

	result := &SyncResult{Success: true}

	for i := range set.Campaigns {
		o.syncCampaign(ctx, &set.Campaigns[i], result)
	}

	if result.Success {
		err = o.repo.UpdateCampaignSetStatus(ctx, setID, campaign.CampaignSetStatusActive, campaign.SyncStatusSynced)
	} else {
		err = o.repo.UpdateCampaignSetStatus(ctx, setID, campaign.CampaignSetStatusError, campaign.SyncStatusFailed)
	}
	if err != nil {
		return nil, err
	}

	o.logger.Info("Campaign set sync finished",
		zap.String("set_id", setID.String()),
		zap.Bool("success", result.Success),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// SyncCampaign synchronizes a single campaign and its subtree, leaving the
// rest of the set untouched. Used by the retry path. The campaign is loaded
// through its set so the full subtree is available.
// Returns campaign.ErrCampaignNotFound when the campaign does not exist.
func (o *Orchestrator) SyncCampaign(ctx context.Context, campaignID uuid.UUID) (*SyncResult, error) {
	c, err := o.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	set, err := o.repo.GetCampaignSetWithRelations(ctx, c.CampaignSetID)
	if err != nil {
		return nil, err
	}
	target := set.FindCampaign(campaignID)
	if target == nil {
		return nil, campaign.ErrCampaignNotFound
	}

	result := &SyncResult{Success: true}
	o.syncCampaign(ctx, target, result)

	o.logger.Info("Campaign sync finished",
		zap.String("campaign_id", campaignID.String()),
		zap.Bool("success", result.Success),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// syncCampaign syncs one campaign and, when its platform identifier is
// available, its subtree. Errors for this campaign and its children are
// reflected in the campaign's sync record.
func (o *Orchestrator) syncCampaign(ctx context.Context, c *campaign.Campaign, result *SyncResult) {
	before := len(result.Errors)

	adapter, err := o.adapters.GetAdapter(c.Platform)
	if err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorNoAdapter,
			Message:    "no adapter registered for platform " + c.Platform.String(),
			EntityKind: EntityKindCampaign,
			EntityID:   c.ID,
			Platform:   c.Platform,
		})
		o.recordCampaignOutcome(ctx, c, result.Errors[before:])
		return
	}

	if err := o.repo.UpdateCampaignSyncStatus(ctx, c.ID, campaign.SyncStatusSyncing, ""); err != nil {
		o.logger.Warn("Failed to mark campaign syncing", zap.String("campaign_id", c.ID.String()), zap.Error(err))
	}

	platformID, ok := o.syncCampaignEntity(ctx, adapter, c, result)
	if ok {
		for i := range c.AdGroups {
			o.syncAdGroup(ctx, adapter, &c.AdGroups[i], platformID, result)
		}
	}

	o.recordCampaignOutcome(ctx, c, result.Errors[before:])
}

// syncCampaignEntity creates or updates the campaign itself and returns
// its platform identifier. ok is false when the identifier is not
// available, in which case children cannot be scheduled.
func (o *Orchestrator) syncCampaignEntity(ctx context.Context, adapter campaign.PlatformAdapter, c *campaign.Campaign, result *SyncResult) (string, bool) {
	if c.IsSynced() {
		existing := *c.PlatformCampaignID
		res, err := safeCall(func() (*campaign.AdapterResult, error) {
			return adapter.UpdateCampaign(ctx, existing, c)
		})
		if err != nil {
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateException,
				Message:    errorMessage(err),
				EntityKind: EntityKindCampaign,
				EntityID:   c.ID,
				Platform:   c.Platform,
			})
			// The identifier is still valid, children may proceed
			return existing, true
		}
		if !res.Success {
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateFailed,
				Message:    resultError(res),
				EntityKind: EntityKindCampaign,
				EntityID:   c.ID,
				Platform:   c.Platform,
			})
			return existing, true
		}
		result.Updated++
		return existing, true
	}

	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.CreateCampaign(ctx, c.AdAccountID, c)
	})
	if err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateException,
			Message:    errorMessage(err),
			EntityKind: EntityKindCampaign,
			EntityID:   c.ID,
			Platform:   c.Platform,
		})
		return "", false
	}
	if !res.Success {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateFailed,
			Message:    resultError(res),
			EntityKind: EntityKindCampaign,
			EntityID:   c.ID,
			Platform:   c.Platform,
		})
		return "", false
	}

	// Persist the platform identifier before touching any child, so a
	// failure deeper in the hierarchy never discards confirmed platform
	// state and a re-run updates instead of duplicating.
	if err := o.repo.UpdateCampaignPlatformID(ctx, c.ID, res.PlatformID); err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateException,
			Message:    "failed to persist platform id: " + err.Error(),
			EntityKind: EntityKindCampaign,
			EntityID:   c.ID,
			Platform:   c.Platform,
		})
		return "", false
	}
	result.Created++
	return res.PlatformID, true
}

// syncAdGroup creates or updates an ad group, then its ads and keywords
func (o *Orchestrator) syncAdGroup(ctx context.Context, adapter campaign.PlatformAdapter, g *campaign.AdGroup, platformCampaignID string, result *SyncResult) {
	platform := adapter.PlatformCode()

	groupPlatformID := ""
	if g.IsSynced() {
		groupPlatformID = *g.PlatformAdGroupID
		res, err := safeCall(func() (*campaign.AdapterResult, error) {
			return adapter.UpdateAdGroup(ctx, groupPlatformID, g)
		})
		switch {
		case err != nil:
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateException,
				Message:    errorMessage(err),
				EntityKind: EntityKindAdGroup,
				EntityID:   g.ID,
				Platform:   platform,
			})
		case !res.Success:
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateFailed,
				Message:    resultError(res),
				EntityKind: EntityKindAdGroup,
				EntityID:   g.ID,
				Platform:   platform,
			})
		default:
			result.Updated++
		}
	} else {
		res, err := safeCall(func() (*campaign.AdapterResult, error) {
			return adapter.CreateAdGroup(ctx, platformCampaignID, g)
		})
		if err != nil {
			result.addError(SyncError{
				Code:       campaign.SyncErrorCreateException,
				Message:    errorMessage(err),
				EntityKind: EntityKindAdGroup,
				EntityID:   g.ID,
				Platform:   platform,
			})
			return
		}
		if !res.Success {
			result.addError(SyncError{
				Code:       campaign.SyncErrorCreateFailed,
				Message:    resultError(res),
				EntityKind: EntityKindAdGroup,
				EntityID:   g.ID,
				Platform:   platform,
			})
			return
		}
		if err := o.repo.UpdateAdGroupPlatformID(ctx, g.ID, res.PlatformID); err != nil {
			result.addError(SyncError{
				Code:       campaign.SyncErrorCreateException,
				Message:    "failed to persist platform id: " + err.Error(),
				EntityKind: EntityKindAdGroup,
				EntityID:   g.ID,
				Platform:   platform,
			})
			return
		}
		result.Created++
		groupPlatformID = res.PlatformID
	}

	for i := range g.Ads {
		o.syncAd(ctx, adapter, &g.Ads[i], groupPlatformID, result)
	}
	for i := range g.Keywords {
		o.syncKeyword(ctx, adapter, &g.Keywords[i], groupPlatformID, result)
	}
}

func (o *Orchestrator) syncAd(ctx context.Context, adapter campaign.PlatformAdapter, a *campaign.Ad, platformAdGroupID string, result *SyncResult) {
	platform := adapter.PlatformCode()

	if a.IsSynced() {
		res, err := safeCall(func() (*campaign.AdapterResult, error) {
			return adapter.UpdateAd(ctx, *a.PlatformAdID, a)
		})
		switch {
		case err != nil:
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateException,
				Message:    errorMessage(err),
				EntityKind: EntityKindAd,
				EntityID:   a.ID,
				Platform:   platform,
			})
		case !res.Success:
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateFailed,
				Message:    resultError(res),
				EntityKind: EntityKindAd,
				EntityID:   a.ID,
				Platform:   platform,
			})
		default:
			result.Updated++
		}
		return
	}

	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.CreateAd(ctx, platformAdGroupID, a)
	})
	if err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateException,
			Message:    errorMessage(err),
			EntityKind: EntityKindAd,
			EntityID:   a.ID,
			Platform:   platform,
		})
		return
	}
	if !res.Success {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateFailed,
			Message:    resultError(res),
			EntityKind: EntityKindAd,
			EntityID:   a.ID,
			Platform:   platform,
		})
		return
	}
	if err := o.repo.UpdateAdPlatformID(ctx, a.ID, res.PlatformID); err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateException,
			Message:    "failed to persist platform id: " + err.Error(),
			EntityKind: EntityKindAd,
			EntityID:   a.ID,
			Platform:   platform,
		})
		return
	}
	result.Created++
}

func (o *Orchestrator) syncKeyword(ctx context.Context, adapter campaign.PlatformAdapter, k *campaign.Keyword, platformAdGroupID string, result *SyncResult) {
	platform := adapter.PlatformCode()

	if k.IsSynced() {
		res, err := safeCall(func() (*campaign.AdapterResult, error) {
			return adapter.UpdateKeyword(ctx, *k.PlatformKeywordID, k)
		})
		switch {
		case err != nil:
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateException,
				Message:    errorMessage(err),
				EntityKind: EntityKindKeyword,
				EntityID:   k.ID,
				Platform:   platform,
			})
		case !res.Success:
			result.addError(SyncError{
				Code:       campaign.SyncErrorUpdateFailed,
				Message:    resultError(res),
				EntityKind: EntityKindKeyword,
				EntityID:   k.ID,
				Platform:   platform,
			})
		default:
			result.Updated++
		}
		return
	}

	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.CreateKeyword(ctx, platformAdGroupID, k)
	})
	if err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateException,
			Message:    errorMessage(err),
			EntityKind: EntityKindKeyword,
			EntityID:   k.ID,
			Platform:   platform,
		})
		return
	}
	if !res.Success {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateFailed,
			Message:    resultError(res),
			EntityKind: EntityKindKeyword,
			EntityID:   k.ID,
			Platform:   platform,
		})
		return
	}
	if err := o.repo.UpdateKeywordPlatformID(ctx, k.ID, res.PlatformID); err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateException,
			Message:    "failed to persist platform id: " + err.Error(),
			EntityKind: EntityKindKeyword,
			EntityID:   k.ID,
			Platform:   platform,
		})
		return
	}
	result.Created++
}

// recordCampaignOutcome persists the campaign's sync status from the
// errors collected for it and its subtree
func (o *Orchestrator) recordCampaignOutcome(ctx context.Context, c *campaign.Campaign, errs []SyncError) {
	var err error
	if len(errs) == 0 {
		err = o.repo.UpdateCampaignSyncStatus(ctx, c.ID, campaign.SyncStatusSynced, "")
	} else {
		err = o.repo.UpdateCampaignSyncStatus(ctx, c.ID, campaign.SyncStatusFailed, joinErrorLog(errs))
	}
	if err != nil {
		o.logger.Warn("Failed to persist campaign sync outcome",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
	}
}
