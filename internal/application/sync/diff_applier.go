package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adsync/backend/internal/domain/campaign"
)

// DiffApplier applies a precomputed CampaignSetDiff through the platform
// adapters: creates for add entries, updates for update entries, platform-
// side deletes for remove entries. Like the orchestrator it never fails
// fast across entities; every outcome lands in one aggregated result.
type DiffApplier struct {
	repo     campaign.CampaignRepository
	adapters campaign.AdapterRegistry
	logger   *zap.Logger
}

// NewDiffApplier creates a diff applier
func NewDiffApplier(repo campaign.CampaignRepository, adapters campaign.AdapterRegistry, logger *zap.Logger) *DiffApplier {
	return &DiffApplier{
		repo:     repo,
		adapters: adapters,
		logger:   logger,
	}
}

// hierarchyIndex resolves entities and their platform context from the
// currently stored hierarchy. Update and remove entries reference entities
// by durable id only; their platform identifiers and owning platforms come
// from here.
type hierarchyIndex struct {
	campaigns map[uuid.UUID]*campaign.Campaign
	adGroups  map[uuid.UUID]*campaign.AdGroup
	ads       map[uuid.UUID]*campaign.Ad
	keywords  map[uuid.UUID]*campaign.Keyword

	// owning campaign per ad group / ad / keyword, for adapter lookup
	adGroupOwner map[uuid.UUID]*campaign.Campaign
	adOwner      map[uuid.UUID]*campaign.Campaign
	keywordOwner map[uuid.UUID]*campaign.Campaign

	// owning ad group per ad / keyword, for parent platform id resolution
	adParent      map[uuid.UUID]*campaign.AdGroup
	keywordParent map[uuid.UUID]*campaign.AdGroup
}

func indexHierarchy(set *campaign.CampaignSet) *hierarchyIndex {
	idx := &hierarchyIndex{
		campaigns:     make(map[uuid.UUID]*campaign.Campaign),
		adGroups:      make(map[uuid.UUID]*campaign.AdGroup),
		ads:           make(map[uuid.UUID]*campaign.Ad),
		keywords:      make(map[uuid.UUID]*campaign.Keyword),
		adGroupOwner:  make(map[uuid.UUID]*campaign.Campaign),
		adOwner:       make(map[uuid.UUID]*campaign.Campaign),
		keywordOwner:  make(map[uuid.UUID]*campaign.Campaign),
		adParent:      make(map[uuid.UUID]*campaign.AdGroup),
		keywordParent: make(map[uuid.UUID]*campaign.AdGroup),
	}
	for i := range set.Campaigns {
		c := &set.Campaigns[i]
		idx.campaigns[c.ID] = c
		for j := range c.AdGroups {
			g := &c.AdGroups[j]
			idx.adGroups[g.ID] = g
			idx.adGroupOwner[g.ID] = c
			for k := range g.Ads {
				a := &g.Ads[k]
				idx.ads[a.ID] = a
				idx.adOwner[a.ID] = c
				idx.adParent[a.ID] = g
			}
			for k := range g.Keywords {
				kw := &g.Keywords[k]
				idx.keywords[kw.ID] = kw
				idx.keywordOwner[kw.ID] = c
				idx.keywordParent[kw.ID] = g
			}
		}
	}
	return idx
}

// ApplyDiff applies the diff against the stored hierarchy of the set.
// A missing set yields a failed result carrying CAMPAIGN_SET_NOT_FOUND;
// a non-nil error is returned only for unexpected repository failures.
func (d *DiffApplier) ApplyDiff(ctx context.Context, setID uuid.UUID, diff *campaign.CampaignSetDiff) (*DiffSyncResult, error) {
	set, err := d.repo.GetCampaignSetWithRelations(ctx, setID)
	if err != nil {
		if errors.Is(err, campaign.ErrCampaignSetNotFound) {
			result := &DiffSyncResult{}
			result.addError(SyncError{
				Code:       campaign.SyncErrorSetNotFound,
				Message:    "campaign set not found",
				EntityKind: EntityKindCampaignSet,
				EntityID:   setID,
			})
			return result, nil
		}
		return nil, err
	}

	idx := indexHierarchy(set)
	result := &DiffSyncResult{Success: true}

	// Creates first so newly added parents exist before their own child
	// entries (added campaigns/ad groups carry their subtree inline)
	for i := range diff.CampaignsToAdd {
		d.createCampaignSubtree(ctx, &diff.CampaignsToAdd[i], result)
	}
	for i := range diff.AdGroupsToAdd {
		d.addAdGroup(ctx, idx, &diff.AdGroupsToAdd[i], result)
	}
	for i := range diff.AdsToAdd {
		d.addAd(ctx, idx, &diff.AdsToAdd[i], result)
	}
	for i := range diff.KeywordsToAdd {
		d.addKeyword(ctx, idx, &diff.KeywordsToAdd[i], result)
	}

	for i := range diff.CampaignsToUpdate {
		d.updateCampaign(ctx, idx, &diff.CampaignsToUpdate[i], result)
	}
	for i := range diff.AdGroupsToUpdate {
		d.updateAdGroup(ctx, idx, &diff.AdGroupsToUpdate[i], result)
	}
	for i := range diff.AdsToUpdate {
		d.updateAd(ctx, idx, &diff.AdsToUpdate[i], result)
	}
	for i := range diff.KeywordsToUpdate {
		d.updateKeyword(ctx, idx, &diff.KeywordsToUpdate[i], result)
	}

	// Removals children-first so platforms that do not cascade deletes
	// are left consistent
	for _, id := range diff.KeywordsToRemove {
		d.removeKeyword(ctx, idx, id, result)
	}
	for _, id := range diff.AdsToRemove {
		d.removeAd(ctx, idx, id, result)
	}
	for _, id := range diff.AdGroupsToRemove {
		d.removeAdGroup(ctx, idx, id, result)
	}
	for _, id := range diff.CampaignsToRemove {
		d.removeCampaign(ctx, idx, id, result)
	}

	d.logger.Info("Diff apply finished",
		zap.String("set_id", setID.String()),
		zap.Bool("success", result.Success),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("removed", result.Removed),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func (d *DiffApplier) getAdapter(code campaign.PlatformCode, kind EntityKind, entityID uuid.UUID, result *DiffSyncResult) (campaign.PlatformAdapter, bool) {
	adapter, err := d.adapters.GetAdapter(code)
	if err != nil {
		result.addError(SyncError{
			Code:       campaign.SyncErrorNoAdapter,
			Message:    "no adapter registered for platform " + code.String(),
			EntityKind: kind,
			EntityID:   entityID,
			Platform:   code,
		})
		return nil, false
	}
	return adapter, true
}

// ---------------------------------------------------------------------------
// Adds
// ---------------------------------------------------------------------------

// createCampaignSubtree creates an added campaign together with the
// subtree carried inside its add entry, persisting each platform id
// before descending.
func (d *DiffApplier) createCampaignSubtree(ctx context.Context, c *campaign.Campaign, result *DiffSyncResult) {
	adapter, ok := d.getAdapter(c.Platform, EntityKindCampaign, c.ID, result)
	if !ok {
		return
	}

	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.CreateCampaign(ctx, c.AdAccountID, c)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: errorMessage(err), EntityKind: EntityKindCampaign, EntityID: c.ID, Platform: c.Platform})
		return
	}
	if !res.Success {
		result.addError(SyncError{Code: campaign.SyncErrorCreateFailed, Message: resultError(res), EntityKind: EntityKindCampaign, EntityID: c.ID, Platform: c.Platform})
		return
	}
	if err := d.repo.UpdateCampaignPlatformID(ctx, c.ID, res.PlatformID); err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: "failed to persist platform id: " + err.Error(), EntityKind: EntityKindCampaign, EntityID: c.ID, Platform: c.Platform})
		return
	}
	result.Created++

	for i := range c.AdGroups {
		d.createAdGroupSubtree(ctx, adapter, &c.AdGroups[i], res.PlatformID, result)
	}
}

func (d *DiffApplier) createAdGroupSubtree(ctx context.Context, adapter campaign.PlatformAdapter, g *campaign.AdGroup, platformCampaignID string, result *DiffSyncResult) {
	platform := adapter.PlatformCode()

	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.CreateAdGroup(ctx, platformCampaignID, g)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: errorMessage(err), EntityKind: EntityKindAdGroup, EntityID: g.ID, Platform: platform})
		return
	}
	if !res.Success {
		result.addError(SyncError{Code: campaign.SyncErrorCreateFailed, Message: resultError(res), EntityKind: EntityKindAdGroup, EntityID: g.ID, Platform: platform})
		return
	}
	if err := d.repo.UpdateAdGroupPlatformID(ctx, g.ID, res.PlatformID); err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: "failed to persist platform id: " + err.Error(), EntityKind: EntityKindAdGroup, EntityID: g.ID, Platform: platform})
		return
	}
	result.Created++

	for i := range g.Ads {
		d.createAd(ctx, adapter, &g.Ads[i], res.PlatformID, result)
	}
	for i := range g.Keywords {
		d.createKeyword(ctx, adapter, &g.Keywords[i], res.PlatformID, result)
	}
}

func (d *DiffApplier) createAd(ctx context.Context, adapter campaign.PlatformAdapter, a *campaign.Ad, platformAdGroupID string, result *DiffSyncResult) {
	platform := adapter.PlatformCode()

	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.CreateAd(ctx, platformAdGroupID, a)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: errorMessage(err), EntityKind: EntityKindAd, EntityID: a.ID, Platform: platform})
		return
	}
	if !res.Success {
		result.addError(SyncError{Code: campaign.SyncErrorCreateFailed, Message: resultError(res), EntityKind: EntityKindAd, EntityID: a.ID, Platform: platform})
		return
	}
	if err := d.repo.UpdateAdPlatformID(ctx, a.ID, res.PlatformID); err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: "failed to persist platform id: " + err.Error(), EntityKind: EntityKindAd, EntityID: a.ID, Platform: platform})
		return
	}
	result.Created++
}

func (d *DiffApplier) createKeyword(ctx context.Context, adapter campaign.PlatformAdapter, k *campaign.Keyword, platformAdGroupID string, result *DiffSyncResult) {
	platform := adapter.PlatformCode()

	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.CreateKeyword(ctx, platformAdGroupID, k)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: errorMessage(err), EntityKind: EntityKindKeyword, EntityID: k.ID, Platform: platform})
		return
	}
	if !res.Success {
		result.addError(SyncError{Code: campaign.SyncErrorCreateFailed, Message: resultError(res), EntityKind: EntityKindKeyword, EntityID: k.ID, Platform: platform})
		return
	}
	if err := d.repo.UpdateKeywordPlatformID(ctx, k.ID, res.PlatformID); err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorCreateException, Message: "failed to persist platform id: " + err.Error(), EntityKind: EntityKindKeyword, EntityID: k.ID, Platform: platform})
		return
	}
	result.Created++
}

// addAdGroup creates an ad group under an existing campaign, resolving the
// parent's platform identifier from the stored hierarchy
func (d *DiffApplier) addAdGroup(ctx context.Context, idx *hierarchyIndex, entry *campaign.AdGroupAdd, result *DiffSyncResult) {
	parent, ok := idx.campaigns[entry.CampaignID]
	if !ok || !parent.IsSynced() {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateFailed,
			Message:    "parent campaign has no platform identifier",
			EntityKind: EntityKindAdGroup,
			EntityID:   entry.AdGroup.ID,
		})
		return
	}
	adapter, ok := d.getAdapter(parent.Platform, EntityKindAdGroup, entry.AdGroup.ID, result)
	if !ok {
		return
	}
	g := entry.AdGroup
	d.createAdGroupSubtree(ctx, adapter, &g, *parent.PlatformCampaignID, result)
}

func (d *DiffApplier) addAd(ctx context.Context, idx *hierarchyIndex, entry *campaign.AdAdd, result *DiffSyncResult) {
	parent, ok := idx.adGroups[entry.AdGroupID]
	owner := idx.adGroupOwner[entry.AdGroupID]
	if !ok || owner == nil || !parent.IsSynced() {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateFailed,
			Message:    "parent ad group has no platform identifier",
			EntityKind: EntityKindAd,
			EntityID:   entry.Ad.ID,
		})
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindAd, entry.Ad.ID, result)
	if !ok {
		return
	}
	a := entry.Ad
	d.createAd(ctx, adapter, &a, *parent.PlatformAdGroupID, result)
}

func (d *DiffApplier) addKeyword(ctx context.Context, idx *hierarchyIndex, entry *campaign.KeywordAdd, result *DiffSyncResult) {
	parent, ok := idx.adGroups[entry.AdGroupID]
	owner := idx.adGroupOwner[entry.AdGroupID]
	if !ok || owner == nil || !parent.IsSynced() {
		result.addError(SyncError{
			Code:       campaign.SyncErrorCreateFailed,
			Message:    "parent ad group has no platform identifier",
			EntityKind: EntityKindKeyword,
			EntityID:   entry.Keyword.ID,
		})
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindKeyword, entry.Keyword.ID, result)
	if !ok {
		return
	}
	k := entry.Keyword
	d.createKeyword(ctx, adapter, &k, *parent.PlatformAdGroupID, result)
}

// ---------------------------------------------------------------------------
// Updates
// ---------------------------------------------------------------------------

func (d *DiffApplier) updateCampaign(ctx context.Context, idx *hierarchyIndex, entry *campaign.CampaignUpdate, result *DiffSyncResult) {
	existing, ok := idx.campaigns[entry.Campaign.ID]
	if !ok || !existing.IsSynced() {
		result.addError(SyncError{
			Code:       campaign.SyncErrorUpdateFailed,
			Message:    "campaign has no platform identifier",
			EntityKind: EntityKindCampaign,
			EntityID:   entry.Campaign.ID,
		})
		return
	}
	adapter, ok := d.getAdapter(existing.Platform, EntityKindCampaign, entry.Campaign.ID, result)
	if !ok {
		return
	}

	c := entry.Campaign
	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.UpdateCampaign(ctx, *existing.PlatformCampaignID, &c)
	})
	switch {
	case err != nil:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateException, Message: errorMessage(err), EntityKind: EntityKindCampaign, EntityID: c.ID, Platform: existing.Platform})
	case !res.Success:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateFailed, Message: resultError(res), EntityKind: EntityKindCampaign, EntityID: c.ID, Platform: existing.Platform})
	default:
		result.Updated++
	}
}

func (d *DiffApplier) updateAdGroup(ctx context.Context, idx *hierarchyIndex, entry *campaign.AdGroupUpdate, result *DiffSyncResult) {
	existing, ok := idx.adGroups[entry.AdGroup.ID]
	owner := idx.adGroupOwner[entry.AdGroup.ID]
	if !ok || owner == nil || !existing.IsSynced() {
		result.addError(SyncError{
			Code:       campaign.SyncErrorUpdateFailed,
			Message:    "ad group has no platform identifier",
			EntityKind: EntityKindAdGroup,
			EntityID:   entry.AdGroup.ID,
		})
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindAdGroup, entry.AdGroup.ID, result)
	if !ok {
		return
	}

	g := entry.AdGroup
	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.UpdateAdGroup(ctx, *existing.PlatformAdGroupID, &g)
	})
	switch {
	case err != nil:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateException, Message: errorMessage(err), EntityKind: EntityKindAdGroup, EntityID: g.ID, Platform: owner.Platform})
	case !res.Success:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateFailed, Message: resultError(res), EntityKind: EntityKindAdGroup, EntityID: g.ID, Platform: owner.Platform})
	default:
		result.Updated++
	}
}

func (d *DiffApplier) updateAd(ctx context.Context, idx *hierarchyIndex, entry *campaign.AdUpdate, result *DiffSyncResult) {
	existing, ok := idx.ads[entry.Ad.ID]
	owner := idx.adOwner[entry.Ad.ID]
	if !ok || owner == nil || !existing.IsSynced() {
		result.addError(SyncError{
			Code:       campaign.SyncErrorUpdateFailed,
			Message:    "ad has no platform identifier",
			EntityKind: EntityKindAd,
			EntityID:   entry.Ad.ID,
		})
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindAd, entry.Ad.ID, result)
	if !ok {
		return
	}

	a := entry.Ad
	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.UpdateAd(ctx, *existing.PlatformAdID, &a)
	})
	switch {
	case err != nil:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateException, Message: errorMessage(err), EntityKind: EntityKindAd, EntityID: a.ID, Platform: owner.Platform})
	case !res.Success:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateFailed, Message: resultError(res), EntityKind: EntityKindAd, EntityID: a.ID, Platform: owner.Platform})
	default:
		result.Updated++
	}
}

func (d *DiffApplier) updateKeyword(ctx context.Context, idx *hierarchyIndex, entry *campaign.KeywordUpdate, result *DiffSyncResult) {
	existing, ok := idx.keywords[entry.Keyword.ID]
	owner := idx.keywordOwner[entry.Keyword.ID]
	if !ok || owner == nil || !existing.IsSynced() {
		result.addError(SyncError{
			Code:       campaign.SyncErrorUpdateFailed,
			Message:    "keyword has no platform identifier",
			EntityKind: EntityKindKeyword,
			EntityID:   entry.Keyword.ID,
		})
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindKeyword, entry.Keyword.ID, result)
	if !ok {
		return
	}

	k := entry.Keyword
	res, err := safeCall(func() (*campaign.AdapterResult, error) {
		return adapter.UpdateKeyword(ctx, *existing.PlatformKeywordID, &k)
	})
	switch {
	case err != nil:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateException, Message: errorMessage(err), EntityKind: EntityKindKeyword, EntityID: k.ID, Platform: owner.Platform})
	case !res.Success:
		result.addError(SyncError{Code: campaign.SyncErrorUpdateFailed, Message: resultError(res), EntityKind: EntityKindKeyword, EntityID: k.ID, Platform: owner.Platform})
	default:
		result.Updated++
	}
}

// ---------------------------------------------------------------------------
// Removes
// ---------------------------------------------------------------------------
// Removal via diff is a platform-side delete; the local rows stay and are
// cleaned up by the owning flows. An entity that never reached the
// platform has nothing to delete and counts as removed.

func (d *DiffApplier) removeCampaign(ctx context.Context, idx *hierarchyIndex, id uuid.UUID, result *DiffSyncResult) {
	existing, ok := idx.campaigns[id]
	if !ok || !existing.IsSynced() {
		result.Removed++
		return
	}
	adapter, ok := d.getAdapter(existing.Platform, EntityKindCampaign, id, result)
	if !ok {
		return
	}
	err := safeDelete(func() error {
		return adapter.DeleteCampaign(ctx, *existing.PlatformCampaignID)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorDeleteFailed, Message: errorMessage(err), EntityKind: EntityKindCampaign, EntityID: id, Platform: existing.Platform})
		return
	}
	result.Removed++
}

func (d *DiffApplier) removeAdGroup(ctx context.Context, idx *hierarchyIndex, id uuid.UUID, result *DiffSyncResult) {
	existing, ok := idx.adGroups[id]
	owner := idx.adGroupOwner[id]
	if !ok || owner == nil || !existing.IsSynced() {
		result.Removed++
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindAdGroup, id, result)
	if !ok {
		return
	}
	err := safeDelete(func() error {
		return adapter.DeleteAdGroup(ctx, *existing.PlatformAdGroupID)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorDeleteFailed, Message: errorMessage(err), EntityKind: EntityKindAdGroup, EntityID: id, Platform: owner.Platform})
		return
	}
	result.Removed++
}

func (d *DiffApplier) removeAd(ctx context.Context, idx *hierarchyIndex, id uuid.UUID, result *DiffSyncResult) {
	existing, ok := idx.ads[id]
	owner := idx.adOwner[id]
	if !ok || owner == nil || !existing.IsSynced() {
		result.Removed++
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindAd, id, result)
	if !ok {
		return
	}
	err := safeDelete(func() error {
		return adapter.DeleteAd(ctx, *existing.PlatformAdID)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorDeleteFailed, Message: errorMessage(err), EntityKind: EntityKindAd, EntityID: id, Platform: owner.Platform})
		return
	}
	result.Removed++
}

func (d *DiffApplier) removeKeyword(ctx context.Context, idx *hierarchyIndex, id uuid.UUID, result *DiffSyncResult) {
	existing, ok := idx.keywords[id]
	owner := idx.keywordOwner[id]
	if !ok || owner == nil || !existing.IsSynced() {
		result.Removed++
		return
	}
	adapter, ok := d.getAdapter(owner.Platform, EntityKindKeyword, id, result)
	if !ok {
		return
	}
	err := safeDelete(func() error {
		return adapter.DeleteKeyword(ctx, *existing.PlatformKeywordID)
	})
	if err != nil {
		result.addError(SyncError{Code: campaign.SyncErrorDeleteFailed, Message: errorMessage(err), EntityKind: EntityKindKeyword, EntityID: id, Platform: owner.Platform})
		return
	}
	result.Removed++
}
