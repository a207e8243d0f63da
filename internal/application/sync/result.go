package sync

import (
	"github.com/google/uuid"

	"github.com/adsync/backend/internal/domain/campaign"
)

// EntityKind identifies which level of the hierarchy a sync error concerns
type EntityKind string

const (
	EntityKindCampaignSet EntityKind = "campaign_set"
	EntityKindCampaign    EntityKind = "campaign"
	EntityKindAdGroup     EntityKind = "ad_group"
	EntityKindAd          EntityKind = "ad"
	EntityKindKeyword     EntityKind = "keyword"
)

// SyncError is the unified per-entity failure shape. Adapter-reported
// business failures, adapter exceptions and configuration errors all
// converge on this one form at the adapter boundary so aggregation only
// ever deals with a single shape.
type SyncError struct {
	Code       campaign.SyncErrorCode `json:"code"`
	Message    string                 `json:"message"`
	EntityKind EntityKind             `json:"entity_kind"`
	EntityID   uuid.UUID              `json:"entity_id"`
	Platform   campaign.PlatformCode  `json:"platform,omitempty"`
}

// SyncResult aggregates the outcome of a full-hierarchy sync.
// Success is false if any entity failed, even when most succeeded;
// callers inspect Errors to know which entities need attention.
type SyncResult struct {
	Success bool        `json:"success"`
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Errors  []SyncError `json:"errors"`
}

func (r *SyncResult) addError(e SyncError) {
	r.Errors = append(r.Errors, e)
	r.Success = false
}

// DiffSyncResult aggregates the outcome of applying a precomputed diff
type DiffSyncResult struct {
	Success bool        `json:"success"`
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Removed int         `json:"removed"`
	Errors  []SyncError `json:"errors"`
}

func (r *DiffSyncResult) addError(e SyncError) {
	r.Errors = append(r.Errors, e)
	r.Success = false
}

// errorMessage extracts a usable message from an adapter failure,
// normalizing empty causes to the documented unknown-error message.
func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return campaign.UnknownErrorMessage
	}
	return err.Error()
}

// resultError extracts a usable message from an unsuccessful AdapterResult
func resultError(res *campaign.AdapterResult) string {
	if res == nil || res.Error == "" {
		return campaign.UnknownErrorMessage
	}
	return res.Error
}
