package campaign

import (
	"time"

	"github.com/google/uuid"
)

// PermanentFailurePrefix is prepended to the error log when a campaign is
// excluded from further automatic retries.
const PermanentFailurePrefix = "PERMANENT FAILURE: "

// DefaultPermanentFailureMessage is recorded when a campaign is marked as a
// permanent failure without a reason and no prior error log exists.
const DefaultPermanentFailureMessage = "Sync failed permanently"

// SyncRecord tracks the platform-scoped sync state of one campaign.
// It is created lazily on the first sync attempt.
type SyncRecord struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	TenantID   uuid.UUID
	Platform   PlatformCode
	SyncStatus SyncStatus
	// PlatformID mirrors the campaign's platform identifier
	PlatformID string
	ErrorLog   string
	RetryCount int
	LastRetryAt *time.Time
	// NextRetryAt is advisory state consumed by an external scheduler;
	// nil means the record is immediately eligible.
	NextRetryAt *time.Time
	// PermanentFailure excludes the record from retry candidates
	// regardless of retry count. Implies NextRetryAt == nil.
	PermanentFailure bool
	LastSyncedAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSyncRecord creates a pending sync record for a campaign
func NewSyncRecord(c *Campaign) *SyncRecord {
	now := time.Now()
	return &SyncRecord{
		ID:         uuid.New(),
		CampaignID: c.ID,
		TenantID:   c.TenantID,
		Platform:   c.Platform,
		SyncStatus: SyncStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsRetryCandidate returns true if the record may be retried given the
// configured ceiling. Conflict records are terminal for automation and
// permanent failures are excluded regardless of retry count.
func (r *SyncRecord) IsRetryCandidate(maxRetries int, now time.Time) bool {
	if r.SyncStatus != SyncStatusFailed {
		return false
	}
	if r.PermanentFailure {
		return false
	}
	if r.RetryCount >= maxRetries {
		return false
	}
	if r.NextRetryAt != nil && r.NextRetryAt.After(now) {
		return false
	}
	return true
}

// MarkPermanent flags the record as permanently failed. The error log keeps
// the supplied reason, falling back to the existing log and then a default.
func (r *SyncRecord) MarkPermanent(reason string) {
	msg := reason
	if msg == "" {
		msg = r.ErrorLog
	}
	if msg == "" {
		msg = DefaultPermanentFailureMessage
	}
	r.PermanentFailure = true
	r.NextRetryAt = nil
	r.ErrorLog = PermanentFailurePrefix + msg
	r.UpdatedAt = time.Now()
}

// ConflictDetail is the structured record of a detected local/platform
// divergence. It is persisted as its own row rather than serialized into
// the error log so conflicts stay queryable.
type ConflictDetail struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	TenantID   uuid.UUID
	Platform   PlatformCode
	// Fields lists the diverged field names
	Fields []string
	// LocalValues and PlatformValues are snapshots of the diverged fields
	LocalValues    map[string]any
	PlatformValues map[string]any
	// LocalUpdatedAt is when the local record was last modified
	LocalUpdatedAt time.Time
	// DetectedAt is when the poller observed the divergence
	DetectedAt time.Time
	Resolved   bool
}

// NewConflictDetail creates a conflict record for a campaign
func NewConflictDetail(c *Campaign, fields []string, local, platform map[string]any) *ConflictDetail {
	return &ConflictDetail{
		ID:             uuid.New(),
		CampaignID:     c.ID,
		TenantID:       c.TenantID,
		Platform:       c.Platform,
		Fields:         fields,
		LocalValues:    local,
		PlatformValues: platform,
		LocalUpdatedAt: c.UpdatedAt,
		DetectedAt:     time.Now(),
	}
}
