package campaign

import (
	"context"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies an external ad platform
type PlatformCode string

const (
	// PlatformCodeReddit represents Reddit Ads
	PlatformCodeReddit PlatformCode = "REDDIT"
	// PlatformCodeGoogle represents Google Ads
	PlatformCodeGoogle PlatformCode = "GOOGLE"
	// PlatformCodeFacebook represents Facebook/Meta Ads
	PlatformCodeFacebook PlatformCode = "FACEBOOK"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeReddit, PlatformCodeGoogle, PlatformCodeFacebook:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// Adapter Result
// ---------------------------------------------------------------------------

// AdapterResult is the outcome of a create or update adapter call.
// Adapters report business failures through Success=false rather than an
// error return; error returns are reserved for transport-level failures
// (timeouts, network errors). The application layer unifies both shapes
// into SyncError entries immediately after every call.
type AdapterResult struct {
	Success    bool
	PlatformID string
	Error      string
}

// ---------------------------------------------------------------------------
// Platform State (poller fetch)
// ---------------------------------------------------------------------------

// PlatformEntityStatus is a campaign status as reported by a platform
type PlatformEntityStatus string

const (
	PlatformEntityStatusActive    PlatformEntityStatus = "ACTIVE"
	PlatformEntityStatusPaused    PlatformEntityStatus = "PAUSED"
	PlatformEntityStatusCompleted PlatformEntityStatus = "COMPLETED"
	PlatformEntityStatusDeleted   PlatformEntityStatus = "DELETED"
	PlatformEntityStatusError     PlatformEntityStatus = "ERROR"
)

// ToLocalStatus maps a platform-reported status onto the local status enum.
// Unrecognized platform statuses map to ERROR so drift is surfaced instead
// of silently accepted.
func (s PlatformEntityStatus) ToLocalStatus() CampaignStatus {
	switch s {
	case PlatformEntityStatusActive:
		return CampaignStatusActive
	case PlatformEntityStatusPaused:
		return CampaignStatusPaused
	case PlatformEntityStatusCompleted:
		return CampaignStatusCompleted
	case PlatformEntityStatusDeleted, PlatformEntityStatusError:
		return CampaignStatusError
	default:
		return CampaignStatusError
	}
}

// PlatformCampaignState is the platform-side view of a synced campaign,
// fetched by the poller for drift detection.
type PlatformCampaignState struct {
	// Exists is false when the campaign was deleted on the platform
	Exists bool
	Status PlatformEntityStatus
	// BudgetAmount is the platform-side budget, zero when not reported
	BudgetAmount decimal.Decimal
	// Currency may be empty when the platform payload omits it; the local
	// currency is preserved in that case.
	Currency string
}

// ---------------------------------------------------------------------------
// PlatformAdapter Port Interface
// ---------------------------------------------------------------------------

// PlatformAdapter is the capability set each platform integration implements.
// It follows the Ports & Adapters pattern: the interface lives in the domain
// layer and concrete implementations (Reddit, Google, Facebook) live in the
// infrastructure layer.
//
// Create and update calls return an AdapterResult carrying the platform-
// assigned identifier on success; delete, pause and resume return only an
// error. Every call must honor the supplied context's deadline.
type PlatformAdapter interface {
	// PlatformCode returns the platform code this adapter handles
	PlatformCode() PlatformCode

	// Campaign operations
	CreateCampaign(ctx context.Context, adAccountID string, c *Campaign) (*AdapterResult, error)
	UpdateCampaign(ctx context.Context, platformCampaignID string, c *Campaign) (*AdapterResult, error)
	PauseCampaign(ctx context.Context, platformCampaignID string) error
	ResumeCampaign(ctx context.Context, platformCampaignID string) error
	DeleteCampaign(ctx context.Context, platformCampaignID string) error

	// Ad group operations. Create requires the parent campaign's already-
	// persisted platform identifier.
	CreateAdGroup(ctx context.Context, platformCampaignID string, g *AdGroup) (*AdapterResult, error)
	UpdateAdGroup(ctx context.Context, platformAdGroupID string, g *AdGroup) (*AdapterResult, error)
	DeleteAdGroup(ctx context.Context, platformAdGroupID string) error

	// Ad operations
	CreateAd(ctx context.Context, platformAdGroupID string, a *Ad) (*AdapterResult, error)
	UpdateAd(ctx context.Context, platformAdID string, a *Ad) (*AdapterResult, error)
	DeleteAd(ctx context.Context, platformAdID string) error

	// Keyword operations
	CreateKeyword(ctx context.Context, platformAdGroupID string, k *Keyword) (*AdapterResult, error)
	UpdateKeyword(ctx context.Context, platformKeywordID string, k *Keyword) (*AdapterResult, error)
	DeleteKeyword(ctx context.Context, platformKeywordID string) error

	// GetCampaignState fetches the platform-side state of a synced campaign
	// for drift detection.
	GetCampaignState(ctx context.Context, adAccountID string, platformCampaignID string) (*PlatformCampaignState, error)
}

// AdapterRegistry provides access to configured platform adapters,
// keyed by platform code.
type AdapterRegistry interface {
	// GetAdapter returns the adapter for the specified platform code.
	// Returns ErrNoAdapter when none is registered.
	GetAdapter(code PlatformCode) (PlatformAdapter, error)

	// ListAdapters returns all registered adapters
	ListAdapters() []PlatformAdapter
}
