package campaign

import "errors"

// ---------------------------------------------------------------------------
// Domain Errors
// ---------------------------------------------------------------------------

var (
	// Lookup errors
	ErrCampaignSetNotFound = errors.New("campaign: campaign set not found")
	ErrCampaignNotFound    = errors.New("campaign: campaign not found")
	ErrSyncRecordNotFound  = errors.New("campaign: no sync record exists for campaign")

	// Adapter errors
	ErrNoAdapter          = errors.New("campaign: no adapter registered for platform")
	ErrAdapterUnavailable = errors.New("campaign: platform adapter temporarily unavailable")

	// Validation errors
	ErrInvalidPlatformCode = errors.New("campaign: invalid platform code")
	ErrInvalidTenantID     = errors.New("campaign: invalid tenant ID")
	ErrInvalidAdAccountID  = errors.New("campaign: ad account ID is required")
)

// ---------------------------------------------------------------------------
// Sync Error Codes
// ---------------------------------------------------------------------------

// SyncErrorCode identifies the class of a per-entity sync failure.
// Codes are part of the API surface consumed by callers inspecting
// aggregated sync results, so they are enumerated rather than free text.
type SyncErrorCode string

const (
	// SyncErrorCreateException indicates the adapter call itself failed
	// (transport error, timeout, panic) during a create operation.
	SyncErrorCreateException SyncErrorCode = "CREATE_EXCEPTION"
	// SyncErrorUpdateException indicates the adapter call itself failed
	// during an update operation.
	SyncErrorUpdateException SyncErrorCode = "UPDATE_EXCEPTION"
	// SyncErrorCreateFailed indicates the adapter reported a business
	// failure for a create operation.
	SyncErrorCreateFailed SyncErrorCode = "CREATE_FAILED"
	// SyncErrorUpdateFailed indicates the adapter reported a business
	// failure for an update operation.
	SyncErrorUpdateFailed SyncErrorCode = "UPDATE_FAILED"
	// SyncErrorDeleteFailed indicates a platform-side delete failed.
	SyncErrorDeleteFailed SyncErrorCode = "DELETE_FAILED"
	// SyncErrorNoAdapter indicates no adapter is registered for the
	// entity's platform.
	SyncErrorNoAdapter SyncErrorCode = "NO_ADAPTER"
	// SyncErrorSetNotFound indicates the campaign set did not exist when
	// the operation started.
	SyncErrorSetNotFound SyncErrorCode = "CAMPAIGN_SET_NOT_FOUND"
)

// String returns the string representation of SyncErrorCode
func (c SyncErrorCode) String() string {
	return string(c)
}

// UnknownErrorMessage is the message recorded when an adapter failure
// carries no usable message of its own.
const UnknownErrorMessage = "Unknown error"
