package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/adsync/backend/internal/application/sync"
	"github.com/adsync/backend/internal/domain/campaign"
	"github.com/adsync/backend/internal/domain/shared"
	"github.com/adsync/backend/internal/interfaces/http/dto"
	"github.com/adsync/backend/internal/interfaces/http/middleware"
)

// SetSyncer runs a full-hierarchy sync of a campaign set.
// Implemented by sync.Orchestrator.
type SetSyncer interface {
	SyncCampaignSet(ctx context.Context, setID uuid.UUID) (*appsync.SyncResult, error)
}

// DiffApplier applies a precomputed diff to the platforms.
// Implemented by sync.DiffApplier.
type DiffApplier interface {
	ApplyDiff(ctx context.Context, setID uuid.UUID, diff *campaign.CampaignSetDiff) (*appsync.DiffSyncResult, error)
}

// CampaignRetrier re-attempts the sync of one failed campaign.
// Implemented by sync.RetryService.
type CampaignRetrier interface {
	RetryCampaign(ctx context.Context, campaignID uuid.UUID) (*appsync.RetryOutcome, error)
}

// DriftPoller reconciles one ad account against its platform.
// Implemented by sync.PlatformPoller.
type DriftPoller interface {
	PollAccount(ctx context.Context, tenantID uuid.UUID, adAccountID string) (*appsync.PollResult, error)
}

// SetReader loads campaign set hierarchies for diffing and status reports
type SetReader interface {
	GetCampaignSetWithRelations(ctx context.Context, setID uuid.UUID) (*campaign.CampaignSet, error)
}

// SyncHandler handles campaign synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	syncer  SetSyncer
	applier DiffApplier
	retrier CampaignRetrier
	poller  DriftPoller
	sets    SetReader
	lock    shared.SyncLock
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	syncer SetSyncer,
	applier DiffApplier,
	retrier CampaignRetrier,
	poller DriftPoller,
	sets SetReader,
	lock shared.SyncLock,
	lockTTL time.Duration,
	logger *zap.Logger,
) *SyncHandler {
	return &SyncHandler{
		syncer:  syncer,
		applier: applier,
		retrier: retrier,
		poller:  poller,
		sets:    sets,
		lock:    lock,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// RegisterRoutes registers sync routes on the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sets := rg.Group("/campaign-sets")
	{
		sets.POST("/:id/sync", h.SyncCampaignSet)
		sets.POST("/:id/sync-diff", h.SyncCampaignSetDiff)
		sets.GET("/:id/sync-status", h.GetSyncStatus)
	}

	campaigns := rg.Group("/campaigns")
	{
		campaigns.POST("/:id/retry", h.RetryCampaign)
	}

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:accountId/drift", h.GetAccountDrift)
	}
}

// DiffSyncResponse pairs the computed diff size with the apply outcome
type DiffSyncResponse struct {
	Operations int                     `json:"operations"`
	Result     *appsync.DiffSyncResult `json:"result"`
}

// lockKey derives the lease key guarding one campaign set
func lockKey(setID uuid.UUID) string {
	return "campaign-set:" + setID.String()
}

// acquireSetLock takes the per-set sync lease. Returns false with a 409
// already written when another sync holds it.
func (h *SyncHandler) acquireSetLock(c *gin.Context, setID uuid.UUID) bool {
	acquired, err := h.lock.TryAcquire(c.Request.Context(), lockKey(setID), h.lockTTL)
	if err != nil {
		h.logger.Error("Failed to acquire sync lock",
			zap.String("campaign_set_id", setID.String()),
			zap.Error(err),
		)
		h.InternalError(c, "Failed to acquire sync lock")
		return false
	}
	if !acquired {
		h.HandleError(c, shared.ErrSyncInProgress)
		return false
	}
	return true
}

// releaseSetLock releases the per-set sync lease. Uses a fresh context so
// a canceled request still releases the lease.
func (h *SyncHandler) releaseSetLock(setID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.lock.Release(ctx, lockKey(setID)); err != nil {
		h.logger.Warn("Failed to release sync lock",
			zap.String("campaign_set_id", setID.String()),
			zap.Error(err),
		)
	}
}

// SyncCampaignSet godoc
// @ID           syncCampaignSet
// @Summary      Sync a campaign set
// @Description  Pushes the full campaign set hierarchy to its ad platforms
// @Tags         sync
// @Produce      json
// @Param        id path string true "Campaign set ID"
// @Success      200 {object} APIResponse[appsync.SyncResult]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /campaign-sets/{id}/sync [post]
func (h *SyncHandler) SyncCampaignSet(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid campaign set ID")
		return
	}
	setID := uuid.MustParse(req.ID)

	if !h.acquireSetLock(c, setID) {
		return
	}
	defer h.releaseSetLock(setID)

	result, err := h.syncer.SyncCampaignSet(c.Request.Context(), setID)
	if err != nil {
		if errors.Is(err, campaign.ErrCampaignSetNotFound) {
			h.NotFound(c, "Campaign set not found")
			return
		}
		h.logger.Error("Campaign set sync failed",
			zap.String("campaign_set_id", setID.String()),
			zap.Error(err),
		)
		h.InternalError(c, "Campaign set sync failed")
		return
	}

	h.Success(c, result)
}

// SyncCampaignSetDiff godoc
// @ID           syncCampaignSetDiff
// @Summary      Diff-sync a campaign set
// @Description  Diffs the stored hierarchy against a target hierarchy and applies only the differences
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign set ID"
// @Param        request body dto.SyncDiffRequest true "Target hierarchy"
// @Success      200 {object} APIResponse[DiffSyncResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /campaign-sets/{id}/sync-diff [post]
func (h *SyncHandler) SyncCampaignSetDiff(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid campaign set ID")
		return
	}
	setID := uuid.MustParse(uri.ID)

	var req dto.SyncDiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	current, err := h.sets.GetCampaignSetWithRelations(c.Request.Context(), setID)
	if err != nil {
		if errors.Is(err, campaign.ErrCampaignSetNotFound) {
			h.NotFound(c, "Campaign set not found")
			return
		}
		h.InternalError(c, "Failed to load campaign set")
		return
	}

	target, err := req.ToDomain(current)
	if err != nil {
		h.BadRequest(c, "Invalid target hierarchy: "+err.Error())
		return
	}

	diff := campaign.CalculateDiff(current, target)
	if diff.IsEmpty() {
		h.Success(c, DiffSyncResponse{Result: &appsync.DiffSyncResult{Success: true}})
		return
	}

	if !h.acquireSetLock(c, setID) {
		return
	}
	defer h.releaseSetLock(setID)

	result, err := h.applier.ApplyDiff(c.Request.Context(), setID, diff)
	if err != nil {
		h.logger.Error("Diff sync failed",
			zap.String("campaign_set_id", setID.String()),
			zap.Error(err),
		)
		h.InternalError(c, "Diff sync failed")
		return
	}

	h.Success(c, DiffSyncResponse{Operations: diff.OperationCount(), Result: result})
}

// GetSyncStatus godoc
// @ID           getCampaignSetSyncStatus
// @Summary      Get campaign set sync status
// @Description  Returns the sync state of a set and each of its campaigns
// @Tags         sync
// @Produce      json
// @Param        id path string true "Campaign set ID"
// @Success      200 {object} APIResponse[dto.SyncStatusResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /campaign-sets/{id}/sync-status [get]
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid campaign set ID")
		return
	}
	setID := uuid.MustParse(req.ID)

	set, err := h.sets.GetCampaignSetWithRelations(c.Request.Context(), setID)
	if err != nil {
		if errors.Is(err, campaign.ErrCampaignSetNotFound) {
			h.NotFound(c, "Campaign set not found")
			return
		}
		h.InternalError(c, "Failed to load campaign set")
		return
	}

	h.Success(c, dto.NewSyncStatusResponse(set))
}

// RetryCampaign godoc
// @ID           retryCampaign
// @Summary      Retry a failed campaign sync
// @Description  Resets a failed campaign and re-attempts its sync immediately
// @Tags         sync
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Success      200 {object} APIResponse[appsync.RetryOutcome]
// @Failure      404 {object} ErrorResponse
// @Router       /campaigns/{id}/retry [post]
func (h *SyncHandler) RetryCampaign(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}
	campaignID := uuid.MustParse(req.ID)

	outcome, err := h.retrier.RetryCampaign(c.Request.Context(), campaignID)
	if err != nil {
		if errors.Is(err, campaign.ErrSyncRecordNotFound) || errors.Is(err, campaign.ErrCampaignNotFound) {
			h.NotFound(c, "Campaign has no sync record to retry")
			return
		}
		h.logger.Error("Manual retry failed",
			zap.String("campaign_id", campaignID.String()),
			zap.Error(err),
		)
		h.InternalError(c, "Retry failed")
		return
	}

	h.Success(c, outcome)
}

// GetAccountDrift godoc
// @ID           getAccountDrift
// @Summary      Detect drift for an ad account
// @Description  Fetches platform state for every synced campaign in the account and reconciles differences
// @Tags         sync
// @Produce      json
// @Param        accountId path string true "Ad account ID"
// @Success      200 {object} APIResponse[appsync.PollResult]
// @Router       /accounts/{accountId}/drift [get]
func (h *SyncHandler) GetAccountDrift(c *gin.Context) {
	adAccountID := c.Param("accountId")
	if adAccountID == "" {
		h.BadRequest(c, "Ad account ID is required")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.poller.PollAccount(c.Request.Context(), tenantID, adAccountID)
	if err != nil {
		h.logger.Error("Drift poll failed",
			zap.String("ad_account_id", adAccountID),
			zap.Error(err),
		)
		h.InternalError(c, "Drift detection failed")
		return
	}

	h.Success(c, result)
}
