package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adsync/backend/internal/domain/campaign"
)

// CampaignSyncer re-synchronizes a single campaign and its subtree.
// Implemented by Orchestrator.
type CampaignSyncer interface {
	SyncCampaign(ctx context.Context, campaignID uuid.UUID) (*SyncResult, error)
}

// RetryOutcome is the result of one retry attempt
type RetryOutcome struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	RetryCount int       `json:"retry_count"`
	Synced     bool      `json:"synced"`
	// Permanent is true when this attempt exhausted the retry budget and
	// the campaign was withdrawn from further automatic retries
	Permanent bool `json:"permanent"`
}

// RetryRunResult aggregates one scheduler-driven retry sweep
type RetryRunResult struct {
	Attempted int            `json:"attempted"`
	Synced    int            `json:"synced"`
	Failed    int            `json:"failed"`
	Permanent int            `json:"permanent"`
	Outcomes  []RetryOutcome `json:"outcomes"`
}

// RetryService drives retries of failed campaign syncs. Each attempt bumps
// the retry count first, so the backoff window for the following attempt is
// in place before the sync runs; an attempt that fails with the budget
// exhausted marks the campaign as a permanent failure.
type RetryService struct {
	repo       campaign.CampaignRepository
	syncer     CampaignSyncer
	logger     *zap.Logger
	maxRetries int
}

// NewRetryService creates a retry service
func NewRetryService(repo campaign.CampaignRepository, syncer CampaignSyncer, maxRetries int, logger *zap.Logger) *RetryService {
	return &RetryService{
		repo:       repo,
		syncer:     syncer,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// RetryCampaign re-attempts the sync of one failed campaign. Also serves
// manual retries triggered through the HTTP surface.
// Returns campaign.ErrSyncRecordNotFound when the campaign has never been
// synced.
func (s *RetryService) RetryCampaign(ctx context.Context, campaignID uuid.UUID) (*RetryOutcome, error) {
	count, err := s.repo.IncrementRetryCount(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ResetSyncForRetry(ctx, campaignID); err != nil {
		return nil, err
	}

	outcome := &RetryOutcome{CampaignID: campaignID, RetryCount: count}

	result, err := s.syncer.SyncCampaign(ctx, campaignID)
	if err == nil && result.Success {
		outcome.Synced = true
		return outcome, nil
	}

	if err != nil {
		s.logger.Warn("Retry attempt failed",
			zap.String("campaign_id", campaignID.String()),
			zap.Int("retry_count", count),
			zap.Error(err),
		)
	}

	if count >= s.maxRetries {
		reason := fmt.Sprintf("retry limit reached after %d attempts", count)
		if err := s.repo.MarkPermanentFailure(ctx, campaignID, reason); err != nil {
			return nil, err
		}
		outcome.Permanent = true
	}
	return outcome, nil
}

// ProcessDueRetries sweeps the tenant's due retry candidates once.
// Per-campaign failures do not abort the sweep.
func (s *RetryService) ProcessDueRetries(ctx context.Context, tenantID uuid.UUID) (*RetryRunResult, error) {
	records, err := s.repo.GetFailedCampaignsForRetry(ctx, tenantID, s.maxRetries)
	if err != nil {
		return nil, err
	}

	run := &RetryRunResult{}
	for _, rec := range records {
		run.Attempted++
		outcome, err := s.RetryCampaign(ctx, rec.CampaignID)
		if err != nil {
			run.Failed++
			s.logger.Warn("Retry sweep entry failed",
				zap.String("campaign_id", rec.CampaignID.String()),
				zap.Error(err),
			)
			continue
		}
		run.Outcomes = append(run.Outcomes, *outcome)
		switch {
		case outcome.Synced:
			run.Synced++
		case outcome.Permanent:
			run.Permanent++
		default:
			run.Failed++
		}
	}

	s.logger.Info("Retry sweep finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("attempted", run.Attempted),
		zap.Int("synced", run.Synced),
		zap.Int("failed", run.Failed),
		zap.Int("permanent", run.Permanent),
	)

	return run, nil
}
