package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adsync/backend/internal/domain/campaign"
)

// PollError records a campaign whose platform state could not be fetched
// or persisted during a poll run. Fetch failures do not touch local state;
// the next run retries.
type PollError struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Message    string    `json:"message"`
}

// PollResult aggregates one drift-detection run over an ad account
type PollResult struct {
	Checked   int         `json:"checked"`
	Updated   int         `json:"updated"`
	Conflicts int         `json:"conflicts"`
	Deleted   int         `json:"deleted"`
	Errors    []PollError `json:"errors"`
}

// PlatformPoller detects drift between the local store and the platforms:
// it fetches the platform-side state of every synced campaign in an ad
// account and reconciles differences.
//
// Resolution is platform-wins for platform-owned fields (status, budget)
// unless the campaign was also modified locally since its last sync, in
// which case the divergence is recorded as a conflict for a human to
// resolve and the campaign is withdrawn from automated syncing.
type PlatformPoller struct {
	repo     campaign.CampaignRepository
	adapters campaign.AdapterRegistry
	logger   *zap.Logger
	now      func() time.Time
}

// NewPlatformPoller creates a platform poller
func NewPlatformPoller(repo campaign.CampaignRepository, adapters campaign.AdapterRegistry, logger *zap.Logger) *PlatformPoller {
	return &PlatformPoller{
		repo:     repo,
		adapters: adapters,
		logger:   logger,
		now:      time.Now,
	}
}

// PollAccount reconciles every synced campaign of one ad account against
// its platform. A non-nil error is returned only when the candidate list
// itself cannot be loaded; per-campaign failures are aggregated.
func (p *PlatformPoller) PollAccount(ctx context.Context, tenantID uuid.UUID, adAccountID string) (*PollResult, error) {
	campaigns, err := p.repo.GetSyncedCampaignsForAccount(ctx, tenantID, adAccountID)
	if err != nil {
		return nil, err
	}

	result := &PollResult{}
	for i := range campaigns {
		p.pollCampaign(ctx, &campaigns[i], result)
	}

	p.logger.Info("Drift poll finished",
		zap.String("ad_account_id", adAccountID),
		zap.Int("checked", result.Checked),
		zap.Int("updated", result.Updated),
		zap.Int("conflicts", result.Conflicts),
		zap.Int("deleted", result.Deleted),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func (p *PlatformPoller) pollCampaign(ctx context.Context, c *campaign.Campaign, result *PollResult) {
	// Candidates are filtered to synced campaigns by the repository, but a
	// concurrent writer may have cleared the platform id since the query
	if !c.IsSynced() {
		return
	}
	result.Checked++

	adapter, err := p.adapters.GetAdapter(c.Platform)
	if err != nil {
		result.Errors = append(result.Errors, PollError{CampaignID: c.ID, Message: "no adapter registered for platform " + c.Platform.String()})
		return
	}

	state, err := adapter.GetCampaignState(ctx, c.AdAccountID, *c.PlatformCampaignID)
	if err != nil {
		result.Errors = append(result.Errors, PollError{CampaignID: c.ID, Message: errorMessage(err)})
		return
	}

	if !state.Exists {
		if err := p.repo.MarkCampaignDeletedOnPlatform(ctx, c.ID, "campaign no longer exists on "+c.Platform.String()); err != nil {
			result.Errors = append(result.Errors, PollError{CampaignID: c.ID, Message: err.Error()})
			return
		}
		result.Deleted++
		return
	}

	drift := p.detectDrift(c, state)
	if drift == nil {
		return
	}

	if c.ModifiedSinceSync() {
		// Both sides changed since the last sync; neither wins automatically
		detail := p.buildConflict(c, state, drift)
		if err := p.repo.MarkCampaignConflict(ctx, c.ID, detail); err != nil {
			result.Errors = append(result.Errors, PollError{CampaignID: c.ID, Message: err.Error()})
			return
		}
		result.Conflicts++
		p.logger.Warn("Sync conflict detected",
			zap.String("campaign_id", c.ID.String()),
			zap.String("platform", c.Platform.String()),
			zap.Strings("fields", drift),
		)
		return
	}

	update := campaign.PlatformDriftUpdate{
		Status:       state.Status.ToLocalStatus(),
		BudgetAmount: state.BudgetAmount,
		Currency:     state.Currency,
	}
	if update.Currency == "" {
		update.Currency = c.Budget.Currency
	}
	if err := p.repo.UpdateCampaignFromPlatform(ctx, c.ID, update); err != nil {
		result.Errors = append(result.Errors, PollError{CampaignID: c.ID, Message: err.Error()})
		return
	}
	result.Updated++
}

// detectDrift returns the names of platform-owned fields whose platform
// value differs from the local one, or nil when in agreement.
func (p *PlatformPoller) detectDrift(c *campaign.Campaign, state *campaign.PlatformCampaignState) []string {
	var fields []string
	if state.Status.ToLocalStatus() != c.Status {
		fields = append(fields, "status")
	}
	// A zero platform budget means the payload omitted it, not a budget of zero
	if !state.BudgetAmount.IsZero() && !state.BudgetAmount.Equal(c.Budget.Amount) {
		fields = append(fields, "budget_amount")
	}
	if state.Currency != "" && state.Currency != c.Budget.Currency {
		fields = append(fields, "budget_currency")
	}
	return fields
}

func (p *PlatformPoller) buildConflict(c *campaign.Campaign, state *campaign.PlatformCampaignState, fields []string) *campaign.ConflictDetail {
	local := make(map[string]any, len(fields))
	remote := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "status":
			local[f] = c.Status.String()
			remote[f] = state.Status.ToLocalStatus().String()
		case "budget_amount":
			local[f] = c.Budget.Amount.String()
			remote[f] = state.BudgetAmount.String()
		case "budget_currency":
			local[f] = c.Budget.Currency
			remote[f] = state.Currency
		}
	}
	detail := campaign.NewConflictDetail(c, fields, local, remote)
	detail.DetectedAt = p.now()
	return detail
}
