package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adsync/backend/internal/domain/campaign"
)

// pollerCampaign returns a synced campaign whose last sync is after its
// last local modification
func pollerCampaign(name, platformID string) campaign.Campaign {
	c := fixtureCampaign(uuid.New(), name)
	c.Status = campaign.CampaignStatusActive
	c.PlatformCampaignID = ptr(platformID)
	synced := c.UpdatedAt.Add(time.Minute)
	c.LastSyncedAt = &synced
	return c
}

func matchingState(c *campaign.Campaign) *campaign.PlatformCampaignState {
	return &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       campaign.PlatformEntityStatusActive,
		BudgetAmount: c.Budget.Amount,
		Currency:     c.Budget.Currency,
	}
}

func TestPoller_NoDrift(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	adapter.states["REDDIT-1"] = matchingState(&c)

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Conflicts)
	assert.Zero(t, result.Deleted)
	repo.AssertNotCalled(t, "UpdateCampaignFromPlatform", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_PlatformWinsWhenLocalUnmodified(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	adapter.states["REDDIT-1"] = &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       campaign.PlatformEntityStatusPaused,
		BudgetAmount: decimal.NewFromInt(250),
		Currency:     "USD",
	}

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)
	repo.On("UpdateCampaignFromPlatform", mock.Anything, c.ID, mock.MatchedBy(func(u campaign.PlatformDriftUpdate) bool {
		return u.Status == campaign.CampaignStatusPaused && u.BudgetAmount.Equal(decimal.NewFromInt(250))
	})).Return(nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Conflicts)
	repo.AssertExpectations(t)
}

func TestPoller_MissingCurrencyPreservesLocal(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	adapter.states["REDDIT-1"] = &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       campaign.PlatformEntityStatusPaused,
		BudgetAmount: c.Budget.Amount,
		Currency:     "",
	}

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)
	repo.On("UpdateCampaignFromPlatform", mock.Anything, c.ID, mock.MatchedBy(func(u campaign.PlatformDriftUpdate) bool {
		return u.Currency == "USD"
	})).Return(nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	_, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPoller_OmittedBudgetIsNotDrift(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	adapter.states["REDDIT-1"] = &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       campaign.PlatformEntityStatusActive,
		BudgetAmount: decimal.Zero,
		Currency:     "",
	}

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Conflicts)
	repo.AssertNotCalled(t, "UpdateCampaignFromPlatform", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_OmittedBudgetNoConflictWhenLocallyModified(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	// Local edit after the last sync
	synced := c.UpdatedAt.Add(-time.Minute)
	c.LastSyncedAt = &synced

	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	adapter.states["REDDIT-1"] = &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       campaign.PlatformEntityStatusActive,
		BudgetAmount: decimal.Zero,
		Currency:     "",
	}

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	assert.Zero(t, result.Conflicts)
	repo.AssertNotCalled(t, "MarkCampaignConflict", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_BothSidesModifiedIsConflict(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	// Local edit after the last sync
	synced := c.UpdatedAt.Add(-time.Minute)
	c.LastSyncedAt = &synced

	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	adapter.states["REDDIT-1"] = &campaign.PlatformCampaignState{
		Exists:       true,
		Status:       campaign.PlatformEntityStatusPaused,
		BudgetAmount: decimal.NewFromInt(999),
		Currency:     "USD",
	}

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)
	repo.On("MarkCampaignConflict", mock.Anything, c.ID, mock.MatchedBy(func(d *campaign.ConflictDetail) bool {
		return assert.ObjectsAreEqual([]string{"status", "budget_amount"}, d.Fields) &&
			d.LocalValues["status"] == "ACTIVE" &&
			d.PlatformValues["status"] == "PAUSED" &&
			d.PlatformValues["budget_amount"] == "999"
	})).Return(nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)
	assert.Zero(t, result.Updated)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "UpdateCampaignFromPlatform", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_DeletedOnPlatform(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	// No state registered: the fake reports Exists=false

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)
	repo.On("MarkCampaignDeletedOnPlatform", mock.Anything, c.ID, mock.Anything).Return(nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	repo.AssertExpectations(t)
}

func TestPoller_FetchFailureLeavesStateUntouched(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	adapter := newFakeAdapter(campaign.PlatformCodeReddit)
	adapter.stateErr = errors.New("rate limited")

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)

	p := NewPlatformPoller(repo, newStubRegistry(adapter), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, c.ID, result.Errors[0].CampaignID)
	assert.Equal(t, "rate limited", result.Errors[0].Message)
	repo.AssertNotCalled(t, "UpdateCampaignFromPlatform", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkCampaignDeletedOnPlatform", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_NoAdapterForCampaign(t *testing.T) {
	tenantID := uuid.New()
	c := pollerCampaign("camp-a", "REDDIT-1")
	c.Platform = campaign.PlatformCodeGoogle

	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return([]campaign.Campaign{c}, nil)

	p := NewPlatformPoller(repo, newStubRegistry(newFakeAdapter(campaign.PlatformCodeReddit)), zap.NewNop())
	result, err := p.PollAccount(context.Background(), tenantID, "acct-1")

	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "no adapter")
}

func TestPoller_ListFailurePropagates(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockCampaignRepository)
	repo.On("GetSyncedCampaignsForAccount", mock.Anything, tenantID, "acct-1").Return(nil, errors.New("db down"))

	p := NewPlatformPoller(repo, newStubRegistry(), zap.NewNop())
	_, err := p.PollAccount(context.Background(), tenantID, "acct-1")
	assert.Error(t, err)
}
