package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/adsync/backend/internal/domain/campaign"
)

// MockCampaignRepository is a mock implementation of campaign.CampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) GetCampaignSetWithRelations(ctx context.Context, setID uuid.UUID) (*campaign.CampaignSet, error) {
	args := m.Called(ctx, setID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.CampaignSet), args.Error(1)
}

func (m *MockCampaignRepository) GetCampaignByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) UpdateCampaignSetStatus(ctx context.Context, setID uuid.UUID, status campaign.CampaignSetStatus, syncStatus campaign.SyncStatus) error {
	args := m.Called(ctx, setID, status, syncStatus)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateCampaignSyncStatus(ctx context.Context, campaignID uuid.UUID, status campaign.SyncStatus, syncError string) error {
	args := m.Called(ctx, campaignID, status, syncError)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateCampaignPlatformID(ctx context.Context, campaignID uuid.UUID, platformID string) error {
	args := m.Called(ctx, campaignID, platformID)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateAdGroupPlatformID(ctx context.Context, adGroupID uuid.UUID, platformID string) error {
	args := m.Called(ctx, adGroupID, platformID)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateAdPlatformID(ctx context.Context, adID uuid.UUID, platformID string) error {
	args := m.Called(ctx, adID, platformID)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateKeywordPlatformID(ctx context.Context, keywordID uuid.UUID, platformID string) error {
	args := m.Called(ctx, keywordID, platformID)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetSyncedCampaignsForAccount(ctx context.Context, tenantID uuid.UUID, adAccountID string) ([]campaign.Campaign, error) {
	args := m.Called(ctx, tenantID, adAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) MarkCampaignDeletedOnPlatform(ctx context.Context, campaignID uuid.UUID, reason string) error {
	args := m.Called(ctx, campaignID, reason)
	return args.Error(0)
}

func (m *MockCampaignRepository) MarkCampaignConflict(ctx context.Context, campaignID uuid.UUID, detail *campaign.ConflictDetail) error {
	args := m.Called(ctx, campaignID, detail)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateCampaignFromPlatform(ctx context.Context, campaignID uuid.UUID, update campaign.PlatformDriftUpdate) error {
	args := m.Called(ctx, campaignID, update)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetFailedCampaignsForRetry(ctx context.Context, tenantID uuid.UUID, maxRetries int) ([]campaign.SyncRecord, error) {
	args := m.Called(ctx, tenantID, maxRetries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]campaign.SyncRecord), args.Error(1)
}

func (m *MockCampaignRepository) IncrementRetryCount(ctx context.Context, campaignID uuid.UUID) (int, error) {
	args := m.Called(ctx, campaignID)
	return args.Int(0), args.Error(1)
}

func (m *MockCampaignRepository) MarkPermanentFailure(ctx context.Context, campaignID uuid.UUID, reason string) error {
	args := m.Called(ctx, campaignID, reason)
	return args.Error(0)
}

func (m *MockCampaignRepository) ResetSyncForRetry(ctx context.Context, campaignID uuid.UUID) error {
	args := m.Called(ctx, campaignID)
	return args.Error(0)
}

// fakeAdapter is a scriptable in-memory platform adapter. Creates assign
// sequential platform identifiers and every call is recorded in order, so
// tests can assert both outcomes and call sequence. Entities whose name
// (or headline / text) appears in a fail set report a business failure;
// names in a panic set panic, exercising the exception path.
type fakeAdapter struct {
	platform campaign.PlatformCode

	nextID int
	calls  []string

	failCreate map[string]bool
	failUpdate map[string]bool
	panicOn    map[string]bool
	failDelete map[string]bool

	// states drives GetCampaignState, keyed by platform campaign id
	states   map[string]*campaign.PlatformCampaignState
	stateErr error
}

func newFakeAdapter(platform campaign.PlatformCode) *fakeAdapter {
	return &fakeAdapter{
		platform:   platform,
		failCreate: make(map[string]bool),
		failUpdate: make(map[string]bool),
		panicOn:    make(map[string]bool),
		failDelete: make(map[string]bool),
		states:     make(map[string]*campaign.PlatformCampaignState),
	}
}

func (f *fakeAdapter) PlatformCode() campaign.PlatformCode { return f.platform }

func (f *fakeAdapter) record(op, name string) {
	f.calls = append(f.calls, op+":"+name)
}

func (f *fakeAdapter) create(op, name string) (*campaign.AdapterResult, error) {
	f.record(op, name)
	if f.panicOn[name] {
		panic(errors.New("adapter panic on " + name))
	}
	if f.failCreate[name] {
		return &campaign.AdapterResult{Success: false, Error: "platform rejected " + name}, nil
	}
	f.nextID++
	return &campaign.AdapterResult{Success: true, PlatformID: fmt.Sprintf("%s-%d", f.platform, f.nextID)}, nil
}

func (f *fakeAdapter) update(op, name string) (*campaign.AdapterResult, error) {
	f.record(op, name)
	if f.panicOn[name] {
		panic(errors.New("adapter panic on " + name))
	}
	if f.failUpdate[name] {
		return &campaign.AdapterResult{Success: false, Error: "platform rejected " + name}, nil
	}
	return &campaign.AdapterResult{Success: true}, nil
}

func (f *fakeAdapter) delete(op, platformID string) error {
	f.record(op, platformID)
	if f.panicOn[platformID] {
		panic(errors.New("adapter panic on " + platformID))
	}
	if f.failDelete[platformID] {
		return errors.New("platform refused delete of " + platformID)
	}
	return nil
}

func (f *fakeAdapter) CreateCampaign(ctx context.Context, adAccountID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	return f.create("create_campaign", c.Name)
}

func (f *fakeAdapter) UpdateCampaign(ctx context.Context, platformCampaignID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	return f.update("update_campaign", c.Name)
}

func (f *fakeAdapter) PauseCampaign(ctx context.Context, platformCampaignID string) error {
	f.record("pause_campaign", platformCampaignID)
	return nil
}

func (f *fakeAdapter) ResumeCampaign(ctx context.Context, platformCampaignID string) error {
	f.record("resume_campaign", platformCampaignID)
	return nil
}

func (f *fakeAdapter) DeleteCampaign(ctx context.Context, platformCampaignID string) error {
	return f.delete("delete_campaign", platformCampaignID)
}

func (f *fakeAdapter) CreateAdGroup(ctx context.Context, platformCampaignID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	return f.create("create_ad_group", g.Name)
}

func (f *fakeAdapter) UpdateAdGroup(ctx context.Context, platformAdGroupID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	return f.update("update_ad_group", g.Name)
}

func (f *fakeAdapter) DeleteAdGroup(ctx context.Context, platformAdGroupID string) error {
	return f.delete("delete_ad_group", platformAdGroupID)
}

func (f *fakeAdapter) CreateAd(ctx context.Context, platformAdGroupID string, a *campaign.Ad) (*campaign.AdapterResult, error) {
	return f.create("create_ad", a.Headline)
}

func (f *fakeAdapter) UpdateAd(ctx context.Context, platformAdID string, a *campaign.Ad) (*campaign.AdapterResult, error) {
	return f.update("update_ad", a.Headline)
}

func (f *fakeAdapter) DeleteAd(ctx context.Context, platformAdID string) error {
	return f.delete("delete_ad", platformAdID)
}

func (f *fakeAdapter) CreateKeyword(ctx context.Context, platformAdGroupID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	return f.create("create_keyword", k.Text)
}

func (f *fakeAdapter) UpdateKeyword(ctx context.Context, platformKeywordID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	return f.update("update_keyword", k.Text)
}

func (f *fakeAdapter) DeleteKeyword(ctx context.Context, platformKeywordID string) error {
	return f.delete("delete_keyword", platformKeywordID)
}

func (f *fakeAdapter) GetCampaignState(ctx context.Context, adAccountID string, platformCampaignID string) (*campaign.PlatformCampaignState, error) {
	f.record("get_campaign_state", platformCampaignID)
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	if state, ok := f.states[platformCampaignID]; ok {
		return state, nil
	}
	return &campaign.PlatformCampaignState{Exists: false}, nil
}

// stubRegistry is a map-backed adapter registry
type stubRegistry struct {
	adapters map[campaign.PlatformCode]campaign.PlatformAdapter
}

func newStubRegistry(adapters ...campaign.PlatformAdapter) *stubRegistry {
	r := &stubRegistry{adapters: make(map[campaign.PlatformCode]campaign.PlatformAdapter)}
	for _, a := range adapters {
		r.adapters[a.PlatformCode()] = a
	}
	return r
}

func (r *stubRegistry) GetAdapter(code campaign.PlatformCode) (campaign.PlatformAdapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, campaign.ErrNoAdapter
	}
	return a, nil
}

func (r *stubRegistry) ListAdapters() []campaign.PlatformAdapter {
	out := make([]campaign.PlatformAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}
