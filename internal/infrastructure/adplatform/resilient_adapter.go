package adplatform

import (
	"context"
	"fmt"
	"time"

	"github.com/adsync/backend/internal/domain/campaign"
	"github.com/adsync/backend/internal/infrastructure/resilience"
)

// DefaultCallTimeout bounds every wrapped adapter call
const DefaultCallTimeout = 30 * time.Second

// ResilientAdapter decorates a platform adapter with a per-platform circuit
// breaker and a per-call timeout. Transport errors count against the
// breaker; business rejections (AdapterResult with Success=false) do not,
// since they mean the platform answered.
//
// Breaker rejections surface as campaign.ErrAdapterUnavailable, which the
// sync layer turns into *_EXCEPTION entries like any other transport error.
type ResilientAdapter struct {
	inner    campaign.PlatformAdapter
	breakers *resilience.BreakerRegistry
	timeout  time.Duration
}

// NewResilientAdapter wraps the adapter. A non-positive timeout falls back
// to DefaultCallTimeout.
func NewResilientAdapter(inner campaign.PlatformAdapter, breakers *resilience.BreakerRegistry, timeout time.Duration) *ResilientAdapter {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &ResilientAdapter{
		inner:    inner,
		breakers: breakers,
		timeout:  timeout,
	}
}

// PlatformCode returns the wrapped adapter's platform code
func (r *ResilientAdapter) PlatformCode() campaign.PlatformCode {
	return r.inner.PlatformCode()
}

func (r *ResilientAdapter) call(ctx context.Context, fn func(ctx context.Context) (*campaign.AdapterResult, error)) (*campaign.AdapterResult, error) {
	b := r.breakers.Get(r.inner.PlatformCode().String())
	if err := b.Allow(); err != nil {
		return nil, fmt.Errorf("%w: %v", campaign.ErrAdapterUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := fn(callCtx)
	if err != nil {
		b.RecordFailure()
		return nil, err
	}
	b.RecordSuccess()
	return res, nil
}

func (r *ResilientAdapter) do(ctx context.Context, fn func(ctx context.Context) error) error {
	b := r.breakers.Get(r.inner.PlatformCode().String())
	if err := b.Allow(); err != nil {
		return fmt.Errorf("%w: %v", campaign.ErrAdapterUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := fn(callCtx); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

func (r *ResilientAdapter) CreateCampaign(ctx context.Context, adAccountID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.CreateCampaign(ctx, adAccountID, c)
	})
}

func (r *ResilientAdapter) UpdateCampaign(ctx context.Context, platformCampaignID string, c *campaign.Campaign) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.UpdateCampaign(ctx, platformCampaignID, c)
	})
}

func (r *ResilientAdapter) PauseCampaign(ctx context.Context, platformCampaignID string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.PauseCampaign(ctx, platformCampaignID)
	})
}

func (r *ResilientAdapter) ResumeCampaign(ctx context.Context, platformCampaignID string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.ResumeCampaign(ctx, platformCampaignID)
	})
}

func (r *ResilientAdapter) DeleteCampaign(ctx context.Context, platformCampaignID string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.DeleteCampaign(ctx, platformCampaignID)
	})
}

func (r *ResilientAdapter) CreateAdGroup(ctx context.Context, platformCampaignID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.CreateAdGroup(ctx, platformCampaignID, g)
	})
}

func (r *ResilientAdapter) UpdateAdGroup(ctx context.Context, platformAdGroupID string, g *campaign.AdGroup) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.UpdateAdGroup(ctx, platformAdGroupID, g)
	})
}

func (r *ResilientAdapter) DeleteAdGroup(ctx context.Context, platformAdGroupID string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.DeleteAdGroup(ctx, platformAdGroupID)
	})
}

func (r *ResilientAdapter) CreateAd(ctx context.Context, platformAdGroupID string, a *campaign.Ad) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.CreateAd(ctx, platformAdGroupID, a)
	})
}

func (r *ResilientAdapter) UpdateAd(ctx context.Context, platformAdID string, a *campaign.Ad) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.UpdateAd(ctx, platformAdID, a)
	})
}

func (r *ResilientAdapter) DeleteAd(ctx context.Context, platformAdID string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.DeleteAd(ctx, platformAdID)
	})
}

func (r *ResilientAdapter) CreateKeyword(ctx context.Context, platformAdGroupID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.CreateKeyword(ctx, platformAdGroupID, k)
	})
}

func (r *ResilientAdapter) UpdateKeyword(ctx context.Context, platformKeywordID string, k *campaign.Keyword) (*campaign.AdapterResult, error) {
	return r.call(ctx, func(ctx context.Context) (*campaign.AdapterResult, error) {
		return r.inner.UpdateKeyword(ctx, platformKeywordID, k)
	})
}

func (r *ResilientAdapter) DeleteKeyword(ctx context.Context, platformKeywordID string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.DeleteKeyword(ctx, platformKeywordID)
	})
}

func (r *ResilientAdapter) GetCampaignState(ctx context.Context, adAccountID string, platformCampaignID string) (*campaign.PlatformCampaignState, error) {
	b := r.breakers.Get(r.inner.PlatformCode().String())
	if err := b.Allow(); err != nil {
		return nil, fmt.Errorf("%w: %v", campaign.ErrAdapterUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	state, err := r.inner.GetCampaignState(callCtx, adAccountID, platformCampaignID)
	if err != nil {
		b.RecordFailure()
		return nil, err
	}
	b.RecordSuccess()
	return state, nil
}

// Ensure ResilientAdapter implements the PlatformAdapter interface
var _ campaign.PlatformAdapter = (*ResilientAdapter)(nil)
