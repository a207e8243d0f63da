package adplatform

import (
	"sort"
	"sync"

	"github.com/adsync/backend/internal/domain/campaign"
)

// Registry is the in-memory adapter registry, keyed by platform code.
// Adapters are registered at wiring time; lookups are concurrency-safe.
type Registry struct {
	mu       sync.RWMutex
	adapters map[campaign.PlatformCode]campaign.PlatformAdapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[campaign.PlatformCode]campaign.PlatformAdapter),
	}
}

// Register adds an adapter under its own platform code, replacing any
// previous registration for that code
func (r *Registry) Register(adapter campaign.PlatformAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.PlatformCode()] = adapter
}

// GetAdapter returns the adapter for the specified platform code.
// Returns campaign.ErrNoAdapter when none is registered.
func (r *Registry) GetAdapter(code campaign.PlatformCode) (campaign.PlatformAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, campaign.ErrNoAdapter
	}
	return adapter, nil
}

// ListAdapters returns all registered adapters in platform-code order
func (r *Registry) ListAdapters() []campaign.PlatformAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.adapters))
	for code := range r.adapters {
		codes = append(codes, code.String())
	}
	sort.Strings(codes)

	out := make([]campaign.PlatformAdapter, 0, len(codes))
	for _, code := range codes {
		out = append(out, r.adapters[campaign.PlatformCode(code)])
	}
	return out
}

// Ensure Registry implements the AdapterRegistry interface
var _ campaign.AdapterRegistry = (*Registry)(nil)
