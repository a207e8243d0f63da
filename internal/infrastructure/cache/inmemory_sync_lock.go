package cache

import (
	"context"
	"sync"
	"time"

	"github.com/adsync/backend/internal/domain/shared"
)

// lease represents a held lock with expiration
type lease struct {
	expiresAt time.Time
}

// InMemorySyncLock implements SyncLock using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemorySyncLock struct {
	mu        sync.Mutex
	leases    map[string]lease
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySyncLock creates a new in-memory sync lock
// It starts a background goroutine to clean up expired leases
func NewInMemorySyncLock() *InMemorySyncLock {
	l := &InMemorySyncLock{
		leases:   make(map[string]lease),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// TryAcquire takes the lease for key if nobody holds it
func (l *InMemorySyncLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, held := l.leases[key]; held {
		if time.Now().Before(existing.expiresAt) {
			return false, nil // Another holder has the lease
		}
		// Lease exists but expired, will be overwritten
	}

	l.leases[key] = lease{
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

// Release gives the lease back
func (l *InMemorySyncLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.leases, key)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (l *InMemorySyncLock) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired leases
func (l *InMemorySyncLock) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup removes expired leases
func (l *InMemorySyncLock) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, existing := range l.leases {
		if now.After(existing.expiresAt) {
			delete(l.leases, key)
		}
	}
}

// Size returns the number of held leases (for testing/monitoring)
func (l *InMemorySyncLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.leases)
}

// Ensure InMemorySyncLock implements SyncLock
var _ shared.SyncLock = (*InMemorySyncLock)(nil)
