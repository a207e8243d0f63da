package shared

import (
	"context"
	"time"
)

// SyncLock is a lease-based mutual exclusion primitive. It guards a
// resource (keyed by an arbitrary string) against concurrent sync runs
// across process instances.
type SyncLock interface {
	// TryAcquire attempts to take the lease for key. It returns true when
	// the lease was granted and false when another holder has it. The
	// lease expires on its own after ttl so a crashed holder cannot wedge
	// the resource forever.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives the lease back. Releasing a lease that is not held is
	// not an error.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the lock implementation
	Close() error
}
