package pipeline

import (
	"context"
	"time"
)

// AdvisoryLease is the short-lived lock document a repository backend
// writes to guard a read-then-conditionally-write sequence when the
// backend has no native transactional CAS.
type AdvisoryLease struct {
	Key       string
	Owner     string
	ExpiresAt time.Time
}

// Leaser isolates the TTL-lease acquisition used for CAS emulation so the
// busy-retry polling never leaks into repository callers.
type Leaser interface {
	// TryAcquire attempts to take the lease once. It succeeds if no lease
	// exists for the key, the existing lease has expired, or the existing
	// lease is already held by the same owner (renewal).
	TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// AcquireWithRetry polls TryAcquire until it succeeds or the timeout
	// elapses, returning domain.ErrLockAcquireTimeout in the latter case.
	AcquireWithRetry(ctx context.Context, key, owner string, ttl, timeout time.Duration) error

	// Release drops the lease if the caller still owns it.
	Release(ctx context.Context, key, owner string) error
}
