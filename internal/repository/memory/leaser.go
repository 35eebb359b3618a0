package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"armature/internal/config"
	"armature/internal/domain"
	pipelineRepo "armature/internal/domain/repositories/pipeline"
)

// Leaser implements TTL-lease acquisition over an in-memory map. Backends
// without native transactional CAS use the same shape over an advisory
// lock document: TryAcquire is a single conditional write, and
// AcquireWithRetry bounds the busy polling with an explicit timeout so
// callers never inline a spin loop.
type Leaser struct {
	mu     sync.Mutex
	leases map[string]pipelineRepo.AdvisoryLease
	now    func() time.Time
	poll   time.Duration
	logger *slog.Logger
}

// LeaserOption configures a Leaser.
type LeaserOption func(*Leaser)

// WithLeaserClock overrides the time source for tests.
func WithLeaserClock(now func() time.Time) LeaserOption {
	return func(l *Leaser) {
		l.now = now
	}
}

// WithPollInterval overrides the retry poll interval.
func WithPollInterval(interval time.Duration) LeaserOption {
	return func(l *Leaser) {
		l.poll = interval
	}
}

// NewLeaser creates an empty leaser polling at the configured default
// interval.
func NewLeaser(logger *slog.Logger, opts ...LeaserOption) *Leaser {
	l := &Leaser{
		leases: make(map[string]pipelineRepo.AdvisoryLease),
		now:    time.Now,
		poll:   config.LeasePollInterval,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ pipelineRepo.Leaser = (*Leaser)(nil)

// TryAcquire attempts the lease once. Success cases: no lease, expired
// lease, or renewal by the current owner.
func (l *Leaser) TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.leases[key]; ok && now.Before(lease.ExpiresAt) && lease.Owner != owner {
		return false, nil
	}

	l.leases[key] = pipelineRepo.AdvisoryLease{
		Key:       key,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
	}
	return true, nil
}

// AcquireWithRetry polls TryAcquire until success or timeout. The wait
// lives here, behind the interface, bounded and cancellable.
func (l *Leaser) AcquireWithRetry(ctx context.Context, key, owner string, ttl, timeout time.Duration) error {
	deadline := l.now().Add(timeout)

	for {
		ok, err := l.TryAcquire(ctx, key, owner, ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !l.now().Before(deadline) {
			l.logger.Warn("lease acquisition timed out", "key", key, "owner", owner, "timeout", timeout)
			return fmt.Errorf("lease %q: %w", key, domain.ErrLockAcquireTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

// Release drops the lease if the caller still owns it. Releasing someone
// else's lease, or a missing one, is a no-op.
func (l *Leaser) Release(ctx context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lease, ok := l.leases[key]; ok && lease.Owner == owner {
		delete(l.leases, key)
	}
	return nil
}
