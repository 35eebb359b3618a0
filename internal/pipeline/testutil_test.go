package pipeline

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source so lease, TTL and backoff
// behavior can be tested without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	kinds, err := NewKindRegistry()
	if err != nil {
		t.Fatalf("NewKindRegistry: %v", err)
	}
	clock := newFakeClock()
	return NewStore(kinds, testLogger(), WithClock(clock.Now)), clock
}

func intPtr(n int) *int {
	return &n
}

func strPtr(s string) *string {
	return &s
}
