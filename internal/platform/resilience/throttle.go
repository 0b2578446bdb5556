package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ThrottleGate enforces a minimum interval between the calls that pass
// through it. The last-call timestamp is process-wide, not per-caller:
// the provider's rate limit is account-wide, so all endpoints share one
// gate. The mutex is held across the wait so that two concurrent callers
// can never both pass within one interval of each other.
type ThrottleGate struct {
	mu       sync.Mutex
	interval time.Duration
	clock    clockwork.Clock
	lastCall time.Time
}

func NewThrottleGate(interval time.Duration, clock clockwork.Clock) *ThrottleGate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ThrottleGate{
		interval: interval,
		clock:    clock,
	}
}

// Acquire blocks until at least the configured interval has elapsed since
// the previous acquisition, then records the current time as the last
// call. Callers that are served from cache must not call Acquire: cache
// hits do not consume throttle budget.
func (g *ThrottleGate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.interval > 0 && !g.lastCall.IsZero() {
		if wait := g.interval - g.clock.Since(g.lastCall); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-g.clock.After(wait):
			}
		}
	}

	g.lastCall = g.clock.Now()
	return nil
}

// LastCall reports when the gate last let a caller through.
func (g *ThrottleGate) LastCall() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCall
}
