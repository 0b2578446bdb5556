package resilience

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestThrottleGate_FirstAcquireDoesNotWait(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	gate := NewThrottleGate(time.Minute, clock)

	done := make(chan error, 1)
	go func() {
		done <- gate.Acquire(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first acquire: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first acquire blocked with no previous call recorded")
	}
}

func TestThrottleGate_SecondAcquireWaitsFullInterval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	gate := NewThrottleGate(10*time.Second, clock)

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	first := gate.LastCall()

	done := make(chan error, 1)
	go func() {
		done <- gate.Acquire(context.Background())
	}()

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)

	if err := <-done; err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if got := gate.LastCall().Sub(first); got < 10*time.Second {
		t.Fatalf("calls spaced %v apart, want >= 10s", got)
	}
}

func TestThrottleGate_SerializesConcurrentCallers(t *testing.T) {
	t.Parallel()

	gate := NewThrottleGate(20*time.Millisecond, clockwork.NewRealClock())

	const callers = 4
	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if err := gate.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(times); i++ {
		for j := 0; j < i; j++ {
			gap := times[i].Sub(times[j])
			if gap < 0 {
				gap = -gap
			}
			if gap < 15*time.Millisecond {
				t.Fatalf("callers %d and %d passed %v apart, want >= interval", j, i, gap)
			}
		}
	}
}

func TestThrottleGate_AcquireHonorsContextCancel(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	gate := NewThrottleGate(time.Hour, clock)

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- gate.Acquire(ctx)
	}()

	clock.BlockUntil(1)
	cancel()

	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
