package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_DeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var flight SingleFlight
	var calls atomic.Int32

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, _ := flight.Do("key", func() (any, error) {
				calls.Add(1)
				time.Sleep(10 * time.Millisecond)
				return "payload", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if got, _ := v.(string); got != "payload" {
				t.Errorf("unexpected value %v", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fn called %d times, want 1", got)
	}
}

func TestSingleFlight_SequentialCallsRunSeparately(t *testing.T) {
	t.Parallel()

	var flight SingleFlight
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		if _, err, shared := flight.Do("key", func() (any, error) {
			calls.Add(1)
			return nil, nil
		}); err != nil || shared {
			t.Fatalf("call %d: err=%v shared=%t", i, err, shared)
		}
	}

	if got := calls.Load(); got != 3 {
		t.Fatalf("fn called %d times, want 3", got)
	}
}
