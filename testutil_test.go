package pace

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

// unit scales the wall-clock timings used by this test suite. Windows in the
// timing tests are always multiple units wide, with calls landing at least
// one unit away from any window boundary, to tolerate scheduling jitter.
const unit = 10 * time.Millisecond

// timeline schedules calls at fixed offsets from a common start, avoiding
// cumulative drift from sequential sleeps.
type timeline struct {
	start time.Time
}

func newTimeline() *timeline {
	return &timeline{start: time.Now()}
}

// at sleeps until the given offset from the timeline's start.
func (x *timeline) at(offset time.Duration) {
	if d := time.Until(x.start.Add(offset)); d > 0 {
		time.Sleep(d)
	}
}

// await waits for every promise, requiring success, returning the values.
func await[T any](t *testing.T, promises ...*Promise[T]) []T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	values := make([]T, len(promises))
	for i, p := range promises {
		value, err := p.Wait(ctx)
		if err != nil {
			t.Fatalf(`promise %d: unexpected error: %v`, i, err)
		}
		values[i] = value
	}
	return values
}

// checkNumGoroutines returns a func that waits (up to the given duration) for
// the goroutine count to return to what it was, e.g. to verify cleanup.
func checkNumGoroutines(wait time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(wait)
		for {
			after := runtime.NumGoroutine()
			if after <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`expected at most %d goroutines, got %d`, before, after)
				return
			}
			time.Sleep(time.Millisecond * 10)
		}
	}
}

// waitFor polls cond until it holds, or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

// counter is a concurrency-safe invocation counter.
type counter struct {
	mu sync.Mutex
	n  int
}

func (x *counter) inc() {
	x.mu.Lock()
	x.n++
	x.mu.Unlock()
}

func (x *counter) get() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.n
}
