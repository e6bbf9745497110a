package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAvailabilityFutureResolvesOnce(t *testing.T) {
	f := NewAvailabilityFuture()

	if !f.Succeed(Availability{Available: true, Allowed: true}) {
		t.Fatal("first Succeed() should resolve the future")
	}
	if f.Succeed(Availability{}) {
		t.Error("second Succeed() should report false")
	}
	if f.Fail(errors.New("late")) {
		t.Error("Fail() after Succeed() should report false")
	}

	got, err := f.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got != (Availability{Available: true, Allowed: true}) {
		t.Errorf("Wait() = %+v", got)
	}
}

func TestAvailabilityFutureFail(t *testing.T) {
	f := NewAvailabilityFuture()
	if !f.Fail(nil) {
		t.Fatal("Fail() should resolve the future")
	}

	_, err := f.Wait(context.Background())
	if err == nil || err.Error() != "unknown" {
		t.Errorf("Wait() error = %v, want unknown", err)
	}
}

func TestAvailabilityFutureConcurrentResolution(t *testing.T) {
	f := NewAvailabilityFuture()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var resolved bool
			if i%2 == 0 {
				resolved = f.Succeed(Availability{Available: true})
			} else {
				resolved = f.Fail(errors.New("failed"))
			}
			if resolved {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("future resolved %d times, want 1", wins.Load())
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done() should be closed")
	}
}

func TestAvailabilityFutureWaitContext(t *testing.T) {
	f := NewAvailabilityFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}

	// still resolvable after the waiter left
	if !f.Succeed(Availability{}) {
		t.Error("Succeed() after cancelled Wait() should resolve the future")
	}
}

func TestAvailabilityFutureResolvedWinsOverEndedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := ResolvedAvailability(Availability{Available: true, Allowed: true}, nil)
	for i := 0; i < 100; i++ {
		got, err := f.Wait(ctx)
		if err != nil || !got.Available {
			t.Fatalf("Wait() run %d = %+v, %v", i, got, err)
		}
	}
}

func TestAvailabilityFutureWaitBlocks(t *testing.T) {
	f := NewAvailabilityFuture()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Succeed(Availability{Allowed: true})
	}()

	got, err := f.Wait(context.Background())
	if err != nil || !got.Allowed {
		t.Errorf("Wait() = %+v, %v", got, err)
	}
}

func TestResolvedAvailability(t *testing.T) {
	_, err := ResolvedAvailability(Availability{Available: true}, errors.New("boom")).Wait(context.Background())
	if err == nil || err.Error() != "boom" {
		t.Errorf("Wait() error = %v, want boom", err)
	}

	got, err := ResolvedAvailability(Availability{Available: true}, nil).Wait(context.Background())
	if err != nil || !got.Available {
		t.Errorf("Wait() = %+v, %v", got, err)
	}
}
