package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/awmpietro/algotrace/internal/trace"
)

func sampleTrace(result int) *trace.Trace {
	return &trace.Trace{ResultValue: result, Steps: []trace.Step{}, SelectedItems: []int{}}
}

func TestInMemory_GetOrCompute_DeduplicatesConcurrentSameKey(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32

	fn := func() (*trace.Trace, error) {
		calls.Add(1)
		time.Sleep(30 * time.Millisecond)
		return sampleTrace(7), nil
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, _, err := c.GetOrCompute("same-key", fn)
			if err == nil && tr.ResultValue != 7 {
				err = fmt.Errorf("expected result 7, got %d", tr.ResultValue)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected fn to run once, got %d", got)
	}
}

func TestInMemory_GetOrCompute_ReportsHits(t *testing.T) {
	c := NewInMemory(4)
	fn := func() (*trace.Trace, error) { return sampleTrace(1), nil }

	first, hit, err := c.GetOrCompute("k", fn)
	if err != nil || hit {
		t.Fatalf("expected miss without error, got hit=%v err=%v", hit, err)
	}
	second, hit, err := c.GetOrCompute("k", fn)
	if err != nil || !hit {
		t.Fatalf("expected hit without error, got hit=%v err=%v", hit, err)
	}
	if first != second {
		t.Fatalf("expected the cached pointer to be returned")
	}
}

func TestInMemory_GetOrCompute_ErrorIsNotCached(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32

	_, _, err := c.GetOrCompute("k", func() (*trace.Trace, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}

	_, _, err = c.GetOrCompute("k", func() (*trace.Trace, error) {
		calls.Add(1)
		return sampleTrace(1), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected fn to run twice (error should not be cached), got %d", got)
	}
}

func TestInMemory_GetOrCompute_PanicDoesNotBlockWaiters(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32
	release := make(chan struct{})

	const n = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, _, err := c.GetOrCompute("panic-key", func() (*trace.Trace, error) {
				calls.Add(1)
				<-release
				panic("boom")
			})
			errs <- err
		}()
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err == nil {
			t.Fatalf("expected panic converted into error")
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected single in-flight execution, got %d", got)
	}
	if c.Len() != 0 {
		t.Fatalf("expected nothing cached after panic, got %d", c.Len())
	}
}

func TestInMemory_EvictsOldestFirst(t *testing.T) {
	c := NewInMemory(2)
	var calls atomic.Int32
	fn := func() (*trace.Trace, error) {
		calls.Add(1)
		return sampleTrace(0), nil
	}

	for _, k := range []string{"a", "b", "c"} {
		if _, _, err := c.GetOrCompute(k, fn); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}

	if _, hit, _ := c.GetOrCompute("c", fn); !hit {
		t.Fatalf("expected newest key to survive")
	}
	if _, hit, _ := c.GetOrCompute("a", fn); hit {
		t.Fatalf("expected oldest key to be evicted")
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 4 computations, got %d", got)
	}
}

func TestHash_IsStableHex(t *testing.T) {
	a, b := Hash("x"), Hash("x")
	if a != b || len(a) != 64 {
		t.Fatalf("expected stable 64-char hash, got %q and %q", a, b)
	}
	if Hash("y") == a {
		t.Fatalf("expected different inputs to hash differently")
	}
}
