package counter

import (
	"sync"
	"testing"
)

func TestCounterSetReturnsPrevious(t *testing.T) {
	c := New(7)
	if prev := c.Set(42); prev != 7 {
		t.Fatalf("unexpected previous value: %d", prev)
	}
	if got := c.Value(); got != 42 {
		t.Fatalf("unexpected value after set: %d", got)
	}
}

func TestCounterIncrement(t *testing.T) {
	c := New(-2)
	if got := c.Increment(); got != -1 {
		t.Fatalf("unexpected value after increment: %d", got)
	}
	if got := c.Increment(); got != 0 {
		t.Fatalf("unexpected value after increment: %d", got)
	}
}

func TestCounterConcurrentIncrements(t *testing.T) {
	c := New(0)
	const workers = 8
	const perWorker = 250

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()

	if got := c.Value(); got != workers*perWorker {
		t.Fatalf("unexpected final value: %d", got)
	}
}
