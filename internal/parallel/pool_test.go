package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", n, got, want)
		}
		pool.Close()
	}
}

func TestWorkerPool_ForEach(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	const n = 100
	seen := make([]atomic.Int32, n)
	if !pool.ForEach(n, func(i int) { seen[i].Add(1) }) {
		t.Fatal("ForEach() = false on a running pool")
	}
	for i := range seen {
		if got := seen[i].Load(); got != 1 {
			t.Errorf("item %d ran %d times, want 1", i, got)
		}
	}
}

func TestWorkerPool_ForEachEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	called := false
	pool.ForEach(0, func(int) { called = true })
	if called {
		t.Error("ForEach(0) should not call fn")
	}
}

func TestWorkerPool_ForEachMoreItemsThanQueue(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	var count atomic.Int64
	pool.ForEach(1000, func(int) { count.Add(1) })
	if count.Load() != 1000 {
		t.Errorf("count = %d, want 1000", count.Load())
	}
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	// Items 0, 4, 8, ... land on worker 0; make them slow so others steal.
	var mu sync.Mutex
	ran := make(map[int]bool)
	start := time.Now()
	pool.ForEach(16, func(i int) {
		if i%4 == 0 {
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		ran[i] = true
		mu.Unlock()
	})

	if len(ran) != 16 {
		t.Errorf("ran %d items, want 16", len(ran))
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("ForEach took %v", elapsed)
	}
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool should not be running after Close")
	}
	if pool.ForEach(3, func(int) { t.Error("fn called after Close") }) {
		t.Error("ForEach() = true after Close, want false")
	}
}

func TestWorkerPool_ConcurrentForEach(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.ForEach(50, func(int) { total.Add(1) })
		}()
	}
	wg.Wait()

	if total.Load() != 200 {
		t.Errorf("total = %d, want 200", total.Load())
	}
}
