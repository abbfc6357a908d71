package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type recordingProcessor struct {
	mu        sync.Mutex
	processed []string
	failOn    map[string]bool
}

func (r *recordingProcessor) Process(_ context.Context, path string) error {
	r.mu.Lock()
	r.processed = append(r.processed, path)
	fail := r.failOn[path]
	r.mu.Unlock()
	if fail {
		return errors.New("pipeline failed")
	}
	return nil
}

func (r *recordingProcessor) seen() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.processed))
	for _, p := range r.processed {
		out[p] = true
	}
	return out
}

func TestPoolProcessesAllFiles(t *testing.T) {
	proc := &recordingProcessor{}
	pool := NewPool(proc, 2, nil)
	pool.Start(context.Background())

	files := []string{"/a.mkv", "/b.mkv", "/c.mkv", "/d.mkv"}
	for _, f := range files {
		if err := pool.Enqueue(f); err != nil {
			t.Fatalf("Enqueue(%s): %v", f, err)
		}
	}
	pool.Stop()

	seen := proc.seen()
	for _, f := range files {
		if !seen[f] {
			t.Errorf("file %s was not processed", f)
		}
	}
}

func TestPoolIsolatesFailures(t *testing.T) {
	proc := &recordingProcessor{failOn: map[string]bool{"/bad.mkv": true}}
	pool := NewPool(proc, 1, nil)
	pool.Start(context.Background())

	for _, f := range []string{"/bad.mkv", "/good.mkv"} {
		if err := pool.Enqueue(f); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	pool.Stop()

	if !proc.seen()["/good.mkv"] {
		t.Fatal("failure of one file stopped the pool")
	}
}

func TestPoolSizeClamping(t *testing.T) {
	if got := NewPool(&recordingProcessor{}, 0, nil).Size(); got != DefaultWorkers {
		t.Fatalf("default size = %d", got)
	}
	if got := NewPool(&recordingProcessor{}, -3, nil).Size(); got != 1 {
		t.Fatalf("clamped size = %d", got)
	}
	if got := NewPool(&recordingProcessor{}, 8, nil).Size(); got != 8 {
		t.Fatalf("explicit size = %d", got)
	}
}

func TestPoolEnqueueAfterStop(t *testing.T) {
	pool := NewPool(&recordingProcessor{}, 1, nil)
	pool.Start(context.Background())
	pool.Stop()

	if err := pool.Enqueue("/late.mkv"); err == nil {
		t.Fatal("enqueue after stop should fail")
	}
}

func TestPoolStopReleasesBlockedEnqueue(t *testing.T) {
	pool := NewPoolWithQueueDepth(&recordingProcessor{}, 1, 1, nil)
	// No workers started: the buffer fills and the next send waits.
	if err := pool.Enqueue("/a.mkv"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- pool.Enqueue("/b.mkv") }()

	time.Sleep(10 * time.Millisecond)
	pool.Stop()

	if err := <-errCh; err == nil {
		t.Fatal("enqueue waiting across stop should fail, not hang or panic")
	}
}

func TestPoolEnqueueStopConcurrently(t *testing.T) {
	proc := &recordingProcessor{}
	pool := NewPool(proc, 2, nil)
	pool.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = pool.Enqueue(fmt.Sprintf("/f-%d-%d.mkv", n, j))
			}
		}(i)
	}
	pool.Stop()
	wg.Wait()
}

func TestPoolStopIdempotent(t *testing.T) {
	pool := NewPool(&recordingProcessor{}, 1, nil)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()
	pool.Shutdown()
}
