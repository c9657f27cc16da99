package pool

import (
	"context"
	goerrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mdiff/internal/slogutil"
)

func newTestPool(workers, queue int) *Pool {
	return New(Config{Workers: workers, QueueSize: queue}, slogutil.NewDiscardLogger())
}

func TestSubmit_ResultsInSubmissionOrder(t *testing.T) {
	p := newTestPool(4, 2)
	defer p.Close()
	ctx := context.Background()

	var futures []*Future[int]
	for i := 0; i < 20; i++ {
		i := i
		futures = append(futures, Submit(ctx, p, func(ctx context.Context) (int, error) {
			// later tasks finish first
			time.Sleep(time.Duration(20-i) * time.Millisecond / 4)
			return i * i, nil
		}))
	}

	for i, f := range futures {
		got, err := f.Wait(ctx)
		if err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
		if got != i*i {
			t.Errorf("task %d = %d, want %d", i, got, i*i)
		}
	}
}

func TestSubmit_BoundedConcurrency(t *testing.T) {
	const workers = 3
	p := newTestPool(workers, 16)
	ctx := context.Background()

	var running, peak atomic.Int32
	var futures []*Future[struct{}]
	for i := 0; i < 12; i++ {
		futures = append(futures, Submit(ctx, p, func(ctx context.Context) (struct{}, error) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		}))
	}
	for _, f := range futures {
		if _, err := f.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	if peak.Load() > workers {
		t.Errorf("peak concurrency %d exceeds %d workers", peak.Load(), workers)
	}
	if processed, failed := p.Stats(); processed != 12 || failed != 0 {
		t.Errorf("Stats() = %d processed, %d failed", processed, failed)
	}
}

func TestSubmit_ErrorsAndPanics(t *testing.T) {
	p := newTestPool(2, 4)
	defer p.Close()
	ctx := context.Background()

	boom := goerrors.New("boom")
	failing := Submit(ctx, p, func(ctx context.Context) (string, error) {
		return "", boom
	})
	panicking := Submit(ctx, p, func(ctx context.Context) (string, error) {
		panic("kaboom")
	})
	fine := Submit(ctx, p, func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	if _, err := failing.Wait(ctx); !goerrors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if _, err := panicking.Wait(ctx); err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("panic should become an error, got %v", err)
	}
	if v, err := fine.Wait(ctx); err != nil || v != "ok" {
		t.Errorf("pool should survive a panic: %q, %v", v, err)
	}
}

func TestSubmit_AfterClose(t *testing.T) {
	p := newTestPool(1, 1)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	f := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if _, err := f.Wait(context.Background()); !goerrors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSubmit_CancelledContext(t *testing.T) {
	p := newTestPool(1, 1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	f := Submit(ctx, p, func(ctx context.Context) (int, error) {
		ran = true
		return 1, nil
	})
	if _, err := f.Wait(context.Background()); !goerrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Error("task must not run under a cancelled context")
	}
}

func TestFuture_WaitHonorsContext(t *testing.T) {
	p := newTestPool(1, 1)
	defer p.Close()

	release := make(chan struct{})
	f := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !goerrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline, got %v", err)
	}
	close(release)
	if v, err := f.Wait(context.Background()); err != nil || v != 1 {
		t.Errorf("Wait() after release = %d, %v", v, err)
	}
}

func TestPool_ConcurrentSubmitters(t *testing.T) {
	p := newTestPool(4, 4)
	ctx := context.Background()

	var total atomic.Int64
	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				f := Submit(ctx, p, func(ctx context.Context) (int64, error) {
					return 1, nil
				})
				v, err := f.Wait(ctx)
				if err != nil {
					t.Error(err)
					return
				}
				total.Add(v)
			}
		}()
	}
	wg.Wait()
	_ = p.Close()

	if total.Load() != 200 {
		t.Errorf("total = %d, want 200", total.Load())
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{}, slogutil.NewDiscardLogger())
	defer p.Close()
	if p.Workers() != DefaultConfig().Workers {
		t.Errorf("Workers() = %d", p.Workers())
	}
}
