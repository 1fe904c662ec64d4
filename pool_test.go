package opr

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	auto := min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinPoolSize), MaxPoolSize)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{name: "explicit takes priority", workers: 4, want: 4},
		{name: "explicit can exceed max", workers: 16, want: 16},
		{name: "zero uses GOMAXPROCS", workers: 0, want: auto},
		{name: "negative uses GOMAXPROCS", workers: -5, want: auto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestGeneratorPool_Size(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ in, want int }{{1, 1}, {4, 4}, {0, 1}, {-3, 1}} {
		pool := NewGeneratorPool(tt.in)
		if got := pool.Size(); got != tt.want {
			t.Errorf("NewGeneratorPool(%d).Size() = %d, want %d", tt.in, got, tt.want)
		}
		_ = pool.Close()
	}
}

func TestGeneratorPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewGeneratorPool(2)
	defer pool.Close()

	g1, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	g2, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if g1 == g2 {
		t.Error("expected distinct generators")
	}

	pool.Release(g1)
	g3, err := pool.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if g3 != g1 {
		t.Error("expected the released generator back")
	}

	pool.Release(g2)
	pool.Release(g3)
}

func TestGeneratorPool_CreationError(t *testing.T) {
	t.Parallel()

	pool := NewGeneratorPool(1, WithAssetPath(filepath.Join(t.TempDir(), "tiada")))
	defer pool.Close()

	for range 2 {
		if _, err := pool.Acquire(); !errors.Is(err, ErrInvalidAssetPath) {
			t.Fatalf("Acquire() error = %v, want ErrInvalidAssetPath", err)
		}
	}
}

func TestGeneratorPool_Closed(t *testing.T) {
	t.Parallel()

	pool := NewGeneratorPool(1)
	g, err := pool.Acquire()
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	pool.Release(g)
	if _, err := pool.Acquire(); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() after Close error = %v, want ErrPoolClosed", err)
	}
}

// TestGeneratorPool_Batch runs a batch of records through a small pool the
// way the CLI does, checking every record gets its own file name and the
// pool stays deadlock-free under contention.
func TestGeneratorPool_Batch(t *testing.T) {
	t.Parallel()

	r := &mockRasterizer{bitmap: &Bitmap{PNG: pngBytes(t, 10, 14), Width: 10, Height: 14}}
	pool := NewGeneratorPool(2, WithRasterizer(r))
	defer pool.Close()

	const records = 20
	names := make([]string, records)
	errs := make([]error, records)

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		go func() {
			defer wg.Done()

			g, err := pool.Acquire()
			if err != nil {
				errs[i] = err
				return
			}
			defer pool.Release(g)

			res, err := g.Generate(context.Background(), Record{NamaProgram: fmt.Sprintf("Program %02d", i)})
			if err != nil {
				errs[i] = err
				return
			}
			names[i] = res.FileName
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(30 * time.Second)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		t.Fatal("batch timed out - possible deadlock")
	}

	for i := range records {
		if errs[i] != nil {
			t.Errorf("record %d: %v", i, errs[i])
			continue
		}
		if want := fmt.Sprintf("Laporan_OPR_Program %02d.pdf", i); names[i] != want {
			t.Errorf("record %d file = %q, want %q", i, names[i], want)
		}
	}
}
